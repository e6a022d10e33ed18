package audio

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPage assembles a minimal ogg page from lacing values and payload.
func buildPage(lacing []byte, payload []byte) []byte {
	var page bytes.Buffer
	page.WriteString("OggS")
	page.Write(make([]byte, 22)) // version, type, granule, serial, sequence, crc
	page.WriteByte(byte(len(lacing)))
	page.Write(lacing)
	page.Write(payload)
	return page.Bytes()
}

func TestOggPacketReader_SkipsHeadersAndReadsPackets(t *testing.T) {
	var stream bytes.Buffer

	// header packets live on their own pages
	stream.Write(buildPage([]byte{8}, []byte("OpusHead")))
	stream.Write(buildPage([]byte{8}, []byte("OpusTags")))

	// one page with two audio packets
	stream.Write(buildPage([]byte{5, 3}, []byte("hellobye")))

	r := newOggPacketReader(&stream)

	packet, err := r.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), packet)

	packet, err = r.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, []byte("bye"), packet)

	_, err = r.ReadPacket()
	assert.ErrorIs(t, err, io.EOF)
}

func TestOggPacketReader_ReassemblesSpanningPacket(t *testing.T) {
	var stream bytes.Buffer
	stream.Write(buildPage([]byte{8}, []byte("OpusHead")))
	stream.Write(buildPage([]byte{8}, []byte("OpusTags")))

	// a 300-byte packet: a full 255-byte segment continued on the next page
	big := bytes.Repeat([]byte{0xAB}, 300)
	stream.Write(buildPage([]byte{255}, big[:255]))
	stream.Write(buildPage([]byte{45}, big[255:]))

	r := newOggPacketReader(&stream)

	packet, err := r.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, big, packet)
}

func TestOggPacketReader_RejectsBadCapturePattern(t *testing.T) {
	r := newOggPacketReader(bytes.NewReader(append([]byte("NotO"), make([]byte, 23)...)))
	_, err := r.ReadPacket()
	assert.Error(t, err)
	assert.NotErrorIs(t, err, io.EOF)
}
