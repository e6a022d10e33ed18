package audio

import (
	"bufio"
	"fmt"
	"io"
)

// oggPacketReader yields opus packets out of an ogg container stream. Packets
// may span ogg pages; continuation segments are reassembled. The two opus
// header packets (OpusHead, OpusTags) are skipped since Discord expects raw
// opus frames only.
type oggPacketReader struct {
	r        *bufio.Reader
	segments []byte
	segIndex int
	pageBuf  []byte
	partial  []byte
	skipped  int
}

func newOggPacketReader(r io.Reader) *oggPacketReader {
	// 65307 is the maximum ogg page size
	return &oggPacketReader{r: bufio.NewReaderSize(r, 65307)}
}

// ReadPacket returns the next opus packet, or io.EOF at end of stream.
func (o *oggPacketReader) ReadPacket() ([]byte, error) {
	for {
		segment, complete, err := o.nextSegmentGroup()
		if err != nil {
			return nil, err
		}
		if !complete {
			o.partial = append(o.partial, segment...)
			continue
		}

		packet := segment
		if len(o.partial) > 0 {
			packet = append(o.partial, segment...)
			o.partial = nil
		}

		// the first two packets are container headers
		if o.skipped < 2 {
			o.skipped++
			continue
		}
		return packet, nil
	}
}

// nextSegmentGroup returns the next lacing-delimited run of segments from the
// current page, reading a new page when the current one is exhausted. The
// complete flag is false when the run ends with a 255-byte segment, meaning
// the packet continues on the next page.
func (o *oggPacketReader) nextSegmentGroup() ([]byte, bool, error) {
	for o.segIndex >= len(o.segments) {
		if err := o.readPage(); err != nil {
			return nil, false, err
		}
	}

	offset := 0
	for idx := 0; idx < o.segIndex; idx++ {
		offset += int(o.segments[idx])
	}

	length := 0
	complete := false
	for ; o.segIndex < len(o.segments); o.segIndex++ {
		segLen := int(o.segments[o.segIndex])
		length += segLen
		if segLen < 255 {
			o.segIndex++
			complete = true
			break
		}
	}

	return o.pageBuf[offset : offset+length], complete, nil
}

// readPage consumes one ogg page header and its payload.
func (o *oggPacketReader) readPage() error {
	var header [27]byte
	if _, err := io.ReadFull(o.r, header[:]); err != nil {
		return err
	}
	if string(header[0:4]) != "OggS" {
		return fmt.Errorf("bad ogg capture pattern %q", header[0:4])
	}

	segmentCount := int(header[26])
	segments := make([]byte, segmentCount)
	if _, err := io.ReadFull(o.r, segments); err != nil {
		return err
	}

	payloadLen := 0
	for _, segLen := range segments {
		payloadLen += int(segLen)
	}
	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(o.r, payload); err != nil {
		return err
	}

	o.segments = segments
	o.segIndex = 0
	o.pageBuf = payload
	return nil
}
