package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"
)

// Track is the playable result of extracting a URL or search query.
type Track struct {
	Title     string
	StreamURL string
	PageURL   string
	Duration  time.Duration
}

// Extractor resolves a user-supplied URL or search query into a streamable
// audio track. The external extraction tool lives behind this interface.
type Extractor interface {
	Extract(ctx context.Context, query string) (*Track, error)
}

// YTDLPExtractor shells out to yt-dlp for extraction.
type YTDLPExtractor struct {
	// Binary is the yt-dlp executable name or path. Empty means "yt-dlp".
	Binary string
}

type ytdlpOutput struct {
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	WebpageURL string  `json:"webpage_url"`
	Duration   float64 `json:"duration"`
}

func (e *YTDLPExtractor) binary() string {
	if e.Binary != "" {
		return e.Binary
	}
	return "yt-dlp"
}

func (e *YTDLPExtractor) Extract(ctx context.Context, query string) (*Track, error) {
	cmd := exec.CommandContext(ctx, e.binary(),
		"--no-playlist",
		"--default-search", "ytsearch",
		"--format", "bestaudio/best",
		"--dump-single-json",
		query,
	)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to run extractor: %w", err)
	}

	var info ytdlpOutput
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, fmt.Errorf("failed to parse extractor output: %w", err)
	}
	if info.URL == "" {
		return nil, fmt.Errorf("extractor returned no stream URL")
	}

	return &Track{
		Title:     info.Title,
		StreamURL: info.URL,
		PageURL:   info.WebpageURL,
		Duration:  time.Duration(info.Duration * float64(time.Second)),
	}, nil
}
