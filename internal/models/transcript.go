package models

import (
	"strings"
	"time"
)

// Track describes one caption track available for a video.
type Track struct {
	VideoID      string `json:"video_id"`
	LanguageCode string `json:"language_code"`
	Name         string `json:"name"`
	Generated    bool   `json:"generated"` // true for auto-generated (ASR) captions
	BaseURL      string `json:"base_url"`
}

// Segment is a single timed caption line.
type Segment struct {
	Start    time.Duration `json:"start"`
	Duration time.Duration `json:"duration"`
	Text     string        `json:"text"`
}

// Transcript is the fetched content of one caption track.
type Transcript struct {
	VideoID      string    `json:"video_id"`
	LanguageCode string    `json:"language_code"`
	Generated    bool      `json:"generated"`
	Segments     []Segment `json:"segments"`
}

// Text flattens the segments into plain text, one segment per line.
func (t *Transcript) Text() string {
	lines := make([]string, 0, len(t.Segments))
	for _, s := range t.Segments {
		if text := strings.TrimSpace(s.Text); text != "" {
			lines = append(lines, text)
		}
	}
	return strings.Join(lines, "\n")
}
