package models

import "time"

// Issue is a digest filed in the target repository.
type Issue struct {
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Labels []string `json:"labels,omitempty"`
	Number int      `json:"number,omitempty"`
	URL    string   `json:"url,omitempty"`
}

// DigestReport captures everything produced by a single pipeline run.
type DigestReport struct {
	Date        time.Time `json:"date"`
	VideoIDs    []string  `json:"video_ids"`
	Included    []string  `json:"included"` // videos that contributed a transcript
	Transcripts string    `json:"-"`
	Digest      string    `json:"digest"`
	Issue       *Issue    `json:"issue,omitempty"`
}
