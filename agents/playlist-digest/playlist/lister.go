// Package playlist resolves a playlist identifier to its most recent videos.
//
// Listers never fail: an unreachable, malformed, empty or private playlist
// yields an empty slice and a log line.
package playlist

import (
	"context"
	"log"

	"playlist-digest/internal/models"
)

// Lister returns the videos of a playlist, newest first.
type Lister interface {
	List(ctx context.Context, playlistID string) []*models.Video
}

// Chain tries each lister in order and returns the first non-empty result.
type Chain []Lister

func (c Chain) List(ctx context.Context, playlistID string) []*models.Video {
	for i, l := range c {
		videos := l.List(ctx, playlistID)
		if len(videos) > 0 {
			return videos
		}
		if i < len(c)-1 {
			log.Printf("Lister %d/%d returned no videos for playlist %s, trying next", i+1, len(c), playlistID)
		}
	}
	return []*models.Video{}
}

// Limit caps a video list at max entries. A non-positive max leaves it untouched.
func Limit(videos []*models.Video, max int) []*models.Video {
	if max <= 0 || len(videos) <= max {
		return videos
	}
	return videos[:max]
}
