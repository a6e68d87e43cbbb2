package models

import "time"

// Video is one playlist entry. Only ID is guaranteed; the remaining fields
// are filled when the listing source provides them.
type Video struct {
	ID          string    `json:"id"`
	Title       string    `json:"title,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`
	URL         string    `json:"url"`
}

func NewVideo(id string) *Video {
	return &Video{
		ID:  id,
		URL: "https://www.youtube.com/watch?v=" + id,
	}
}

// VideoIDs returns the identifiers of videos in order.
func VideoIDs(videos []*Video) []string {
	ids := make([]string, 0, len(videos))
	for _, v := range videos {
		ids = append(ids, v.ID)
	}
	return ids
}
