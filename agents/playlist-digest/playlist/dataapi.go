package playlist

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"playlist-digest/internal/models"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// maxPageSize is the largest page the Data API serves for playlistItems.
const maxPageSize = 50

// DataAPILister lists playlist items through the YouTube Data API. It sees
// the whole playlist rather than the feed's recent window, but needs an API key.
type DataAPILister struct {
	service *youtube.Service
}

func NewDataAPILister(ctx context.Context, apiKey string, opts ...option.ClientOption) (*DataAPILister, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)

	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return &DataAPILister{service: service}, nil
}

// List walks every page of the playlist before ordering it. Items are
// appended to user playlists, so the newest videos sit on the last page.
func (d *DataAPILister) List(ctx context.Context, playlistID string) []*models.Video {
	var videos []*models.Video
	err := d.service.PlaylistItems.List([]string{"snippet", "contentDetails"}).
		PlaylistId(playlistID).
		MaxResults(maxPageSize).
		Pages(ctx, func(page *youtube.PlaylistItemListResponse) error {
			for _, item := range page.Items {
				if video := videoFromItem(item); video != nil {
					videos = append(videos, video)
				}
			}
			return nil
		})
	if err != nil {
		log.Printf("Warning: Failed to list playlist items for %s: %v", playlistID, err)
		return []*models.Video{}
	}
	if videos == nil {
		videos = []*models.Video{}
	}

	// Newest additions first, matching the feed ordering
	sort.SliceStable(videos, func(i, j int) bool {
		return videos[i].PublishedAt.After(videos[j].PublishedAt)
	})

	log.Printf("Found %d videos via YouTube Data API", len(videos))
	return videos
}

func videoFromItem(item *youtube.PlaylistItem) *models.Video {
	var id string
	if item.ContentDetails != nil {
		id = item.ContentDetails.VideoId
	}
	if id == "" && item.Snippet != nil && item.Snippet.ResourceId != nil {
		id = item.Snippet.ResourceId.VideoId
	}
	if id == "" {
		return nil
	}

	video := models.NewVideo(id)
	if item.Snippet != nil {
		video.Title = item.Snippet.Title
		if publishedAt, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
			video.PublishedAt = publishedAt
		}
	}
	return video
}
