package playlist

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"playlist-digest/internal/models"

	"github.com/mmcdole/gofeed"
)

const guidPrefix = "yt:video:"

// FeedLister reads the public Atom feed of a playlist. The feed only carries
// the most recent entries (about 15), which is all a digest run needs.
type FeedLister struct {
	feedURL string
	parser  *gofeed.Parser
}

func NewFeedLister(feedURL string) *FeedLister {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: 30 * time.Second}
	return &FeedLister{
		feedURL: feedURL,
		parser:  parser,
	}
}

func (f *FeedLister) List(ctx context.Context, playlistID string) []*models.Video {
	feedURL := f.urlFor(playlistID)
	log.Printf("Fetching playlist feed: %s", feedURL)

	feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		log.Printf("Warning: Failed to fetch playlist feed for %s: %v", playlistID, err)
		return []*models.Video{}
	}

	if feed == nil || len(feed.Items) == 0 {
		log.Printf("Playlist feed for %s contains no entries", playlistID)
		return []*models.Video{}
	}

	videos := make([]*models.Video, 0, len(feed.Items))
	for _, item := range feed.Items {
		id := videoIDFromItem(item)
		if id == "" {
			log.Printf("Warning: Skipping feed entry without video ID: %q", item.Title)
			continue
		}

		video := models.NewVideo(id)
		video.Title = item.Title
		if item.PublishedParsed != nil {
			video.PublishedAt = *item.PublishedParsed
		}
		videos = append(videos, video)
	}

	log.Printf("Found %d videos in playlist feed", len(videos))
	return videos
}

func (f *FeedLister) urlFor(playlistID string) string {
	sep := "?"
	if strings.Contains(f.feedURL, "?") {
		sep = "&"
	}
	return f.feedURL + sep + "playlist_id=" + url.QueryEscape(playlistID)
}

// videoIDFromItem prefers the yt:videoId extension element and falls back to
// the entry id ("yt:video:<id>") or the watch link.
func videoIDFromItem(item *gofeed.Item) string {
	if yt, ok := item.Extensions["yt"]; ok {
		if ids := yt["videoId"]; len(ids) > 0 {
			if id := strings.TrimSpace(ids[0].Value); id != "" {
				return id
			}
		}
	}

	if strings.HasPrefix(item.GUID, guidPrefix) {
		return strings.TrimPrefix(item.GUID, guidPrefix)
	}

	if item.Link != "" {
		if u, err := url.Parse(item.Link); err == nil {
			if v := u.Query().Get("v"); v != "" {
				return v
			}
		}
	}

	return ""
}
