package playlistdigest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"playlist-digest/agents/playlist-digest/playlist"
	"playlist-digest/agents/playlist-digest/transcript"
	"playlist-digest/internal/models"
	"playlist-digest/shared/ai"
	"playlist-digest/shared/config"
	"playlist-digest/shared/issues"
	"playlist-digest/shared/scheduler"
)

// MinTranscriptChars is the least amount of gathered transcript text worth
// sending for summarization.
const MinTranscriptChars = 50

type TranscriptFetcher interface {
	Fetch(ctx context.Context, videoID string) transcript.Outcome
}

type Summarizer interface {
	Summarize(ctx context.Context, transcripts string) (string, error)
}

type Publisher interface {
	Publish(ctx context.Context, digest string) (*models.Issue, error)
}

// DigestMetrics represents the metrics collected during a digest run
type DigestMetrics struct {
	VideosFound int    `json:"videos_found"`
	Transcripts int    `json:"transcripts"`
	Skipped     int    `json:"skipped"`
	TextChars   int    `json:"text_chars"`
	DigestChars int    `json:"digest_chars"`
	IssueNumber int    `json:"issue_number"`
	Halted      string `json:"halted,omitempty"`
}

// GetSummary implements the scheduler.Metrics interface
func (m DigestMetrics) GetSummary() string {
	summary := fmt.Sprintf("found %d videos, collected %d transcripts, skipped %d", m.VideosFound, m.Transcripts, m.Skipped)
	switch {
	case m.IssueNumber > 0:
		return summary + fmt.Sprintf(", published issue #%d", m.IssueNumber)
	case m.Halted != "":
		return summary + ", halted: " + m.Halted
	default:
		return summary
	}
}

// DigestAgent implements the scheduler.Agent interface
type DigestAgent struct {
	config     *config.Config
	lister     playlist.Lister
	fetcher    TranscriptFetcher
	summarizer Summarizer
	publisher  Publisher
	now        func() time.Time
	lastReport *models.DigestReport
}

func NewDigestAgent(cfg *config.Config) *DigestAgent {
	return &DigestAgent{
		config: cfg,
		now:    time.Now,
	}
}

func (d *DigestAgent) Name() string {
	return "Playlist Digest"
}

func (d *DigestAgent) Initialize() error {
	log.Printf("Initializing %s...", d.Name())
	ctx := context.Background()

	if d.lister == nil {
		feed := playlist.NewFeedLister(d.config.Playlist.FeedURL)
		if d.config.Playlist.YouTubeAPIKey != "" {
			dataAPI, err := playlist.NewDataAPILister(ctx, d.config.Playlist.YouTubeAPIKey)
			if err != nil {
				return fmt.Errorf("failed to create YouTube Data API lister: %w", err)
			}
			d.lister = playlist.Chain{dataAPI, feed}
			log.Println("Playlist lister initialized (Data API with feed fallback)")
		} else {
			d.lister = feed
			log.Println("Playlist lister initialized (public feed)")
		}
	}

	if d.fetcher == nil {
		d.fetcher = transcript.NewFetcher(
			transcript.NewYouTubeProvider(),
			transcript.DefaultStrategies(d.config.Transcript.Languages)...,
		)
		log.Printf("Transcript fetcher initialized (languages: %s)", strings.Join(d.config.Transcript.Languages, ", "))
	}

	if d.summarizer == nil {
		summarizer, err := ai.NewSummarizer(ctx, &d.config.AI)
		if err != nil {
			return fmt.Errorf("failed to create summarizer: %w", err)
		}
		d.summarizer = summarizer
		log.Println("Summarizer initialized")
	}

	if d.publisher == nil {
		publisher, err := issues.NewPublisher(ctx, &d.config.GitHub)
		if err != nil {
			return fmt.Errorf("failed to create issue publisher: %w", err)
		}
		d.publisher = publisher
		log.Printf("Issue publisher initialized for %s", d.config.GitHub.Repository)
	}

	return nil
}

// LastReport returns what the most recent run produced, or nil before any run.
func (d *DigestAgent) LastReport() *models.DigestReport {
	return d.lastReport
}

func (d *DigestAgent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	startTime := time.Now()
	metrics := DigestMetrics{}
	report := &models.DigestReport{Date: d.now()}
	d.lastReport = report

	succeed := func() {
		if events != nil && events.OnSuccess != nil {
			events.OnSuccess(metrics, time.Since(startTime))
		}
	}

	// 1. List videos
	log.Println("Fetching videos...")
	videos := playlist.Limit(d.lister.List(ctx, d.config.Playlist.ID), d.config.Playlist.MaxVideos)
	metrics.VideosFound = len(videos)
	report.VideoIDs = models.VideoIDs(videos)

	if len(videos) == 0 {
		log.Println("No videos found.")
		metrics.Halted = "no videos"
		succeed()
		return nil
	}

	// 2. Fetch transcripts, one video at a time
	log.Println("Fetching transcripts...")
	var sb strings.Builder
	for i, video := range videos {
		log.Printf("Fetching transcript %d/%d: %s", i+1, len(videos), video.ID)

		outcome := d.fetcher.Fetch(ctx, video.ID)
		if !outcome.OK() {
			log.Printf("Warning: Could not fetch transcript for %s (%s): %v", video.ID, outcome.Reason, outcome.Err)
			metrics.Skipped++
			continue
		}

		kind := "manual"
		if outcome.Transcript.Generated {
			kind = "auto-generated"
		}
		log.Printf("Using %s %s transcript for %s", kind, outcome.Transcript.LanguageCode, video.ID)

		sb.WriteString(transcript.Block(video.ID, outcome.Transcript.Text()))
		report.Included = append(report.Included, video.ID)
		metrics.Transcripts++
	}

	if metrics.Skipped > 0 && events != nil && events.OnPartialFailure != nil {
		events.OnPartialFailure(fmt.Errorf("%d of %d videos had no usable transcript", metrics.Skipped, len(videos)), time.Since(startTime))
	}

	fullText := sb.String()
	report.Transcripts = fullText
	metrics.TextChars = len(fullText)

	if len(fullText) < MinTranscriptChars {
		log.Println("Not enough transcript data found.")
		metrics.Halted = "not enough transcript data"
		succeed()
		return nil
	}

	// 3. Summarize
	log.Println("Summarizing...")
	digest, err := d.summarizer.Summarize(ctx, fullText)
	if err == nil && !ai.Usable(digest) {
		err = errors.New("generation returned no usable digest")
	}
	if err != nil {
		log.Printf("Error generating digest: %v", err)
		if events != nil && events.OnCriticalFailure != nil {
			events.OnCriticalFailure(fmt.Errorf("failed to generate digest: %w", err), time.Since(startTime))
		}
		return nil
	}
	report.Digest = digest
	metrics.DigestChars = len(digest)

	// 4. Publish
	log.Println("Posting to GitHub...")
	issue, err := d.publisher.Publish(ctx, digest)
	if err != nil {
		return fmt.Errorf("failed to publish digest: %w", err)
	}
	report.Issue = issue
	metrics.IssueNumber = issue.Number

	succeed()
	log.Println("Done!")

	return nil
}
