package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"playlist-digest/internal/models"

	"github.com/PuerkitoBio/goquery"
)

const (
	defaultWatchURL      = "https://www.youtube.com/watch"
	playerResponseMarker = "ytInitialPlayerResponse = "
	maxWatchPageBytes    = 6 * 1024 * 1024
	maxTimedTextBytes    = 2 * 1024 * 1024
	userAgent            = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
)

// YouTubeProvider discovers caption tracks from the watch page's embedded
// player response and downloads them as timedtext XML.
type YouTubeProvider struct {
	client   *http.Client
	watchURL string
}

func NewYouTubeProvider() *YouTubeProvider {
	return &YouTubeProvider{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		watchURL: defaultWatchURL,
	}
}

type playerResponse struct {
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" = auto-generated
	Name         struct {
		SimpleText string `json:"simpleText"`
		Runs       []struct {
			Text string `json:"text"`
		} `json:"runs"`
	} `json:"name"`
}

func (c captionTrack) displayName() string {
	if c.Name.SimpleText != "" {
		return c.Name.SimpleText
	}
	var sb strings.Builder
	for _, r := range c.Name.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

type timedText struct {
	Lines []timedLine `xml:"text"`
}

type timedLine struct {
	Start string `xml:"start,attr"`
	Dur   string `xml:"dur,attr"`
	Text  string `xml:",chardata"`
}

// ListTracks returns the caption tracks in the order the player lists them.
func (y *YouTubeProvider) ListTracks(ctx context.Context, videoID string) ([]models.Track, error) {
	body, err := y.get(ctx, y.watchURL+"?v="+url.QueryEscape(videoID), maxWatchPageBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch watch page: %w", err)
	}

	player, err := parsePlayerResponse(body)
	if err != nil {
		return nil, err
	}

	if player.Captions == nil {
		if ps := player.PlayabilityStatus; ps != nil && ps.Status != "" && ps.Status != "OK" {
			return nil, fmt.Errorf("%w: %s %s", ErrVideoUnavailable, ps.Status, ps.Reason)
		}
		return nil, ErrNoCaptions
	}

	captionTracks := player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	tracks := make([]models.Track, 0, len(captionTracks))
	for _, ct := range captionTracks {
		// Tracks flagged exp=xpe need a browser PoToken
		if ct.BaseURL == "" || strings.Contains(ct.BaseURL, "&exp=xpe") {
			log.Printf("Warning: Skipping unfetchable %s caption track for %s", ct.LanguageCode, videoID)
			continue
		}
		tracks = append(tracks, models.Track{
			VideoID:      videoID,
			LanguageCode: ct.LanguageCode,
			Name:         ct.displayName(),
			Generated:    ct.Kind == "asr",
			BaseURL:      ct.BaseURL,
		})
	}

	if len(tracks) == 0 {
		return nil, ErrNoCaptions
	}
	return tracks, nil
}

// Fetch downloads a track and returns its timed segments.
func (y *YouTubeProvider) Fetch(ctx context.Context, track models.Track) ([]models.Segment, error) {
	body, err := y.get(ctx, timedTextURL(track.BaseURL), maxTimedTextBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s captions: %w", track.LanguageCode, err)
	}

	segments, err := parseTimedText(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s captions: %w", track.LanguageCode, err)
	}
	return segments, nil
}

func (y *YouTubeProvider) get(ctx context.Context, rawURL string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cookie", "CONSENT=YES+1")

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, limit))
}

// parsePlayerResponse finds the script carrying ytInitialPlayerResponse and
// decodes the JSON object assigned to it.
func parsePlayerResponse(page []byte) (*playerResponse, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("failed to parse watch page: %w", err)
	}

	var player *playerResponse
	var decodeErr error
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		idx := strings.Index(text, playerResponseMarker)
		if idx < 0 {
			return true
		}
		var candidate playerResponse
		if decodeErr = decodeLeadingObject(text[idx+len(playerResponseMarker):], &candidate); decodeErr != nil {
			return true
		}
		player = &candidate
		return false
	})

	if player == nil {
		if decodeErr != nil {
			return nil, fmt.Errorf("failed to decode player response: %w", decodeErr)
		}
		return nil, errors.New("ytInitialPlayerResponse not found in watch page")
	}
	return player, nil
}

// decodeLeadingObject decodes the JSON object at the start of text and
// ignores whatever script follows it.
func decodeLeadingObject(text string, v any) error {
	text = strings.TrimLeft(text, " \t\r\n")
	if !strings.HasPrefix(text, "{") {
		return errors.New("player response is not a JSON object")
	}
	return json.NewDecoder(strings.NewReader(text)).Decode(v)
}

// timedTextURL drops any fmt parameter so the default XML format is served.
func timedTextURL(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return baseURL
	}
	q := u.Query()
	if !q.Has("fmt") {
		return baseURL
	}
	q.Del("fmt")
	u.RawQuery = q.Encode()
	return u.String()
}

func parseTimedText(data []byte) ([]models.Segment, error) {
	var tt timedText
	if err := xml.Unmarshal(data, &tt); err != nil {
		return nil, err
	}

	segments := make([]models.Segment, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		text := strings.TrimSpace(strings.ReplaceAll(html.UnescapeString(line.Text), "\n", " "))
		if text == "" {
			continue
		}
		segments = append(segments, models.Segment{
			Start:    parseSeconds(line.Start),
			Duration: parseSeconds(line.Dur),
			Text:     text,
		})
	}
	return segments, nil
}

func parseSeconds(s string) time.Duration {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return time.Duration(f * float64(time.Second))
}
