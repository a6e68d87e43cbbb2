package transcript

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const timedTextXML = `<?xml version="1.0" encoding="utf-8" ?><transcript>
<text start="0.5" dur="2.25">Hello &amp;amp; welcome</text>
<text start="2.75" dur="1.5">it&amp;#39;s a
test</text>
<text start="4.25" dur="1">   </text>
</transcript>`

func watchPage(playerJSON string) string {
	return `<!DOCTYPE html><html><head><title>Video</title></head><body>
<script>var other = {"a": 1};</script>
<script nonce="x">var ytInitialPlayerResponse = ` + playerJSON + `;var meta = document.createElement('meta');</script>
</body></html>`
}

func newTestProvider(t *testing.T, pages map[string]string) (*YouTubeProvider, string) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		page, ok := pages[r.URL.Query().Get("v")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, page)
	})
	mux.HandleFunc("/api/timedtext", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("fmt") != "" {
			http.Error(w, "unexpected fmt", http.StatusBadRequest)
			return
		}
		if r.URL.Query().Get("lang") == "broken" {
			fmt.Fprint(w, "<transcript><text>unterminated")
			return
		}
		w.Header().Set("Content-Type", "text/xml")
		fmt.Fprint(w, timedTextXML)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	provider := NewYouTubeProvider()
	provider.watchURL = server.URL + "/watch"
	return provider, server.URL
}

func TestYouTubeProviderListTracks(t *testing.T) {
	player := `{"playabilityStatus":{"status":"OK"},"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[
{"baseUrl":"BASE/api/timedtext?v=v1&lang=en","name":{"simpleText":"English"},"languageCode":"en"},
{"baseUrl":"BASE/api/timedtext?v=v1&lang=en&kind=asr","name":{"runs":[{"text":"English (auto-generated)"}]},"languageCode":"en","kind":"asr"},
{"baseUrl":"BASE/api/timedtext?v=v1&lang=de&exp=xpe","name":{"simpleText":"German"},"languageCode":"de"},
{"baseUrl":"BASE/api/timedtext?v=v1&lang=es","name":{"simpleText":"Spanish {with braces}"},"languageCode":"es"}
]}}}`

	pages := map[string]string{}
	provider, base := newTestProvider(t, pages)
	pages["v1"] = watchPage(strings.ReplaceAll(player, "BASE", base))

	tracks, err := provider.ListTracks(context.Background(), "v1")
	if err != nil {
		t.Fatalf("ListTracks() error = %v", err)
	}

	if len(tracks) != 3 {
		t.Fatalf("ListTracks() returned %d tracks, want 3 (PoToken track skipped)", len(tracks))
	}

	expected := []struct {
		lang      string
		name      string
		generated bool
	}{
		{"en", "English", false},
		{"en", "English (auto-generated)", true},
		{"es", "Spanish {with braces}", false},
	}
	for i, want := range expected {
		got := tracks[i]
		if got.LanguageCode != want.lang || got.Name != want.name || got.Generated != want.generated {
			t.Errorf("track[%d] = %+v, want %+v", i, got, want)
		}
		if got.VideoID != "v1" {
			t.Errorf("track[%d].VideoID = %s, want v1", i, got.VideoID)
		}
	}
}

func TestYouTubeProviderListTracksErrors(t *testing.T) {
	pages := map[string]string{
		"nocaps":   watchPage(`{"playabilityStatus":{"status":"OK"}}`),
		"private":  watchPage(`{"playabilityStatus":{"status":"LOGIN_REQUIRED","reason":"This video is private"}}`),
		"noplayer": `<html><body><script>var nothing = 1;</script></body></html>`,
		"broken":   `<html><body><script>var ytInitialPlayerResponse = {"captions": ;</script></body></html>`,
		"xpeonly": watchPage(`{"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[
{"baseUrl":"https://example.com/api/timedtext?lang=en&exp=xpe","languageCode":"en"}]}}}`),
	}
	provider, _ := newTestProvider(t, pages)

	tests := []struct {
		videoID string
		target  error
		substr  string
	}{
		{"nocaps", ErrNoCaptions, ""},
		{"private", ErrVideoUnavailable, "private"},
		{"noplayer", nil, "ytInitialPlayerResponse not found"},
		{"broken", nil, "failed to decode player response"},
		{"xpeonly", ErrNoCaptions, ""},
		{"missing", nil, "unexpected status 404"},
	}

	for _, tt := range tests {
		t.Run(tt.videoID, func(t *testing.T) {
			_, err := provider.ListTracks(context.Background(), tt.videoID)
			if err == nil {
				t.Fatal("ListTracks() expected error")
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("ListTracks() error = %v, want %v", err, tt.target)
			}
			if tt.substr != "" && !strings.Contains(err.Error(), tt.substr) {
				t.Errorf("ListTracks() error = %v, want substring %q", err, tt.substr)
			}
		})
	}
}

func TestYouTubeProviderFetch(t *testing.T) {
	provider, base := newTestProvider(t, nil)

	tr := track("en", false)
	tr.BaseURL = base + "/api/timedtext?v=v1&lang=en&fmt=srv3"

	segments, err := provider.Fetch(context.Background(), tr)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if len(segments) != 2 {
		t.Fatalf("Fetch() returned %d segments, want 2 (blank line dropped)", len(segments))
	}
	if segments[0].Text != "Hello & welcome" {
		t.Errorf("segments[0].Text = %q", segments[0].Text)
	}
	if segments[1].Text != "it's a test" {
		t.Errorf("segments[1].Text = %q", segments[1].Text)
	}
	if segments[0].Start != 500*time.Millisecond || segments[0].Duration != 2250*time.Millisecond {
		t.Errorf("segments[0] timing = %v/%v", segments[0].Start, segments[0].Duration)
	}
}

func TestYouTubeProviderFetchMalformed(t *testing.T) {
	provider, base := newTestProvider(t, nil)

	tr := track("broken", false)
	tr.BaseURL = base + "/api/timedtext?lang=broken"

	if _, err := provider.Fetch(context.Background(), tr); err == nil {
		t.Error("Fetch() expected error for malformed XML")
	}
}

func TestDecodeLeadingObject(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{"Simple", `{"a":"x"};var x`, "x", false},
		{"Leading space", " \n{\"a\":\"y\"} trailing", "y", false},
		{"Braces in string", `{"a":"}{"}x`, "}{", false},
		{"Escaped quote", `{"a":"\"}"};`, `"}`, false},
		{"Unbalanced", `{"a":"z"`, "", true},
		{"Not an object", `[1,2]`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got struct {
				A string `json:"a"`
			}
			err := decodeLeadingObject(tt.input, &got)
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodeLeadingObject(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got.A != tt.expected {
				t.Errorf("decodeLeadingObject(%q) a = %q, want %q", tt.input, got.A, tt.expected)
			}
		})
	}
}

func TestTimedTextURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://example.com/api/timedtext?lang=en", "https://example.com/api/timedtext?lang=en"},
		{"https://example.com/api/timedtext?lang=en&fmt=srv3", "https://example.com/api/timedtext?lang=en"},
	}

	for _, tt := range tests {
		if got := timedTextURL(tt.input); got != tt.expected {
			t.Errorf("timedTextURL(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
