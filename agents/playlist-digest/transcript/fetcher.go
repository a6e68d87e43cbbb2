// Package transcript selects and downloads one caption track per video.
//
// Selection is an ordered list of strategies folded over the tracks a video
// offers: manual captions in a preferred language, then auto-generated
// captions in a preferred language, then whatever track comes first. Every
// attempt yields an Outcome, so a failed attempt only moves the fold along.
package transcript

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"playlist-digest/internal/models"
)

var (
	// ErrNoCaptions means the video exposes no caption tracks at all.
	ErrNoCaptions = errors.New("no captions available")
	// ErrVideoUnavailable means the watch page refused to play the video.
	ErrVideoUnavailable = errors.New("video unavailable")
)

// Provider exposes the caption tracks of a video and fetches their content.
type Provider interface {
	ListTracks(ctx context.Context, videoID string) ([]models.Track, error)
	Fetch(ctx context.Context, track models.Track) ([]models.Segment, error)
}

type Reason int

const (
	ReasonNone Reason = iota
	ReasonNoCaptions
	ReasonFetchError
	ReasonUnsupportedLanguage
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonNoCaptions:
		return "no-captions"
	case ReasonFetchError:
		return "fetch-error"
	case ReasonUnsupportedLanguage:
		return "unsupported-language"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// Outcome is the result of one selection attempt: either a transcript or
// the reason there is none.
type Outcome struct {
	Strategy   string
	Transcript *models.Transcript
	Reason     Reason
	Err        error
}

func (o Outcome) OK() bool {
	return o.Transcript != nil
}

// Strategy picks a track out of the ones a video offers.
type Strategy struct {
	Name   string
	Select func(tracks []models.Track) (models.Track, bool)
}

// ManualIn selects a manually created track in the first matching language.
func ManualIn(languages []string) Strategy {
	return Strategy{
		Name: "manual " + strings.Join(languages, "/"),
		Select: func(tracks []models.Track) (models.Track, bool) {
			return findByLanguage(tracks, languages, false)
		},
	}
}

// GeneratedIn selects an auto-generated track in the first matching language.
func GeneratedIn(languages []string) Strategy {
	return Strategy{
		Name: "auto-generated " + strings.Join(languages, "/"),
		Select: func(tracks []models.Track) (models.Track, bool) {
			return findByLanguage(tracks, languages, true)
		},
	}
}

// FirstAvailable selects whatever track the provider listed first.
func FirstAvailable() Strategy {
	return Strategy{
		Name: "first available",
		Select: func(tracks []models.Track) (models.Track, bool) {
			if len(tracks) == 0 {
				return models.Track{}, false
			}
			return tracks[0], true
		},
	}
}

// DefaultStrategies is manual -> auto-generated -> anything.
func DefaultStrategies(languages []string) []Strategy {
	return []Strategy{
		ManualIn(languages),
		GeneratedIn(languages),
		FirstAvailable(),
	}
}

// findByLanguage prefers an exact language match and then any regional
// variant of a preferred language, so "en" also covers "en-AU".
func findByLanguage(tracks []models.Track, languages []string, generated bool) (models.Track, bool) {
	for _, lang := range languages {
		for _, t := range tracks {
			if t.Generated == generated && strings.EqualFold(t.LanguageCode, lang) {
				return t, true
			}
		}
	}
	for _, lang := range languages {
		for _, t := range tracks {
			if t.Generated == generated && isVariantOf(t.LanguageCode, lang) {
				return t, true
			}
		}
	}
	return models.Track{}, false
}

// isVariantOf reports whether code shares the primary subtag of lang.
func isVariantOf(code, lang string) bool {
	primary, _, _ := strings.Cut(strings.ToLower(lang), "-")
	code = strings.ToLower(code)
	return code == primary || strings.HasPrefix(code, primary+"-")
}

type Fetcher struct {
	provider   Provider
	strategies []Strategy
}

func NewFetcher(provider Provider, strategies ...Strategy) *Fetcher {
	return &Fetcher{
		provider:   provider,
		strategies: strategies,
	}
}

// Fetch runs the strategies in order and returns the first successful
// Outcome, or the last failed one when every attempt fails.
func (f *Fetcher) Fetch(ctx context.Context, videoID string) Outcome {
	tracks, err := f.provider.ListTracks(ctx, videoID)
	if err != nil {
		reason := ReasonFetchError
		if errors.Is(err, ErrNoCaptions) {
			reason = ReasonNoCaptions
		}
		return Outcome{Reason: reason, Err: err}
	}
	if len(tracks) == 0 {
		return Outcome{Reason: ReasonNoCaptions, Err: ErrNoCaptions}
	}

	// A track is fetched at most once per video; later strategies only see
	// the tracks that have not failed yet.
	failed := make(map[models.Track]bool)
	last := Outcome{Reason: ReasonNoCaptions, Err: ErrNoCaptions}
	for _, s := range f.strategies {
		remaining := untried(tracks, failed)
		if len(remaining) == 0 {
			break
		}

		outcome, tried := f.attempt(ctx, s, videoID, remaining)
		if outcome.OK() {
			return outcome
		}
		if tried != nil {
			failed[*tried] = true
		}
		log.Printf("Transcript attempt %q for %s failed (%s): %v", s.Name, videoID, outcome.Reason, outcome.Err)

		// A fetch error says more than a later strategy finding no match
		if last.Reason == ReasonFetchError && outcome.Reason == ReasonUnsupportedLanguage {
			continue
		}
		last = outcome
	}
	return last
}

func untried(tracks []models.Track, failed map[models.Track]bool) []models.Track {
	if len(failed) == 0 {
		return tracks
	}
	remaining := make([]models.Track, 0, len(tracks))
	for _, t := range tracks {
		if !failed[t] {
			remaining = append(remaining, t)
		}
	}
	return remaining
}

// attempt runs one strategy. The returned track is the one that was
// fetched and failed, or nil when nothing was fetched.
func (f *Fetcher) attempt(ctx context.Context, s Strategy, videoID string, tracks []models.Track) (Outcome, *models.Track) {
	track, ok := s.Select(tracks)
	if !ok {
		return Outcome{
			Strategy: s.Name,
			Reason:   ReasonUnsupportedLanguage,
			Err:      fmt.Errorf("no matching track among %s", describeTracks(tracks)),
		}, nil
	}

	segments, err := f.provider.Fetch(ctx, track)
	if err != nil {
		return Outcome{Strategy: s.Name, Reason: ReasonFetchError, Err: err}, &track
	}
	if len(segments) == 0 {
		return Outcome{Strategy: s.Name, Reason: ReasonFetchError, Err: fmt.Errorf("track %s has no segments", track.LanguageCode)}, &track
	}

	return Outcome{
		Strategy: s.Name,
		Transcript: &models.Transcript{
			VideoID:      videoID,
			LanguageCode: track.LanguageCode,
			Generated:    track.Generated,
			Segments:     segments,
		},
	}, nil
}

func describeTracks(tracks []models.Track) string {
	codes := make([]string, 0, len(tracks))
	for _, t := range tracks {
		code := t.LanguageCode
		if t.Generated {
			code += " (auto)"
		}
		codes = append(codes, code)
	}
	return "[" + strings.Join(codes, ", ") + "]"
}

// Block renders a transcript as a plain-text block headed by its video ID.
func Block(videoID, text string) string {
	return fmt.Sprintf("\n\n--- VIDEO ID: %s ---\n%s", videoID, text)
}
