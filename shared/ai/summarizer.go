package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"playlist-digest/shared/config"

	"google.golang.org/genai"
)

// FailureText is the placeholder body a failed generation used to produce.
// Publishing refuses it alongside blank digests.
const FailureText = "Error generating summary."

var ErrEmptyTranscripts = errors.New("no transcript text to summarize")

const promptTemplate = `You are a newsletter editor. Below are transcripts from the latest videos in my curated playlist.

Task: Create a weekly digest.
1. Title: Catchy title for this week.
2. Intro: 1 sentence on the common theme.
3. For each distinct video topic found:
   - **Headline** (Video Title/Topic)
   - **TL;DR:** 2 sentences summary.
   - **Key Insight:** The most valuable point.
4. Tone: Casual, poignant, easy to absorb.
5. Format: Markdown.

Transcripts:
%s
`

// Summarizer turns concatenated transcripts into a markdown digest with one
// Gemini request. There is no streaming and no retry.
type Summarizer struct {
	client *genai.Client
	model  string
}

func NewSummarizer(ctx context.Context, cfg *config.AIConfig) (*Summarizer, error) {
	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Summarizer{
		client: client,
		model:  cfg.Model,
	}, nil
}

func BuildPrompt(transcripts string) string {
	return fmt.Sprintf(promptTemplate, transcripts)
}

// Summarize requests a digest for the given transcripts.
func (s *Summarizer) Summarize(ctx context.Context, transcripts string) (string, error) {
	if strings.TrimSpace(transcripts) == "" {
		return "", ErrEmptyTranscripts
	}

	parts := []*genai.Part{
		genai.NewPartFromText(BuildPrompt(transcripts)),
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	log.Printf("Requesting digest from %s (%d characters of transcripts)", s.model, len(transcripts))
	result, err := s.client.Models.GenerateContent(ctx, s.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate digest: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", fmt.Errorf("empty digest returned by %s", s.model)
	}

	return text, nil
}

// Usable reports whether a digest is worth publishing.
func Usable(digest string) bool {
	trimmed := strings.TrimSpace(digest)
	return trimmed != "" && trimmed != FailureText
}
