package issues

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"playlist-digest/internal/models"
	"playlist-digest/shared/ai"
	"playlist-digest/shared/config"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"
)

// ErrEmptyDigest is returned when there is nothing worth filing.
var ErrEmptyDigest = errors.New("digest is empty or a generation failure placeholder")

// Publisher files digests as GitHub issues. Every successful call creates a
// new issue; same-day runs are not deduplicated.
type Publisher struct {
	client      *github.Client
	owner       string
	repo        string
	titlePrefix string
	labels      []string
	now         func() time.Time
}

func NewPublisher(ctx context.Context, cfg *config.GitHubConfig) (*Publisher, error) {
	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	client := github.NewClient(oauth2.NewClient(ctx, tokenSource))

	if cfg.BaseURL != "" {
		enterprise, err := client.WithEnterpriseURLs(cfg.BaseURL, cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub base URL %s: %w", cfg.BaseURL, err)
		}
		client = enterprise
	}

	return &Publisher{
		client:      client,
		owner:       cfg.Owner(),
		repo:        cfg.Name(),
		titlePrefix: cfg.TitlePrefix,
		labels:      cfg.Labels,
		now:         time.Now,
	}, nil
}

// Title returns the issue title for the given day, e.g. "Weekly Digest: 2026-10-19".
func (p *Publisher) Title(date time.Time) string {
	return fmt.Sprintf("%s: %s", p.titlePrefix, date.Format("2006-01-02"))
}

// Publish opens one issue titled with today's date whose body is the digest verbatim.
func (p *Publisher) Publish(ctx context.Context, digest string) (*models.Issue, error) {
	if !ai.Usable(digest) {
		return nil, ErrEmptyDigest
	}

	issue := &models.Issue{
		Title:  p.Title(p.now()),
		Body:   digest,
		Labels: p.labels,
	}

	req := &github.IssueRequest{
		Title: github.String(issue.Title),
		Body:  github.String(issue.Body),
	}
	if len(p.labels) > 0 {
		labels := append([]string(nil), p.labels...)
		req.Labels = &labels
	}

	created, _, err := p.client.Issues.Create(ctx, p.owner, p.repo, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create issue in %s/%s: %w", p.owner, p.repo, err)
	}

	issue.Number = created.GetNumber()
	issue.URL = created.GetHTMLURL()
	log.Printf("Created issue #%d in %s/%s: %s", issue.Number, p.owner, p.repo, issue.URL)

	return issue, nil
}
