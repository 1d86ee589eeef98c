package notes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"

	"codeberg.org/snonux/lanote/internal/card"
)

const (
	// DefaultTimeout bounds one document fetch.
	DefaultTimeout = 10 * time.Second
	// MaxBodySize limits how much of a document is read.
	MaxBodySize = 10 * 1024 * 1024
)

var (
	// ErrAuthRequired means the document is behind a sign-in page.
	ErrAuthRequired = errors.New("document requires sign-in; publish it to the web and use that link")
	// ErrEmptyDocument means the document had no text.
	ErrEmptyDocument = errors.New("document is empty")
)

var (
	googleDocID     = regexp.MustCompile(`^/document/d/([a-zA-Z0-9_-]+)`)
	identifierInput = regexp.MustCompile(`<input[^>]+(?:name|id)="identifier(?:Id)?"`)
)

// SyncState remembers when a source last produced new vocabulary.
type SyncState interface {
	SetLastSynced(ctx context.Context, source string, t time.Time) error
}

// SyncResult is the outcome of one sync.
type SyncResult struct {
	Source string
	// Items are the candidates whose terms are not yet in the library.
	Items []Item
	// Duplicates counts parsed candidates dropped as already known.
	Duplicates int
}

// Syncer pulls vocabulary from published documents.
type Syncer struct {
	Client  *http.Client
	Timeout time.Duration

	parser Parser
	state  SyncState
	logger *slog.Logger
	now    func() time.Time
}

// NewSyncer creates a syncer. state may be nil.
func NewSyncer(parser Parser, state SyncState, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		Client:  http.DefaultClient,
		Timeout: DefaultTimeout,
		parser:  parser,
		state:   state,
		logger:  logger,
		now:     time.Now,
	}
}

// Sync fetches source, parses it for lang and returns the items whose term
// is not among existing. The source is marked synced only when new items
// were found.
func (s *Syncer) Sync(ctx context.Context, source string, lang card.Language, existing []string) (SyncResult, error) {
	source = NormalizeURL(source)
	res := SyncResult{Source: source}

	text, err := s.fetch(ctx, source)
	if err != nil {
		return res, err
	}

	items, err := s.parser.Parse(ctx, text, lang)
	if err != nil {
		return res, err
	}

	known := make(map[string]struct{}, len(existing))
	for _, term := range existing {
		known[term] = struct{}{}
	}
	for _, it := range items {
		if _, ok := known[it.Term]; ok {
			res.Duplicates++
			continue
		}
		res.Items = append(res.Items, it)
	}

	s.logger.Info("document synced", "source", source, "new", len(res.Items), "duplicates", res.Duplicates)

	if len(res.Items) > 0 && s.state != nil {
		if err := s.state.SetLastSynced(ctx, source, s.now()); err != nil {
			return res, fmt.Errorf("failed to record sync of %s: %w", source, err)
		}
	}
	return res, nil
}

func (s *Syncer) fetch(ctx context.Context, source string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	fetchURL := ExportURL(source)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return "", fmt.Errorf("invalid document URL %q: %w", source, err)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", fetchURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch %s: status %d", fetchURL, resp.StatusCode)
	}
	if resp.ContentLength > MaxBodySize {
		return "", fmt.Errorf("document of %d bytes exceeds limit of %d bytes", resp.ContentLength, MaxBodySize)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", fetchURL, err)
	}
	if len(body) > MaxBodySize {
		return "", fmt.Errorf("document exceeds limit of %d bytes", MaxBodySize)
	}

	text := string(body)
	if isSignInPage(resp.Request.URL, text) {
		return "", ErrAuthRequired
	}
	if isHTML(resp.Header.Get("Content-Type"), text) {
		text, err = articleText(body, fetchURL)
		if err != nil {
			return "", err
		}
	}

	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyDocument
	}
	return text, nil
}

// NormalizeURL trims raw and adds an https scheme when none is given.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw != "" && !strings.HasPrefix(raw, "http") {
		raw = "https://" + raw
	}
	return raw
}

// ExportURL rewrites a Google Docs editor link to its plain text export.
// Published ("/d/e/...") and other URLs are returned unchanged.
func ExportURL(source string) string {
	u, err := url.Parse(source)
	if err != nil || u.Hostname() != "docs.google.com" {
		return source
	}
	m := googleDocID.FindStringSubmatch(u.Path)
	if m == nil || m[1] == "e" {
		return source
	}
	return "https://docs.google.com/document/d/" + m[1] + "/export?format=txt"
}

// isSignInPage reports whether the fetch ended on a login wall. final is
// the URL after redirects.
func isSignInPage(final *url.URL, text string) bool {
	if final != nil {
		if final.Hostname() == "accounts.google.com" {
			return true
		}
		// published documents are public
		if strings.HasSuffix(final.Path, "/pub") {
			return false
		}
	}
	return strings.Contains(text, "ServiceLogin") || identifierInput.MatchString(text)
}

func isHTML(contentType, text string) bool {
	if strings.HasPrefix(contentType, "text/html") {
		return true
	}
	head := strings.ToLower(strings.TrimSpace(text))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}

func articleText(body []byte, pageURL string) (string, error) {
	u, _ := url.Parse(pageURL)
	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return "", fmt.Errorf("failed to extract document text: %w", err)
	}
	return article.TextContent, nil
}
