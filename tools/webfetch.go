package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/relaymind/relay/toolkit"
)

const (
	maxFetchBytes   = 512_000
	fetchTimeoutSec = 30
)

// WebFetchInput defines the input for the WebFetch tool.
type WebFetchInput struct {
	URL    string `json:"url" jsonschema:"required,description=The URL to fetch content from"`
	Prompt string `json:"prompt,omitempty" jsonschema:"description=What information to extract from the page"`
}

// FetchFunc is an injectable HTTP fetch function for testing.
type FetchFunc func(ctx context.Context, url string) (string, error)

// WebFetchTool fetches content from a URL.
type WebFetchTool struct {
	Fetcher FetchFunc // nil uses the default HTTP client
}

var _ toolkit.Tool[WebFetchInput] = (*WebFetchTool)(nil)

func (t *WebFetchTool) Name() string        { return "WebFetch" }
func (t *WebFetchTool) Description() string { return "Fetch content from a URL and process it" }

func (t *WebFetchTool) Execute(ctx context.Context, input WebFetchInput) (*toolkit.Result, error) {
	if input.URL == "" {
		return toolkit.ErrorResult("url is required"), nil
	}

	// Upgrade HTTP to HTTPS
	url := input.URL
	if strings.HasPrefix(url, "http://") {
		url = "https://" + url[7:]
	}

	fetch := t.Fetcher
	if fetch == nil {
		fetch = defaultFetch
	}

	content, err := fetch(ctx, url)
	if err != nil {
		return toolkit.ErrorResult(fmt.Sprintf("fetch failed: %s", err.Error())), nil
	}

	text := stripHTMLTags(content)
	if len(text) > maxFetchBytes {
		text = text[:maxFetchBytes] + "\n... [content truncated]"
	}

	return toolkit.TextResult(fmt.Sprintf("URL: %s\n\n%s", input.URL, text)), nil
}

func defaultFetch(ctx context.Context, url string) (string, error) {
	client := &http.Client{Timeout: fetchTimeoutSec * time.Second}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "relay/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes+1))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

var (
	scriptRe = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	tagRe    = regexp.MustCompile(`<[^>]+>`)
	spaceRe  = regexp.MustCompile(`\n{3,}`)
)

// stripHTMLTags does a rough HTML-to-text conversion.
func stripHTMLTags(html string) string {
	text := scriptRe.ReplaceAllString(html, "")
	text = tagRe.ReplaceAllString(text, "")
	text = spaceRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
