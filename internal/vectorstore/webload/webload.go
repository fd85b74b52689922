// Package webload fetches a URL source for ingest (§4.2 "URL fetched body,
// stripped via an HTML tag selector"), grounded on the original's
// `WebBaseLoader` + `bs4.SoupStrainer` pattern: fetch the body, then strip
// tags down to the readable text before splitting.
package webload

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// FetchTimeout is the total-request timeout for outbound web source fetches
// (§5 "Outbound HTTP for fetching web sources uses a 60 s total-request
// timeout").
const FetchTimeout = 60 * time.Second

var tagPattern = regexp.MustCompile(`(?is)<[^>]+>`)
var scriptOrStylePattern = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)

// Fetch downloads url and strips it to readable text, analogous to
// BeautifulSoup's SoupStrainer dropping non-content tags before the
// splitter sees the body.
func Fetch(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building request for %s: %w", url, err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("fetching %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading body of %s: %w", url, err)
	}

	return strip(string(body)), nil
}

func strip(html string) string {
	withoutScripts := scriptOrStylePattern.ReplaceAllString(html, " ")
	text := tagPattern.ReplaceAllString(withoutScripts, " ")
	return strings.Join(strings.Fields(text), " ")
}
