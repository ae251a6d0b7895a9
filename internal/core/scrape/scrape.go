// Package scrape fetches a web page and reduces it to plain text for a
// url-kind knowledge record.
package scrape

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var (
	httpScheme = regexp.MustCompile(`(?i)^https?://`)
	blankRuns  = regexp.MustCompile(`\s+`)
)

// NormalizeURL prepends https:// when the scheme is missing.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !httpScheme.MatchString(raw) {
		return "https://" + raw
	}
	return raw
}

// FetchText downloads the page and returns its visible text capped at
// maxChars, plus the page title when one exists.
func FetchText(ctx context.Context, url string, maxChars int) (title, text string, err error) {
	reqCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", fmt.Errorf("build request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", "", fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("parse %s: %w", url, err)
	}

	title = strings.TrimSpace(doc.Find("title").First().Text())

	doc.Find("script, style, noscript").Remove()
	text = blankRuns.ReplaceAllString(strings.TrimSpace(doc.Find("body").Text()), " ")

	if runes := []rune(text); maxChars > 0 && len(runes) > maxChars {
		text = string(runes[:maxChars])
	}
	return title, text, nil
}
