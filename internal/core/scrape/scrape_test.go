package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	assert.Equal(t, "https://example.com", NormalizeURL("example.com"))
	assert.Equal(t, "https://example.com", NormalizeURL("  https://example.com "))
	assert.Equal(t, "http://example.com", NormalizeURL("http://example.com"))
	assert.Equal(t, "", NormalizeURL("   "))
}

func TestFetchTextStripsMarkup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Docs</title><style>p{}</style></head>
			<body><script>var x = 1;</script><p>Hello</p> <p>world</p></body></html>`))
	}))
	defer srv.Close()

	title, text, err := FetchText(context.Background(), srv.URL, 1000)
	require.NoError(t, err)
	assert.Equal(t, "Docs", title)
	assert.Contains(t, text, "Hello world")
	assert.NotContains(t, text, "var x")
}

func TestFetchTextCapsLength(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>" + strings.Repeat("word ", 5000) + "</body></html>"))
	}))
	defer srv.Close()

	_, text, err := FetchText(context.Background(), srv.URL, 120)
	require.NoError(t, err)
	assert.LessOrEqual(t, len([]rune(text)), 120)
}

func TestFetchTextErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, _, err := FetchText(context.Background(), srv.URL, 1000)
	assert.Error(t, err)
}
