// Package prompt builds the bounded knowledge context and the ordered
// message list sent to the chat-completion provider. Everything here is
// a pure function over its inputs: no I/O, no shared state, safe to call
// concurrently for any number of agents or requests.
package prompt

import (
	"strings"

	"github.com/Abdelbosspie/smartifyai-server/internal/models"
)

// entrySeparator visually splits knowledge entries inside the context block.
const entrySeparator = "\n---\n"

// BuildKnowledgeContext turns a newest-first slice of knowledge records
// into one text block safe to embed in a system prompt. The result never
// exceeds maxChars. Oversized individual records are still included and
// hard-truncated by the final cut; the function never fails, only
// truncates.
func BuildKnowledgeContext(records []models.Knowledge, maxChars int) string {
	if len(records) == 0 || maxChars <= 0 {
		return ""
	}

	var sb strings.Builder
	for _, rec := range records {
		if sb.Len() > maxChars {
			break
		}
		if sb.Len() > 0 {
			sb.WriteString(entrySeparator)
		}
		sb.WriteString("### ")
		sb.WriteString(entryLabel(rec))
		sb.WriteString("\n")
		sb.WriteString(entryBody(rec))
	}

	out := sb.String()
	if runes := []rune(out); len(runes) > maxChars {
		out = string(runes[:maxChars])
	}
	return out
}

// entryLabel picks a display label: title, then file name, then source
// URL, with a generic placeholder as last resort.
func entryLabel(rec models.Knowledge) string {
	for _, s := range []string{rec.Title, rec.FileName, rec.SourceURL} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return "Entry"
}

// entryBody returns the record's trimmed content; empty records degrade
// to a pointer at the source URL, or a placeholder when there is none
// (e.g. a fetch that failed or a file type we cannot extract yet).
func entryBody(rec models.Knowledge) string {
	body := strings.TrimSpace(rec.Content)
	if body != "" {
		return body
	}
	if rec.SourceURL != "" {
		return "See: " + rec.SourceURL
	}
	return "(no extracted text)"
}
