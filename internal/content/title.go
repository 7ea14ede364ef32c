package content

import (
	"strings"

	"github.com/jdkato/prose/v2"
)

const (
	maxTitleLength = 120
	DefaultTitle   = "Untitled Policy Document"
)

// InferTitle derives a display title from the opening sentence of pasted or
// uploaded text. Falls back to DefaultTitle when the text yields nothing
// usable.
func InferTitle(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return DefaultTitle
	}

	sample := trimmed
	if len(sample) > 1000 {
		sample = sample[:1000]
	}

	doc, err := prose.NewDocument(sample,
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err == nil {
		sentences := doc.Sentences()
		if len(sentences) > 0 {
			if title := clipTitle(sentences[0].Text); title != "" {
				return title
			}
		}
	}

	return clipTitleOrDefault(sample)
}

func clipTitle(s string) string {
	s = strings.TrimSpace(strings.Trim(s, ".!?"))
	if s == "" {
		return ""
	}
	if len(s) > maxTitleLength {
		s = strings.TrimSpace(s[:maxTitleLength]) + "..."
	}
	return s
}

func clipTitleOrDefault(s string) string {
	if title := clipTitle(s); title != "" {
		return title
	}
	return DefaultTitle
}
