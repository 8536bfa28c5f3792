package turn

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/playdex/playdex-chat/internal/domain"
)

// summaryMaxChars caps the [Context Summary] block.
const summaryMaxChars = 800

// BuildPayload assembles the tagged text block sent to the answer service:
// an [Intent] line, an optional [Context Summary] block, and a [User] line.
func BuildPayload(intent domain.IntentLabel, summary, text string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[Intent] %s\n", intent)
	if summary != "" {
		b.WriteString("[Context Summary]\n")
		b.WriteString(summary)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "[User] %s", text)
	return b.String()
}

// SummarizeHistory renders the most recent maxMsgs messages as role-tagged
// lines, newest last, dropping oldest lines to stay under the char cap.
func SummarizeHistory(msgs []*domain.Message, maxMsgs int) string {
	if len(msgs) == 0 {
		return ""
	}
	if maxMsgs > 0 && len(msgs) > maxMsgs {
		msgs = msgs[len(msgs)-maxMsgs:]
	}

	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Author, m.Text))
	}

	// Keep the newest lines whole; trim from the oldest end.
	total := 0
	start := len(lines)
	for i := len(lines) - 1; i >= 0; i-- {
		total += len(lines[i]) + 1
		if total > summaryMaxChars {
			break
		}
		start = i
	}
	return strings.Join(lines[start:], "\n")
}

var (
	citationBracket = regexp.MustCompile(`\[\d+\]`)
	citationCJK     = regexp.MustCompile(`【[^】]*】`)
)

// CleanAnswer strips quote-wrapping artifacts and citation-marker tokens
// from a raw answer before it is shown or persisted.
func CleanAnswer(raw string) string {
	s := strings.TrimSpace(raw)

	s = citationBracket.ReplaceAllString(s, "")
	s = citationCJK.ReplaceAllString(s, "")

	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	return strings.TrimSpace(s)
}
