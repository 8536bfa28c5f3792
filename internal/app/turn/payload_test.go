package turn

import (
	"strings"
	"testing"

	"github.com/playdex/playdex-chat/internal/domain"
)

func TestBuildPayloadWithAndWithoutSummary(t *testing.T) {
	got := BuildPayload(domain.IntentRecommendation, "user: hi\nbot: hello", "what next?")
	want := "[Intent] recommendation\n[Context Summary]\nuser: hi\nbot: hello\n[User] what next?"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	got = BuildPayload(domain.IntentGeneral, "", "what next?")
	if strings.Contains(got, "[Context Summary]") {
		t.Fatalf("empty summary must omit the block, got %q", got)
	}
	if got != "[Intent] general\n[User] what next?" {
		t.Fatalf("unexpected payload %q", got)
	}
}

func TestSummarizeHistoryKeepsNewestMessages(t *testing.T) {
	msgs := []*domain.Message{
		{Author: domain.RoleUser, Text: "one"},
		{Author: domain.RoleBot, Text: "two"},
		{Author: domain.RoleUser, Text: "three"},
	}

	got := SummarizeHistory(msgs, 2)
	if got != "bot: two\nuser: three" {
		t.Fatalf("expected the newest two lines, got %q", got)
	}

	if SummarizeHistory(nil, 6) != "" {
		t.Fatalf("empty history must summarize to nothing")
	}
}

func TestSummarizeHistoryTrimsOldestUnderCharCap(t *testing.T) {
	long := strings.Repeat("x", summaryMaxChars)
	msgs := []*domain.Message{
		{Author: domain.RoleUser, Text: long},
		{Author: domain.RoleBot, Text: "short answer"},
	}

	got := SummarizeHistory(msgs, 0)
	if got != "bot: short answer" {
		t.Fatalf("oldest line should be trimmed, got %d chars", len(got))
	}
}

func TestCleanAnswer(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`"quoted answer"`, "quoted answer"},
		{"Elden Ring [1] is great [23].", "Elden Ring  is great ."},
		{"See the guide【3:1†source】here.", "See the guidehere."},
		{"  plain  ", "plain"},
		{`"`, `"`},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanAnswer(tt.in); got != tt.want {
			t.Fatalf("CleanAnswer(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
