package styles

import (
	"strings"
	"testing"
)

func TestStatusIndicator_ContainsStatus(t *testing.T) {
	for _, status := range []string{"ok", "missing", "untracked", "ip-mismatch", "enabled", "disabled", "external", "available", "not found", "other"} {
		got := StatusIndicator(status)
		if !strings.Contains(got, status) || !strings.Contains(got, "●") {
			t.Errorf("StatusIndicator(%q) = %q", status, got)
		}
	}
}

func TestSection_RuleMatchesTitle(t *testing.T) {
	got := Section("Enabled domains")
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", got)
	}
	if !strings.Contains(lines[1], strings.Repeat("─", len("Enabled domains"))) {
		t.Errorf("expected rule under title, got %q", lines[1])
	}
}

func TestStatusStyle_Tones(t *testing.T) {
	if StatusStyle("ok").GetForeground() != Green {
		t.Error("expected ok to render green")
	}
	if StatusStyle("untracked").GetForeground() != Yellow {
		t.Error("expected untracked to render yellow")
	}
	if StatusStyle("missing").GetForeground() != Red {
		t.Error("expected missing to render red")
	}
	if StatusStyle("something else").GetForeground() != Gray {
		t.Error("expected unknown statuses to render gray")
	}
}
