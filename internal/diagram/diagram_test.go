package diagram

import (
	"strings"
	"testing"
)

func TestSanitizeNodeID(t *testing.T) {
	id := SanitizeNodeID("Children's Mercy Kansas City")
	if !strings.HasPrefix(id, "CMKC_") {
		t.Errorf("expected CMKC_ prefix, got %s", id)
	}
	if len(id) != len("CMKC_")+4 {
		t.Errorf("expected 4-char hash suffix, got %s", id)
	}

	// Same name always yields the same ID; different names differ.
	if SanitizeNodeID("St. Louis Children's Hospital") != SanitizeNodeID("St. Louis Children's Hospital") {
		t.Error("sanitized ID not deterministic")
	}
	if SanitizeNodeID("Regional Medical Center") == SanitizeNodeID("Rural Medical Center") {
		t.Error("distinct names with same initials must differ via hash")
	}

	// No characters Mermaid chokes on.
	for _, forbidden := range []string{"'", ".", "-", " ", `"`} {
		if strings.Contains(id, forbidden) {
			t.Errorf("ID contains forbidden character %q: %s", forbidden, id)
		}
	}
}

func TestEscapeLabel(t *testing.T) {
	got := EscapeLabel(`"Heartland" <Pediatrics>`)
	want := "'Heartland' &lt;Pediatrics&gt;"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestHospitalStyle(t *testing.T) {
	if got := HospitalStyle("tertiary", false); got != "fill:#4CAF50,color:#fff" {
		t.Errorf("tertiary style: %s", got)
	}
	// Rural wins over type.
	if got := HospitalStyle("tertiary", true); got != "fill:#FF9800,color:#fff" {
		t.Errorf("rural style: %s", got)
	}
	if got := HospitalStyle("unknown-type", false); got != "fill:#607D8B,color:#fff" {
		t.Errorf("default style: %s", got)
	}
}

func TestStyleHighlightKeepsDarkText(t *testing.T) {
	if got := Style("highlight"); got != "fill:#FFD700,color:#000" {
		t.Errorf("highlight style: %s", got)
	}
}

func TestFence(t *testing.T) {
	got := Fence("graph LR\n    A --> B")
	if !strings.HasPrefix(got, "```mermaid\n") || !strings.HasSuffix(got, "\n```") {
		t.Errorf("not fenced: %q", got)
	}
}
