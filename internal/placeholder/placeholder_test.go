package placeholder_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/valpere/tabtran/internal/placeholder"
)

func mustMasker(t *testing.T, pattern string) *placeholder.Masker {
	t.Helper()
	m, err := placeholder.New(pattern)
	if err != nil {
		t.Fatalf("New(%q): %v", pattern, err)
	}
	return m
}

func TestMask_NoTokens(t *testing.T) {
	m := mustMasker(t, "")
	text := "Start Game"
	masked, tokens := m.Mask(text)
	if masked != text {
		t.Errorf("expected unchanged text, got %q", masked)
	}
	if len(tokens) != 0 {
		t.Errorf("expected 0 tokens, got %d", len(tokens))
	}
}

func TestMask_BraceAndPrintf(t *testing.T) {
	m := mustMasker(t, "")
	masked, tokens := m.Mask("Load {0} save with %d slots")

	if len(tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %d: %v", len(tokens), tokens)
	}
	if tokens[0] != "{0}" || tokens[1] != "%d" {
		t.Errorf("unexpected tokens: %v", tokens)
	}
	if !strings.Contains(masked, "__PH0__") || !strings.Contains(masked, "__PH1__") {
		t.Errorf("expected markers in %q", masked)
	}
	if strings.Contains(masked, "{0}") {
		t.Errorf("token {0} still present in %q", masked)
	}
}

func TestMask_MarkupTagsAndEscapes(t *testing.T) {
	m := mustMasker(t, "")
	masked, tokens := m.Mask(`<color=#ff0000>Danger</color>\nRun!`)

	// <color=#ff0000>, </color>, \n
	if len(tokens) != 3 {
		t.Fatalf("expected 3 tokens, got %d: %v", len(tokens), tokens)
	}
	if strings.Contains(masked, "<color") {
		t.Errorf("tag still present in %q", masked)
	}
}

func TestMask_MacroToken(t *testing.T) {
	m := mustMasker(t, "")
	_, tokens := m.Mask("Press %KEY_ATTACK to strike")
	if len(tokens) != 1 || tokens[0] != "%KEY_ATTACK" {
		t.Errorf("expected %%KEY_ATTACK token, got %v", tokens)
	}
}

func TestRestore_RoundTrip(t *testing.T) {
	m := mustMasker(t, "")
	original := "Collect {0}/{1} <b>gems</b> for %s"
	masked, tokens := m.Mask(original)

	restored := placeholder.Restore(masked, tokens)
	if restored != original {
		t.Errorf("round-trip failed:\n  original: %q\n  restored: %q", original, restored)
	}
}

func TestRestore_OutOfRangeIndexKept(t *testing.T) {
	restored := placeholder.Restore("__PH7__ text", []string{"{0}"})
	if !strings.Contains(restored, "__PH7__") {
		t.Errorf("expected out-of-range marker kept, got %q", restored)
	}
}

func TestRestore_MarkersSurviveReordering(t *testing.T) {
	m := mustMasker(t, "")
	masked, tokens := m.Mask("{count} items in {place}")
	// Translators may legitimately reorder markers.
	reordered := strings.Replace(masked, "__PH0__", "X", 1)
	reordered = strings.Replace(reordered, "__PH1__", "__PH0__", 1)
	reordered = strings.Replace(reordered, "X", "__PH1__", 1)

	restored := placeholder.Restore(reordered, tokens)
	if !strings.Contains(restored, "{count}") || !strings.Contains(restored, "{place}") {
		t.Errorf("expected both tokens restored, got %q", restored)
	}
}

func TestTokens_Order(t *testing.T) {
	m := mustMasker(t, "")
	got := m.Tokens("a {1} b {0} c %s")
	want := []string{"{1}", "{0}", "%s"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokens = %v, want %v", got, want)
	}
}

func TestMarkers(t *testing.T) {
	got := placeholder.Markers("x __PH0__ y __PH2__")
	want := []string{"__PH0__", "__PH2__"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Markers = %v, want %v", got, want)
	}
}

func TestNew_CustomPattern(t *testing.T) {
	m := mustMasker(t, `\[\[[a-z]+\]\]`)
	_, tokens := m.Mask("Use [[gold]] wisely, {0} stays visible")
	if len(tokens) != 1 || tokens[0] != "[[gold]]" {
		t.Errorf("expected custom token only, got %v", tokens)
	}
}

func TestNew_InvalidPattern(t *testing.T) {
	if _, err := placeholder.New("("); err == nil {
		t.Error("expected error for invalid pattern")
	}
}
