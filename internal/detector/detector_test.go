package detector

import "testing"

func TestDetect_Empty(t *testing.T) {
	d := New()

	_, ok := d.Detect("")
	if ok {
		t.Error("expected ok=false for empty text")
	}
}

func TestDetectISO_English(t *testing.T) {
	d := New()

	code, ok := d.DetectISO("This is a longer piece of text that should be detected as English.")
	if !ok {
		t.Fatal("expected detection to succeed")
	}
	if code != "EN" {
		t.Errorf("expected EN, got %q", code)
	}
}

func TestDetectISO_Ukrainian(t *testing.T) {
	d := New()

	code, ok := d.DetectISO("Це тестовий текст українською мовою для перевірки детектора.")
	if !ok {
		t.Fatal("expected detection to succeed")
	}
	if code != "UK" {
		t.Errorf("expected UK, got %q", code)
	}
}

func TestReliable(t *testing.T) {
	if Reliable("Hi") {
		t.Error("short text should not be reliable")
	}
	if !Reliable("This sentence is clearly long enough.") {
		t.Error("long text should be reliable")
	}
}
