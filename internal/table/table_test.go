package table_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/valpere/tabtran/internal/apperrors"
	"github.com/valpere/tabtran/internal/table"
)

const sample = "id\tsource\ttranslation\n" +
	"1\tStart Game\t\n" +
	"2\tOptions\tОпції\n"

func TestParse_Basic(t *testing.T) {
	tbl, err := table.Parse([]byte(sample))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(tbl.Rows))
	}
	if tbl.Source(0) != "Start Game" {
		t.Errorf("expected source 'Start Game', got %q", tbl.Source(0))
	}
	if tbl.Target(1) != "Опції" {
		t.Errorf("expected target 'Опції', got %q", tbl.Target(1))
	}
	if tbl.TargetColumn() != "translation" {
		t.Errorf("expected target column 'translation', got %q", tbl.TargetColumn())
	}
}

func TestParse_TranslatedColumnAccepted(t *testing.T) {
	in := "source\ttranslated\nHello\t\n"
	tbl, err := table.Parse([]byte(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tbl.TargetColumn() != "translated" {
		t.Errorf("expected target column 'translated', got %q", tbl.TargetColumn())
	}
}

func TestParse_Empty(t *testing.T) {
	_, err := table.Parse(nil)
	if err == nil {
		t.Fatal("expected error for empty input")
	}
	assertFormatError(t, err)
}

func TestParse_MissingSourceColumn(t *testing.T) {
	_, err := table.Parse([]byte("id\ttranslation\n1\t\n"))
	if err == nil {
		t.Fatal("expected error for missing source column")
	}
	assertFormatError(t, err)
}

func TestParse_MissingTranslationColumn(t *testing.T) {
	_, err := table.Parse([]byte("id\tsource\n1\tHello\n"))
	if err == nil {
		t.Fatal("expected error for missing translation column")
	}
	assertFormatError(t, err)
}

func TestParse_FieldCountMismatch(t *testing.T) {
	in := "id\tsource\ttranslation\n1\tHello\t\textra\n"
	_, err := table.Parse([]byte(in))
	if err == nil {
		t.Fatal("expected error for field count mismatch")
	}
	assertFormatError(t, err)
	if !strings.Contains(err.Error(), "row 1") {
		t.Errorf("expected error to name the offending row, got %q", err)
	}
}

func TestSerialize_RoundTrip(t *testing.T) {
	tbl, err := table.Parse([]byte(sample))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := tbl.Serialize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	again, err := table.Parse(out)
	if err != nil {
		t.Fatalf("re-parse failed: %v", err)
	}
	if len(again.Rows) != len(tbl.Rows) {
		t.Fatalf("row count changed: %d != %d", len(again.Rows), len(tbl.Rows))
	}
	for i := range tbl.Rows {
		for j := range tbl.Rows[i].Fields {
			if again.Rows[i].Fields[j] != tbl.Rows[i].Fields[j] {
				t.Errorf("row %d field %d changed: %q != %q",
					i, j, again.Rows[i].Fields[j], tbl.Rows[i].Fields[j])
			}
		}
	}
}

func TestSerialize_EmbeddedTabAndNewline(t *testing.T) {
	tbl, err := table.Parse([]byte(sample))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tbl.SetTarget(0, "line one\nline two\twith tab")

	out, err := tbl.Serialize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	again, err := table.Parse(out)
	if err != nil {
		t.Fatalf("re-parse failed: %v", err)
	}
	if again.Target(0) != "line one\nline two\twith tab" {
		t.Errorf("embedded delimiter lost: %q", again.Target(0))
	}
}

func TestSetTarget_OtherColumnsUntouched(t *testing.T) {
	tbl, err := table.Parse([]byte(sample))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tbl.SetTarget(0, "Почати гру")

	if tbl.Rows[0].Fields[0] != "1" {
		t.Errorf("id column changed: %q", tbl.Rows[0].Fields[0])
	}
	if tbl.Source(0) != "Start Game" {
		t.Errorf("source column changed: %q", tbl.Source(0))
	}
	if tbl.Target(0) != "Почати гру" {
		t.Errorf("target not updated: %q", tbl.Target(0))
	}
}

func TestHasTranslation(t *testing.T) {
	tbl, err := table.Parse([]byte("source\ttranslation\nA\t\nB\t  \nC\tГотово\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tbl.HasTranslation(0) {
		t.Error("empty target should not count as translated")
	}
	if tbl.HasTranslation(1) {
		t.Error("whitespace-only target should not count as translated")
	}
	if !tbl.HasTranslation(2) {
		t.Error("non-empty target should count as translated")
	}
}

func assertFormatError(t *testing.T, err error) {
	t.Helper()
	kind, ok := apperrors.KindOf(err)
	if !ok || kind != apperrors.KindFormat {
		t.Errorf("expected format error, got %v", err)
	}
	var e *apperrors.Error
	if !errors.As(err, &e) {
		t.Errorf("expected *apperrors.Error, got %T", err)
	}
}
