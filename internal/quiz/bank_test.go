package quiz

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultBank(t *testing.T) {
	b := DefaultBank()
	if b.Len() != 3 {
		t.Fatalf("Len = %d, want 3", b.Len())
	}
	want := map[string]string{
		"Capital of France?":      "Paris",
		"2 + 2?":                  "4",
		"First president of USA?": "George Washington",
	}
	for _, q := range b.Questions() {
		if want[q.Prompt] != q.Answer {
			t.Errorf("question %q answer = %q, want %q", q.Prompt, q.Answer, want[q.Prompt])
		}
	}
}

func TestBank_RandomUsesPick(t *testing.T) {
	b := DefaultBank()
	for i := 0; i < b.Len(); i++ {
		idx := i
		b.pick = func(n int) int {
			if n != 3 {
				t.Fatalf("pick called with n = %d, want 3", n)
			}
			return idx
		}
		if got := b.Random(); got != b.questions[idx] {
			t.Errorf("Random = %+v, want %+v", got, b.questions[idx])
		}
	}
}

func TestBank_RandomCoversAllQuestions(t *testing.T) {
	b := DefaultBank()
	seen := make(map[string]bool)
	for i := 0; i < 500 && len(seen) < b.Len(); i++ {
		seen[b.Random().Prompt] = true
	}
	if len(seen) != b.Len() {
		t.Errorf("saw %d distinct questions, want %d", len(seen), b.Len())
	}
}

func TestParseBank(t *testing.T) {
	testCases := []struct {
		name    string
		raw     string
		wantLen int
		wantErr bool
	}{
		{"valid", "- question: Q1\n  answer: A1\n- question: Q2\n  answer: A2\n", 2, false},
		{"skips incomplete", "- question: Q1\n  answer: A1\n- question: Q2\n", 1, false},
		{"empty list", "[]", 0, true},
		{"not yaml list", "question: Q1", 0, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := ParseBank([]byte(tc.raw))
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseBank: %v", err)
			}
			if b.Len() != tc.wantLen {
				t.Errorf("Len = %d, want %d", b.Len(), tc.wantLen)
			}
		})
	}
}

func TestLoadBank(t *testing.T) {
	b, err := LoadBank("")
	if err != nil || b.Len() != 3 {
		t.Fatalf("LoadBank(\"\") = %v, %v; want embedded bank", b, err)
	}

	path := filepath.Join(t.TempDir(), "quiz.yaml")
	if err := os.WriteFile(path, []byte("- question: Color of sky?\n  answer: Blue\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err = LoadBank(path)
	if err != nil {
		t.Fatalf("LoadBank: %v", err)
	}
	if q := b.Random(); q.Prompt != "Color of sky?" || q.Answer != "Blue" {
		t.Errorf("Random = %+v", q)
	}

	if _, err := LoadBank(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file should error")
	}
}
