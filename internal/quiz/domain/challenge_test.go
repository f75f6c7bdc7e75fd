package domain

import "testing"

func TestChallenge_Matches(t *testing.T) {
	c := Challenge{Sender: "A", Question: Question{Prompt: "Capital of France?", Answer: "Paris"}}
	testCases := []struct {
		answer string
		want   bool
	}{
		{"Paris", true},
		{"paris", true},
		{"PARIS", true},
		{"  Paris ", true},
		{"Pari", false},
		{"Paris, France", false},
		{"", false},
	}
	for _, tc := range testCases {
		if got := c.Matches(tc.answer); got != tc.want {
			t.Errorf("Matches(%q) = %v, want %v", tc.answer, got, tc.want)
		}
	}
}

func TestChallenge_MatchesMultiWord(t *testing.T) {
	c := Challenge{Question: Question{Prompt: "First president of USA?", Answer: "George Washington"}}
	if !c.Matches("george washington") {
		t.Error("multi-word answer should match case-insensitively")
	}
	if c.Matches("washington") {
		t.Error("partial answer should not match")
	}
}
