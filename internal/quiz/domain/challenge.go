// Package domain holds trivia questions and the outstanding per-sender challenge.
package domain

import (
	"strings"
	"time"
)

// Question is one trivia entry.
type Question struct {
	Prompt string `yaml:"question"`
	Answer string `yaml:"answer"`
}

// Challenge is the quiz question a sender was asked and has not answered yet.
type Challenge struct {
	Sender   string
	Question Question
	AskedAt  time.Time
}

// Matches reports whether answer equals the expected answer, ignoring case and surrounding space.
func (c Challenge) Matches(answer string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(c.Question.Answer))
}
