// Package quiz provides the trivia bank and the per-sender challenge tracker.
package quiz

import (
	_ "embed"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"jagx-bot/internal/quiz/domain"
)

//go:embed questions.yaml
var defaultQuestions []byte

// ErrEmptyBank is returned when a trivia file holds no usable question.
var ErrEmptyBank = errors.New("quiz: bank has no questions")

// Bank is an immutable trivia set.
type Bank struct {
	questions []domain.Question
	pick      func(n int) int
}

// DefaultBank returns the embedded trivia set.
func DefaultBank() *Bank {
	b, err := ParseBank(defaultQuestions)
	if err != nil {
		panic(fmt.Sprintf("quiz: embedded bank: %v", err))
	}
	return b
}

// LoadBank reads a YAML trivia file from path; an empty path returns the embedded set.
func LoadBank(path string) (*Bank, error) {
	if path == "" {
		return DefaultBank(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("quiz: read bank: %w", err)
	}
	return ParseBank(raw)
}

// ParseBank decodes a YAML list of {question, answer}. Entries missing either field are skipped.
func ParseBank(raw []byte) (*Bank, error) {
	var qs []domain.Question
	if err := yaml.Unmarshal(raw, &qs); err != nil {
		return nil, fmt.Errorf("quiz: parse bank: %w", err)
	}
	out := qs[:0]
	for _, q := range qs {
		if strings.TrimSpace(q.Prompt) == "" || strings.TrimSpace(q.Answer) == "" {
			continue
		}
		out = append(out, q)
	}
	if len(out) == 0 {
		return nil, ErrEmptyBank
	}
	return &Bank{questions: out, pick: rand.IntN}, nil
}

// Len returns the number of questions.
func (b *Bank) Len() int { return len(b.questions) }

// Questions returns a copy of the trivia set.
func (b *Bank) Questions() []domain.Question {
	return append([]domain.Question(nil), b.questions...)
}

// Random returns a uniformly chosen question.
func (b *Bank) Random() domain.Question {
	return b.questions[b.pick(len(b.questions))]
}
