package domain

import "fmt"

const (
	minOptions = 2
	maxOptions = 4
)

// Bank is a validated, read-only question set indexed by question ID.
type Bank struct {
	questions []Question
	byID      map[int]int
}

// NewBank validates questions and indexes them. Order is preserved.
func NewBank(questions []Question) (*Bank, error) {
	b := &Bank{
		questions: make([]Question, 0, len(questions)),
		byID:      make(map[int]int, len(questions)),
	}
	for _, q := range questions {
		if err := q.Validate(); err != nil {
			return nil, err
		}
		if _, ok := b.byID[q.ID]; ok {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateQuestion, q.ID)
		}
		b.byID[q.ID] = len(b.questions)
		b.questions = append(b.questions, q)
	}
	return b, nil
}

// Validate checks the option count and that the correct option resolves.
func (q Question) Validate() error {
	if q.ID <= 0 {
		return fmt.Errorf("%w: id %d must be positive", ErrInvalidQuestion, q.ID)
	}
	if n := len(q.Options); n < minOptions || n > maxOptions {
		return fmt.Errorf("%w: question %d has %d options", ErrInvalidQuestion, q.ID, n)
	}
	seen := make(map[string]struct{}, len(q.Options))
	found := false
	for _, opt := range q.Options {
		if opt.ID == "" {
			return fmt.Errorf("%w: question %d has an option without id", ErrInvalidQuestion, q.ID)
		}
		if _, dup := seen[opt.ID]; dup {
			return fmt.Errorf("%w: question %d repeats option %q", ErrInvalidQuestion, q.ID, opt.ID)
		}
		seen[opt.ID] = struct{}{}
		if opt.ID == q.CorrectOptionID {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("%w: question %d correct option %q not among options", ErrInvalidQuestion, q.ID, q.CorrectOptionID)
	}
	return nil
}

// Len returns the number of questions in the bank.
func (b *Bank) Len() int {
	return len(b.questions)
}

// Question looks up a question by ID.
func (b *Bank) Question(id int) (Question, bool) {
	i, ok := b.byID[id]
	if !ok {
		return Question{}, false
	}
	return b.questions[i], true
}

// Questions returns a copy of all questions in bank order.
func (b *Bank) Questions() []Question {
	out := make([]Question, len(b.questions))
	copy(out, b.questions)
	return out
}

// Resolve maps ids to questions in the given order, skipping unknown ids.
func (b *Bank) Resolve(ids []int) []Question {
	out := make([]Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := b.Question(id); ok {
			out = append(out, q)
		}
	}
	return out
}
