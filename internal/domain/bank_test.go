package domain

import (
	"errors"
	"testing"
)

func question(id int, correct string, options ...string) Question {
	q := Question{ID: id, Text: "q", CorrectOptionID: correct}
	for _, o := range options {
		q.Options = append(q.Options, QuestionOption{ID: o, Text: o})
	}
	return q
}

func TestNewBankIndexesAndPreservesOrder(t *testing.T) {
	bank, err := NewBank([]Question{
		question(3, "F1", "F1", "F2"),
		question(1, "F2", "F1", "F2", "F3"),
	})
	if err != nil {
		t.Fatalf("new bank: %v", err)
	}
	if bank.Len() != 2 {
		t.Fatalf("expected 2 questions, got %d", bank.Len())
	}
	if got := bank.Questions(); got[0].ID != 3 || got[1].ID != 1 {
		t.Fatalf("order not preserved: %+v", got)
	}
	q, ok := bank.Question(1)
	if !ok || q.CorrectOptionID != "F2" {
		t.Fatalf("lookup failed: %+v %v", q, ok)
	}
	if _, ok := bank.Question(9); ok {
		t.Fatalf("unexpected question 9")
	}
}

func TestBankQuestionsReturnsCopy(t *testing.T) {
	bank, _ := NewBank([]Question{question(1, "F1", "F1", "F2")})
	qs := bank.Questions()
	qs[0].ID = 99
	if _, ok := bank.Question(1); !ok {
		t.Fatalf("mutation leaked into bank")
	}
}

func TestBankResolveSkipsUnknown(t *testing.T) {
	bank, _ := NewBank([]Question{
		question(1, "F1", "F1", "F2"),
		question(2, "F1", "F1", "F2"),
	})
	got := bank.Resolve([]int{2, 5, 1})
	if len(got) != 2 || got[0].ID != 2 || got[1].ID != 1 {
		t.Fatalf("unexpected resolve result %+v", got)
	}
}

func TestNewBankRejectsInvalidQuestions(t *testing.T) {
	cases := map[string]Question{
		"non-positive id":   question(0, "F1", "F1", "F2"),
		"too few options":   question(1, "F1", "F1"),
		"too many options":  question(1, "F1", "F1", "F2", "F3", "F4", "F5"),
		"empty option id":   question(1, "F1", "F1", ""),
		"repeated option":   question(1, "F1", "F1", "F1"),
		"unresolved answer": question(1, "F9", "F1", "F2"),
	}
	for name, q := range cases {
		if _, err := NewBank([]Question{q}); !errors.Is(err, ErrInvalidQuestion) {
			t.Fatalf("%s: expected invalid question, got %v", name, err)
		}
	}
}

func TestNewBankRejectsDuplicateIDs(t *testing.T) {
	_, err := NewBank([]Question{
		question(1, "F1", "F1", "F2"),
		question(1, "F2", "F1", "F2"),
	})
	if !errors.Is(err, ErrDuplicateQuestion) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestDefaultExamConfig(t *testing.T) {
	cfg := DefaultExamConfig()
	if cfg.TotalQuestions != 50 || cfg.QuestionsPerSession != 20 || cfg.DurationSeconds != 2400 || cfg.PassingThreshold != 70 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}
