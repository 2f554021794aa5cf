package postgres

import (
	"context"
	"errors"
	"testing"

	"driving-exam-service/internal/domain"
)

func TestImportQuestionsRejectsInvalidBankBeforeTouchingDB(t *testing.T) {
	questions := []domain.Question{
		{ID: 1, Text: "a", Options: []domain.QuestionOption{{ID: "F1"}, {ID: "F2"}}, CorrectOptionID: "F1"},
		{ID: 1, Text: "b", Options: []domain.QuestionOption{{ID: "F1"}, {ID: "F2"}}, CorrectOptionID: "F2"},
	}
	_, err := ImportQuestions(context.Background(), nil, questions)
	if !errors.Is(err, domain.ErrDuplicateQuestion) {
		t.Fatalf("expected duplicate question error, got %v", err)
	}
}

func TestImportQuestionsEmptyIsNoop(t *testing.T) {
	n, err := ImportQuestions(context.Background(), nil, nil)
	if err != nil || n != 0 {
		t.Fatalf("expected no-op import, got n=%d err=%v", n, err)
	}
}

func TestRowFromQuestionCopiesFields(t *testing.T) {
	q := domain.Question{
		ID:              7,
		Text:            "Which sign means stop?",
		ImagePath:       "images/7.png",
		Options:         []domain.QuestionOption{{ID: "F1", Text: "Red octagon"}, {ID: "F2", Text: "Blue circle"}},
		CorrectOptionID: "F1",
		Category:        "signs",
	}
	row := rowFromQuestion(q)
	if row.ID != 7 || row.Text != q.Text || row.ImagePath != q.ImagePath || row.CorrectOptionID != "F1" || row.Category != "signs" {
		t.Fatalf("unexpected row %+v", row)
	}
	if len(row.Options) != 2 || row.Options[0].Text != "Red octagon" {
		t.Fatalf("unexpected options %+v", row.Options)
	}
}
