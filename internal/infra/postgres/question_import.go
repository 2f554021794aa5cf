package postgres

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"driving-exam-service/internal/domain"
)

// QuestionRow is the bun model for the questions table.
type QuestionRow struct {
	bun.BaseModel `bun:"table:questions"`

	ID              int                     `bun:"id,pk"`
	Text            string                  `bun:"text,notnull"`
	ImagePath       string                  `bun:"image_path,notnull"`
	Options         []domain.QuestionOption `bun:"options,type:jsonb,notnull"`
	CorrectOptionID string                  `bun:"correct_option_id,notnull"`
	Category        string                  `bun:"category,notnull"`
}

func rowFromQuestion(q domain.Question) QuestionRow {
	return QuestionRow{
		ID:              q.ID,
		Text:            q.Text,
		ImagePath:       q.ImagePath,
		Options:         q.Options,
		CorrectOptionID: q.CorrectOptionID,
		Category:        q.Category,
	}
}

// ImportQuestions validates the bank and upserts every question by id.
func ImportQuestions(ctx context.Context, db *bun.DB, questions []domain.Question) (int, error) {
	if _, err := domain.NewBank(questions); err != nil {
		return 0, err
	}
	if len(questions) == 0 {
		return 0, nil
	}

	rows := make([]QuestionRow, 0, len(questions))
	for _, q := range questions {
		rows = append(rows, rowFromQuestion(q))
	}

	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(&rows).
			On("CONFLICT (id) DO UPDATE").
			Set("text = EXCLUDED.text").
			Set("image_path = EXCLUDED.image_path").
			Set("options = EXCLUDED.options").
			Set("correct_option_id = EXCLUDED.correct_option_id").
			Set("category = EXCLUDED.category").
			Exec(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("import questions: %w", err)
	}
	return len(rows), nil
}
