package app

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"driving-exam-service/internal/domain"
)

func TestCalculateExamResultPassingBoundary(t *testing.T) {
	questions := makeQuestions(20)

	result := CalculateExamResult(answerCorrectly(questions, 14), questions, 600, 70)
	require.Equal(t, 20, result.TotalQuestions)
	require.Equal(t, 14, result.CorrectCount)
	require.Equal(t, 6, result.IncorrectCount)
	require.Equal(t, 70, result.ScorePercentage)
	require.True(t, result.HasPassed)
	require.Equal(t, 600, result.TimeTakenSeconds)

	result = CalculateExamResult(answerCorrectly(questions, 13), questions, 600, 70)
	require.Equal(t, 13, result.CorrectCount)
	require.Equal(t, 65, result.ScorePercentage)
	require.False(t, result.HasPassed)
}

func TestCalculateExamResultDetailsKeepOrder(t *testing.T) {
	questions := makeQuestions(3)
	questions[0], questions[2] = questions[2], questions[0]
	answers := map[int]string{
		questions[0].ID: questions[0].CorrectOptionID,
		questions[1].ID: "F1",
	}

	result := CalculateExamResult(answers, questions, 10, 70)
	require.Len(t, result.AnswerDetails, 3)
	for i, d := range result.AnswerDetails {
		require.Equal(t, questions[i].ID, d.QuestionID)
		require.Equal(t, questions[i].Text, d.QuestionText)
		require.Equal(t, questions[i].CorrectOptionID, d.CorrectOptionID)
	}

	require.True(t, result.AnswerDetails[0].IsCorrect)
	require.False(t, result.AnswerDetails[1].IsCorrect)
	require.Equal(t, "F1", *result.AnswerDetails[1].SelectedOptionID)

	unanswered := result.AnswerDetails[2]
	require.Nil(t, unanswered.SelectedOptionID)
	require.False(t, unanswered.IsCorrect)
}

func TestCalculateExamResultTreatsEmptyAnswerAsUnanswered(t *testing.T) {
	questions := makeQuestions(1)
	result := CalculateExamResult(map[int]string{questions[0].ID: ""}, questions, 0, 70)
	require.Nil(t, result.AnswerDetails[0].SelectedOptionID)
	require.Equal(t, 0, result.CorrectCount)
}

func TestCalculateExamResultNoQuestions(t *testing.T) {
	result := CalculateExamResult(map[int]string{}, nil, 30, 0)
	require.Equal(t, 0, result.TotalQuestions)
	require.Equal(t, 0, result.ScorePercentage)
	require.False(t, result.HasPassed)
	require.Empty(t, result.AnswerDetails)
}

func TestScorePercentageRoundsHalfUp(t *testing.T) {
	cases := []struct{ correct, total, want int }{
		{1, 8, 13},
		{1, 3, 33},
		{2, 3, 67},
		{20, 20, 100},
		{0, 20, 0},
		{1, 40, 3},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, scorePercentage(tc.correct, tc.total), "%d/%d", tc.correct, tc.total)
	}
}

func TestFormatTime(t *testing.T) {
	require.Equal(t, "40:00", FormatTime(2400))
	require.Equal(t, "02:05", FormatTime(125))
	require.Equal(t, "61:05", FormatTime(3665))
	require.Equal(t, "00:00", FormatTime(-3))
}

func makeQuestions(n int) []domain.Question {
	questions := make([]domain.Question, 0, n)
	for i := 1; i <= n; i++ {
		questions = append(questions, domain.Question{
			ID:   i,
			Text: fmt.Sprintf("Question %d", i),
			Options: []domain.QuestionOption{
				{ID: "F1", Text: "First"},
				{ID: "F2", Text: "Second"},
				{ID: "F3", Text: "Third"},
			},
			CorrectOptionID: "F2",
		})
	}
	return questions
}

// answerCorrectly answers every question, the first n of them correctly.
func answerCorrectly(questions []domain.Question, n int) map[int]string {
	answers := make(map[int]string, len(questions))
	for i, q := range questions {
		if i < n {
			answers[q.ID] = q.CorrectOptionID
		} else {
			answers[q.ID] = "F3"
		}
	}
	return answers
}
