package app

import (
	"fmt"

	"driving-exam-service/internal/domain"
)

// CalculateExamResult builds the per-question breakdown and aggregate score.
// Details keep the order of questions. An empty question list yields a zero result.
func CalculateExamResult(answers map[int]string, questions []domain.Question, timeTakenSeconds, passingThreshold int) domain.ExamResult {
	details := make([]domain.AnswerDetail, 0, len(questions))
	correct := 0
	for _, q := range questions {
		detail := domain.AnswerDetail{
			QuestionID:      q.ID,
			QuestionText:    q.Text,
			CorrectOptionID: q.CorrectOptionID,
		}
		if selected, ok := answers[q.ID]; ok && selected != "" {
			detail.SelectedOptionID = &selected
			detail.IsCorrect = selected == q.CorrectOptionID
		}
		if detail.IsCorrect {
			correct++
		}
		details = append(details, detail)
	}

	total := len(questions)
	score := scorePercentage(correct, total)
	return domain.ExamResult{
		TotalQuestions:   total,
		CorrectCount:     correct,
		IncorrectCount:   total - correct,
		ScorePercentage:  score,
		HasPassed:        total > 0 && score >= passingThreshold,
		TimeTakenSeconds: timeTakenSeconds,
		AnswerDetails:    details,
	}
}

// scorePercentage is round-half-up of correct/total*100 in integer arithmetic.
func scorePercentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return (correct*200 + total) / (2 * total)
}

// FormatTime renders seconds as MM:SS; minutes are not wrapped at 60.
func FormatTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
