package domain

import "time"

// QuestionOption is one answer choice. IDs are short stable tokens (F1..F4).
type QuestionOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question models an MCQ question with exactly one correct option.
type Question struct {
	ID              int              `json:"id"`
	Text            string           `json:"text"`
	ImagePath       string           `json:"imagePath,omitempty"`
	Options         []QuestionOption `json:"options"`
	CorrectOptionID string           `json:"correctOptionId"`
	Category        string           `json:"category,omitempty"`
}

// SessionState is the lifecycle state of an exam session.
type SessionState string

const (
	SessionActive    SessionState = "active"
	SessionExpired   SessionState = "expired"
	SessionCompleted SessionState = "completed"
)

// ExamSession is a read-only snapshot of a session for hosts and renderers.
type ExamSession struct {
	ID                   string         `json:"id"`
	SelectedQuestionIDs  []int          `json:"selectedQuestionIds"`
	CurrentQuestionIndex int            `json:"currentQuestionIndex"`
	Answers              map[int]string `json:"answers"`
	AnsweredCount        int            `json:"answeredCount"`
	TimeRemainingSeconds int            `json:"timeRemainingSeconds"`
	StartedAt            time.Time      `json:"startedAt"`
	CompletedAt          *time.Time     `json:"completedAt,omitempty"`
	IsCompleted          bool           `json:"isCompleted"`
	CorrectAnswers       int            `json:"correctAnswers"`
	Score                int            `json:"score"`
	State                SessionState   `json:"state"`
}

// AnswerDetail compares the selected option with the correct one.
// SelectedOptionID is nil when the question was never answered.
type AnswerDetail struct {
	QuestionID       int     `json:"questionId"`
	QuestionText     string  `json:"questionText"`
	SelectedOptionID *string `json:"selectedOptionId"`
	CorrectOptionID  string  `json:"correctOptionId"`
	IsCorrect        bool    `json:"isCorrect"`
}

// ExamResult is the immutable outcome of a completed session.
type ExamResult struct {
	SessionID        string         `json:"sessionId,omitempty"`
	TotalQuestions   int            `json:"totalQuestions"`
	CorrectCount     int            `json:"correctCount"`
	IncorrectCount   int            `json:"incorrectCount"`
	ScorePercentage  int            `json:"scorePercentage"`
	HasPassed        bool           `json:"hasPassed"`
	TimeTakenSeconds int            `json:"timeTakenSeconds"`
	CompletedAt      time.Time      `json:"completedAt"`
	AnswerDetails    []AnswerDetail `json:"answerDetails"`
}

// ExamConfig holds the fixed exam parameters.
type ExamConfig struct {
	TotalQuestions      int `json:"totalQuestions"`
	QuestionsPerSession int `json:"questionsPerSession"`
	DurationSeconds     int `json:"durationSeconds"`
	PassingThreshold    int `json:"passingThreshold"`
}

// DefaultExamConfig mirrors the official theory exam: 20 of 50 questions in 40 minutes, 70% to pass.
func DefaultExamConfig() ExamConfig {
	return ExamConfig{
		TotalQuestions:      50,
		QuestionsPerSession: 20,
		DurationSeconds:     2400,
		PassingThreshold:    70,
	}
}
