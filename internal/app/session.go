package app

import (
	"fmt"
	"sync"
	"time"

	"driving-exam-service/internal/domain"
)

// Session is the state of one timed exam attempt.
// Mutators are serialized so a countdown tick and a user action never interleave.
type Session struct {
	id        string
	cfg       domain.ExamConfig
	now       func() time.Time
	questions []domain.Question

	mu          sync.RWMutex
	selected    []int
	positions   map[int]int
	current     int
	answers     map[int]string
	remaining   int
	startedAt   time.Time
	completedAt time.Time
	completed   bool
	correct     int
	score       int
	result      domain.ExamResult
}

// NewSession creates an active session over the selected question ids.
func NewSession(id string, selected []int, bank *domain.Bank, cfg domain.ExamConfig) (*Session, error) {
	return NewSessionWithClock(id, selected, bank, cfg, time.Now)
}

// NewSessionWithClock allows deterministic timestamps in tests.
func NewSessionWithClock(id string, selected []int, bank *domain.Bank, cfg domain.ExamConfig, now func() time.Time) (*Session, error) {
	if len(selected) == 0 {
		return nil, domain.ErrEmptySession
	}
	positions := make(map[int]int, len(selected))
	for i, qid := range selected {
		if _, dup := positions[qid]; dup {
			return nil, fmt.Errorf("%w: %d selected twice", domain.ErrDuplicateQuestion, qid)
		}
		positions[qid] = i
	}

	var questions []domain.Question
	if bank != nil {
		questions = bank.Resolve(selected)
	}

	ids := make([]int, len(selected))
	copy(ids, selected)
	return &Session{
		id:        id,
		cfg:       cfg,
		now:       now,
		questions: questions,
		selected:  ids,
		positions: positions,
		answers:   make(map[int]string, len(selected)),
		remaining: cfg.DurationSeconds,
		startedAt: now(),
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// SelectOption records the chosen option for a question; the last write wins.
// The option id is not checked against the question's options.
func (s *Session) SelectOption(questionID int, optionID string) error {
	if optionID == "" {
		return domain.ErrEmptyOption
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.stateLocked() {
	case domain.SessionCompleted:
		return domain.ErrSessionCompleted
	case domain.SessionExpired:
		return domain.ErrSessionExpired
	}
	if _, ok := s.positions[questionID]; !ok {
		return fmt.Errorf("%w: %d is not part of session %s", domain.ErrQuestionNotFound, questionID, s.id)
	}
	s.answers[questionID] = optionID
	return nil
}

// NavigateToQuestion moves to the question with the given id.
// It reports false and stays put when the id is not part of the session.
func (s *Session) NavigateToQuestion(questionID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.positions[questionID]
	if !ok {
		return false
	}
	s.current = pos
	return true
}

// NextQuestion advances by one; no-op on the last question.
func (s *Session) NextQuestion() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current+1 >= len(s.selected) {
		return false
	}
	s.current++
	return true
}

// PreviousQuestion goes back by one; no-op on the first question.
func (s *Session) PreviousQuestion() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == 0 {
		return false
	}
	s.current--
	return true
}

// SkipToNextUnanswered searches forward from the question after the current
// one, wrapping to the start, and stops before reaching the current one again.
func (s *Session) SkipToNextUnanswered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.selected)
	for step := 1; step < n; step++ {
		idx := (s.current + step) % n
		if _, answered := s.answers[s.selected[idx]]; !answered {
			s.current = idx
			return true
		}
	}
	return false
}

// UpdateTime sets the remaining seconds. Negative values clamp to zero and
// updates after completion are ignored.
func (s *Session) UpdateTime(secondsRemaining int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completed {
		return
	}
	if secondsRemaining < 0 {
		secondsRemaining = 0
	}
	s.remaining = secondsRemaining
}

// Complete scores the session and marks it completed. Later calls return the
// result computed the first time.
func (s *Session) Complete() domain.ExamResult {
	result, _ := s.complete()
	return result
}

// complete reports whether this call performed the transition.
func (s *Session) complete() (domain.ExamResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completed {
		return s.result, false
	}

	taken := s.cfg.DurationSeconds - s.remaining
	if taken < 0 {
		taken = 0
	}
	result := CalculateExamResult(s.answers, s.questions, taken, s.cfg.PassingThreshold)

	s.completedAt = s.now()
	s.completed = true
	s.correct = result.CorrectCount
	s.score = result.ScorePercentage

	result.SessionID = s.id
	result.CompletedAt = s.completedAt
	s.result = result
	return result, true
}

// State reports active, expired or completed.
func (s *Session) State() domain.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() domain.SessionState {
	switch {
	case s.completed:
		return domain.SessionCompleted
	case s.remaining <= 0:
		return domain.SessionExpired
	default:
		return domain.SessionActive
	}
}

// TimeRemaining returns the remaining seconds.
func (s *Session) TimeRemaining() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.remaining
}

// Result returns the final result once the session is completed.
func (s *Session) Result() (domain.ExamResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result, s.completed
}

// CurrentQuestion resolves the question at the current index. It reports
// false when the bank does not hold the selected id.
func (s *Session) CurrentQuestion() (domain.Question, bool) {
	s.mu.RLock()
	qid := s.selected[s.current]
	s.mu.RUnlock()

	for _, q := range s.questions {
		if q.ID == qid {
			return q, true
		}
	}
	return domain.Question{}, false
}

// Questions returns the resolved questions in session order.
func (s *Session) Questions() []domain.Question {
	out := make([]domain.Question, len(s.questions))
	copy(out, s.questions)
	return out
}

// AnsweredCount returns how many session questions have an answer.
func (s *Session) AnsweredCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.answers)
}

// AllAnswered reports whether every selected question has an answer.
func (s *Session) AllAnswered() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.answers) == len(s.selected)
}

// Snapshot copies the session state for rendering.
func (s *Session) Snapshot() domain.ExamSession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	selected := make([]int, len(s.selected))
	copy(selected, s.selected)
	answers := make(map[int]string, len(s.answers))
	for k, v := range s.answers {
		answers[k] = v
	}

	snap := domain.ExamSession{
		ID:                   s.id,
		SelectedQuestionIDs:  selected,
		CurrentQuestionIndex: s.current,
		Answers:              answers,
		AnsweredCount:        len(answers),
		TimeRemainingSeconds: s.remaining,
		StartedAt:            s.startedAt,
		IsCompleted:          s.completed,
		CorrectAnswers:       s.correct,
		Score:                s.score,
		State:                s.stateLocked(),
	}
	if s.completed {
		completedAt := s.completedAt
		snap.CompletedAt = &completedAt
	}
	return snap
}
