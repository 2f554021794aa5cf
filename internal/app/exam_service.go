package app

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"driving-exam-service/internal/domain"
)

// SessionRepository abstracts where live sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Save(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// BankRepository loads the validated question bank (from cache/backing store).
type BankRepository interface {
	GetBank(ctx context.Context) (*domain.Bank, error)
}

// ResultRecorder persists finished results.
type ResultRecorder interface {
	SaveResult(ctx context.Context, result domain.ExamResult) error
	ListResults(ctx context.Context, limit int) ([]domain.ExamResult, error)
}

// ExamService contains the exam use cases a host calls.
type ExamService struct {
	sessions SessionRepository
	bank     BankRepository
	history  ResultRecorder
	cfg      domain.ExamConfig
	log      zerolog.Logger

	tickInterval time.Duration
	now          func() time.Time

	rndMu sync.Mutex
	rnd   *rand.Rand
}

// ServiceOption configures an ExamService.
type ServiceOption func(*ExamService)

// WithRand fixes the random source used for question selection.
func WithRand(rnd *rand.Rand) ServiceOption {
	return func(s *ExamService) { s.rnd = rnd }
}

// WithClock overrides time.Now for new sessions.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *ExamService) { s.now = now }
}

// WithTickInterval overrides the countdown interval.
func WithTickInterval(d time.Duration) ServiceOption {
	return func(s *ExamService) { s.tickInterval = d }
}

// WithLogger sets the service logger.
func WithLogger(log zerolog.Logger) ServiceOption {
	return func(s *ExamService) { s.log = log }
}

// NewExamService wires the service. history may be nil when results are not kept.
func NewExamService(store SessionRepository, bank BankRepository, history ResultRecorder, cfg domain.ExamConfig, opts ...ServiceOption) *ExamService {
	s := &ExamService{
		sessions:     store,
		bank:         bank,
		history:      history,
		cfg:          cfg,
		log:          zerolog.Nop(),
		tickInterval: time.Second,
		now:          time.Now,
		rnd:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With().Str("component", "exam_service").Logger()
	return s
}

// Config returns the exam parameters.
func (s *ExamService) Config() domain.ExamConfig {
	return s.cfg
}

// StartExam draws a fresh random selection and registers a new session.
func (s *ExamService) StartExam(ctx context.Context) (*Session, error) {
	bank, err := s.bank.GetBank(ctx)
	if err != nil {
		return nil, err
	}

	s.rndMu.Lock()
	selected, err := SelectRandomQuestions(s.rnd, s.cfg.TotalQuestions, s.cfg.QuestionsPerSession)
	s.rndMu.Unlock()
	if err != nil {
		return nil, err
	}

	session, err := NewSessionWithClock(uuid.NewString(), selected, bank, s.cfg, s.now)
	if err != nil {
		return nil, err
	}
	if missing := len(selected) - len(session.Questions()); missing > 0 {
		s.log.Warn().Str("session_id", session.ID()).Int("missing", missing).Msg("selected questions missing from bank")
	}
	s.sessions.Save(session)
	s.log.Info().Str("session_id", session.ID()).Ints("questions", selected).Msg("exam started")
	return session, nil
}

// Session looks up a live session.
func (s *ExamService) Session(sessionID string) (*Session, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// SelectOption records an answer and returns the updated snapshot.
func (s *ExamService) SelectOption(sessionID string, questionID int, optionID string) (domain.ExamSession, error) {
	session, err := s.Session(sessionID)
	if err != nil {
		return domain.ExamSession{}, err
	}
	if err := session.SelectOption(questionID, optionID); err != nil {
		return session.Snapshot(), err
	}
	return session.Snapshot(), nil
}

// NavigateToQuestion jumps to a question by id; unknown ids leave the session unchanged.
func (s *ExamService) NavigateToQuestion(sessionID string, questionID int) (domain.ExamSession, error) {
	return s.apply(sessionID, func(session *Session) { session.NavigateToQuestion(questionID) })
}

func (s *ExamService) NextQuestion(sessionID string) (domain.ExamSession, error) {
	return s.apply(sessionID, func(session *Session) { session.NextQuestion() })
}

func (s *ExamService) PreviousQuestion(sessionID string) (domain.ExamSession, error) {
	return s.apply(sessionID, func(session *Session) { session.PreviousQuestion() })
}

func (s *ExamService) SkipToNextUnanswered(sessionID string) (domain.ExamSession, error) {
	return s.apply(sessionID, func(session *Session) { session.SkipToNextUnanswered() })
}

func (s *ExamService) apply(sessionID string, fn func(*Session)) (domain.ExamSession, error) {
	session, err := s.Session(sessionID)
	if err != nil {
		return domain.ExamSession{}, err
	}
	fn(session)
	return session.Snapshot(), nil
}

// CompleteExam finalizes the session (early submission or after expiry) and
// hands the result to the history. Repeated calls return the same result.
func (s *ExamService) CompleteExam(ctx context.Context, sessionID string) (domain.ExamResult, error) {
	session, err := s.Session(sessionID)
	if err != nil {
		return domain.ExamResult{}, err
	}
	result, first := session.complete()
	if first {
		s.record(ctx, result)
	}
	return result, nil
}

// Countdown builds the ticker for a session. Expiry completes the session and
// records the result before onExpire runs.
func (s *ExamService) Countdown(sessionID string, onTick func(domain.ExamSession), onExpire func(domain.ExamResult)) (*Countdown, error) {
	session, err := s.Session(sessionID)
	if err != nil {
		return nil, err
	}
	return NewCountdown(session,
		WithInterval(s.tickInterval),
		WithTickHandler(onTick),
		WithExpireHandler(func(result domain.ExamResult) {
			s.log.Info().Str("session_id", sessionID).Msg("exam time is over")
			s.record(context.Background(), result)
			if onExpire != nil {
				onExpire(result)
			}
		}),
	), nil
}

// Abandon drops a session, e.g. when its host connection goes away.
func (s *ExamService) Abandon(sessionID string) {
	s.sessions.Delete(sessionID)
}

// History lists stored results, newest first.
func (s *ExamService) History(ctx context.Context, limit int) ([]domain.ExamResult, error) {
	if s.history == nil {
		return []domain.ExamResult{}, nil
	}
	return s.history.ListResults(ctx, limit)
}

// record never fails completion; storage problems are only logged.
func (s *ExamService) record(ctx context.Context, result domain.ExamResult) {
	s.log.Info().
		Str("session_id", result.SessionID).
		Int("correct", result.CorrectCount).
		Int("score", result.ScorePercentage).
		Bool("passed", result.HasPassed).
		Msg("exam completed")
	if s.history == nil {
		return
	}
	if err := s.history.SaveResult(ctx, result); err != nil {
		s.log.Error().Err(err).Str("session_id", result.SessionID).Msg("failed to save exam result")
	}
}
