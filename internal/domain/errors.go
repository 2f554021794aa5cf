package domain

import "errors"

var (
	// ErrSessionNotFound is returned when an exam session id is unknown.
	ErrSessionNotFound = errors.New("exam session not found")
	// ErrEmptySession is returned when a session would hold no questions.
	ErrEmptySession = errors.New("exam session has no questions")
	// ErrSessionExpired rejects answers once the countdown reached zero.
	ErrSessionExpired = errors.New("exam session time is over")
	// ErrSessionCompleted rejects answers after the exam was submitted.
	ErrSessionCompleted = errors.New("exam session already completed")
	// ErrQuestionNotFound indicates a question ID outside the session or bank.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrEmptyOption is returned when an answer carries no option ID.
	ErrEmptyOption = errors.New("option id must not be empty")
	// ErrInvalidSelection indicates selection parameters outside 0 <= count <= total.
	ErrInvalidSelection = errors.New("invalid question selection")
	// ErrInvalidQuestion indicates malformed question content.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrDuplicateQuestion indicates two questions share an ID.
	ErrDuplicateQuestion = errors.New("duplicate question id")
	// ErrBankNotLoaded indicates the question bank could not be loaded.
	ErrBankNotLoaded = errors.New("question bank not loaded")
)
