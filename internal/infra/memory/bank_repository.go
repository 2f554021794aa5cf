package memory

import (
	"context"
	_ "embed"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"

	"driving-exam-service/internal/domain"
)

//go:embed sample_bank.json
var sampleBankJSON []byte

// BankLoader fetches the raw question set from a backing store (file, DB, ...).
type BankLoader interface {
	LoadQuestions(ctx context.Context) ([]domain.Question, error)
}

// BankRepository caches the validated bank with TTL to avoid repeated loads.
type BankRepository struct {
	loader BankLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	bank      *domain.Bank
	expiresAt time.Time
}

func NewBankRepository(loader BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *BankRepository) GetBank(ctx context.Context) (*domain.Bank, error) {
	if bank, ok := r.cached(r.clock()); ok {
		return bank, nil
	}

	result, err, _ := r.sf.Do("bank", func() (interface{}, error) {
		now := r.clock()
		if bank, ok := r.cached(now); ok {
			return bank, nil
		}

		questions, err := r.loader.LoadQuestions(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrBankNotLoaded, err)
		}
		bank, err := domain.NewBank(questions)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.bank = bank
		r.expiresAt = now.Add(r.ttlWithJitter())
		r.mu.Unlock()
		return bank, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.Bank), nil
}

// Invalidate drops the cached bank so the next call reloads it.
func (r *BankRepository) Invalidate() {
	r.mu.Lock()
	r.bank = nil
	r.mu.Unlock()
}

func (r *BankRepository) cached(now time.Time) (*domain.Bank, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.bank == nil {
		return nil, false
	}
	// ttl <= 0 keeps the bank for the process lifetime
	if r.ttl > 0 && !r.expiresAt.After(now) {
		return nil, false
	}
	return r.bank, true
}

func (r *BankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticBankLoader is a simple loader backed by an in-memory slice (useful for tests/demos).
type StaticBankLoader struct {
	questions []domain.Question
}

func NewStaticBankLoader(questions []domain.Question) *StaticBankLoader {
	return &StaticBankLoader{questions: questions}
}

func (l *StaticBankLoader) LoadQuestions(_ context.Context) ([]domain.Question, error) {
	out := make([]domain.Question, len(l.questions))
	copy(out, l.questions)
	return out, nil
}

// SampleBankLoader serves the 50 bundled questions.
func SampleBankLoader() *StaticBankLoader {
	questions, err := ParseQuestions(sampleBankJSON)
	if err != nil {
		panic(fmt.Sprintf("bundled sample bank is invalid: %v", err))
	}
	return NewStaticBankLoader(questions)
}

// FileBankLoader reads a JSON array of questions from disk on every load.
type FileBankLoader struct {
	path string
}

func NewFileBankLoader(path string) *FileBankLoader {
	return &FileBankLoader{path: path}
}

func (l *FileBankLoader) LoadQuestions(_ context.Context) ([]domain.Question, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	return ParseQuestions(data)
}

// ParseQuestions decodes a JSON array of questions.
func ParseQuestions(data []byte) ([]domain.Question, error) {
	var questions []domain.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("unmarshal question bank: %w", err)
	}
	return questions, nil
}
