package redis

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"driving-exam-service/internal/domain"
	"driving-exam-service/internal/infra/memory"
)

// BankRepository caches the question bank in Redis (one hash field per question)
// and falls back to a loader on cache miss.
// Questions are stored as: HSET exam:bank:questions {questionID} {question JSON}
type BankRepository struct {
	client *redis.Client
	loader memory.BankLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewBankRepository(client *redis.Client, loader memory.BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

const bankKey = "exam:bank:questions"

func (r *BankRepository) GetBank(ctx context.Context) (*domain.Bank, error) {
	if bank, ok := r.fromCache(ctx); ok {
		return bank, nil
	}

	result, err, _ := r.sf.Do(bankKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if bank, ok := r.fromCache(ctx); ok {
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

		ttl := r.ttlWithJitter()
		pipe := r.client.Pipeline()
		pipe.Del(ctx, bankKey)
		for _, q := range questions {
			raw, err := json.Marshal(q)
			if err != nil {
				return nil, fmt.Errorf("marshal question %d: %w", q.ID, err)
			}
			pipe.HSet(ctx, bankKey, strconv.Itoa(q.ID), raw)
		}
		if ttl > 0 {
			pipe.Expire(ctx, bankKey, ttl)
		}
		// the cache is best effort; the loaded bank is still served
		_, _ = pipe.Exec(ctx)

		return bank, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.Bank), nil
}

// Invalidate removes the cached bank.
func (r *BankRepository) Invalidate(ctx context.Context) error {
	return r.client.Del(ctx, bankKey).Err()
}

func (r *BankRepository) fromCache(ctx context.Context) (*domain.Bank, bool) {
	fields, err := r.client.HGetAll(ctx, bankKey).Result()
	if err != nil || len(fields) == 0 {
		return nil, false
	}
	bank, err := buildBankFromCache(fields)
	if err != nil {
		return nil, false
	}
	return bank, true
}

// buildBankFromCache restores bank order by question id since hashes are unordered.
func buildBankFromCache(fields map[string]string) (*domain.Bank, error) {
	questions := make([]domain.Question, 0, len(fields))
	for _, raw := range fields {
		var q domain.Question
		if err := json.Unmarshal([]byte(raw), &q); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	sort.Slice(questions, func(i, j int) bool { return questions[i].ID < questions[j].ID })
	return domain.NewBank(questions)
}

func (r *BankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
