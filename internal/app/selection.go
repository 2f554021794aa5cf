package app

import (
	"fmt"
	"math/rand"
	"time"

	"driving-exam-service/internal/domain"
)

// SelectRandomQuestions draws selectCount distinct ids from 1..totalQuestions.
// The full range is Fisher-Yates shuffled and the prefix is returned, so every
// ordering is equally likely for an unbiased source.
func SelectRandomQuestions(rnd *rand.Rand, totalQuestions, selectCount int) ([]int, error) {
	if totalQuestions < 0 || selectCount < 0 || selectCount > totalQuestions {
		return nil, fmt.Errorf("%w: select %d of %d", domain.ErrInvalidSelection, selectCount, totalQuestions)
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	ids := make([]int, totalQuestions)
	for i := range ids {
		ids[i] = i + 1
	}
	for i := len(ids) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		ids[i], ids[j] = ids[j], ids[i]
	}
	return ids[:selectCount:selectCount], nil
}
