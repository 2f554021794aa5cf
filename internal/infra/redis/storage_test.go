package redis

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"

	"driving-exam-service/internal/app"
	"driving-exam-service/internal/domain"
)

func TestStorageBacksHistory(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	storage := NewStorage(newClient(mr), "exam:kv:")

	if _, ok, err := storage.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected miss without error, got ok=%v err=%v", ok, err)
	}

	history := app.NewHistory(storage, 2)
	for i := 1; i <= 3; i++ {
		if err := history.SaveResult(ctx, domain.ExamResult{SessionID: string(rune('a' + i - 1)), CorrectCount: i}); err != nil {
			t.Fatalf("save result: %v", err)
		}
	}
	if !mr.Exists("exam:kv:examHistory") {
		t.Fatalf("expected history key in redis")
	}

	results, err := history.ListResults(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(results) != 2 || results[0].SessionID != "c" || results[1].SessionID != "b" {
		t.Fatalf("expected newest two results, got %+v", results)
	}

	if err := history.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if mr.Exists("exam:kv:examHistory") {
		t.Fatalf("expected history key removed")
	}
}
