package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"practicecoach/internal/model"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestDraftCacheRoundTrip(t *testing.T) {
	mr, client := newTestRedis(t)
	drafts := NewDraftCache(client, time.Hour)
	ctx := context.Background()

	got, err := drafts.Load(ctx, "s1")
	if err != nil || got != nil {
		t.Fatalf("expected empty draft, got %+v, %v", got, err)
	}

	saved := &model.DraftSnapshot{
		DraftPayload: model.DraftPayload{
			CurrentIndex: 2,
			Mode:         model.ModeText,
			Answers:      map[string]string{"q1": "first draft"},
		},
		SavedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	if err := drafts.Save(ctx, "s1", saved); err != nil {
		t.Fatalf("save: %v", err)
	}
	if ttl := mr.TTL("session:s1:draft"); ttl != time.Hour {
		t.Fatalf("expected ttl of 1h, got %v", ttl)
	}

	got, err = drafts.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.CurrentIndex != 2 || got.Answers["q1"] != "first draft" || !got.SavedAt.Equal(saved.SavedAt) {
		t.Fatalf("unexpected draft: %+v", got)
	}

	if err := drafts.Clear(ctx, "s1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got, _ := drafts.Load(ctx, "s1"); got != nil {
		t.Fatalf("expected draft to be cleared, got %+v", got)
	}
}

func TestDraftCacheExpires(t *testing.T) {
	mr, client := newTestRedis(t)
	drafts := NewDraftCache(client, time.Minute)
	ctx := context.Background()

	if err := drafts.Save(ctx, "s1", &model.DraftSnapshot{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	if got, _ := drafts.Load(ctx, "s1"); got != nil {
		t.Fatalf("expected draft to expire, got %+v", got)
	}
}

func TestSessionLockerExclusive(t *testing.T) {
	_, client := newTestRedis(t)
	locker := NewSessionLocker(client, time.Minute)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "s1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	if _, err := locker.Acquire(ctx, "s1"); !errors.Is(err, ErrLockHeld) {
		t.Fatalf("expected ErrLockHeld, got %v", err)
	}

	other, err := locker.Acquire(ctx, "s2")
	if err != nil {
		t.Fatalf("expected independent lock for another session: %v", err)
	}
	defer other(ctx)

	if err := release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	again, err := locker.Acquire(ctx, "s1")
	if err != nil {
		t.Fatalf("expected lock to be free after release: %v", err)
	}
	defer again(ctx)
}

func TestSessionLockerReleaseKeepsForeignLock(t *testing.T) {
	mr, client := newTestRedis(t)
	locker := NewSessionLocker(client, time.Minute)
	ctx := context.Background()

	stale, err := locker.Acquire(ctx, "s1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	// The first holder's lock expires and someone else takes it.
	mr.FastForward(2 * time.Minute)
	if _, err := locker.Acquire(ctx, "s1"); err != nil {
		t.Fatalf("expected expired lock to be reacquired: %v", err)
	}

	if err := stale(ctx); err != nil {
		t.Fatalf("stale release: %v", err)
	}
	if !mr.Exists("session:s1:lock") {
		t.Fatalf("stale release must not delete the new holder's lock")
	}
}

func TestSessionLockerReleaseAfterDeadline(t *testing.T) {
	mr, client := newTestRedis(t)
	locker := NewSessionLocker(client, 5*time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	release, err := locker.Acquire(ctx, "s1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	<-ctx.Done()

	if err := release(ctx); err != nil {
		t.Fatalf("release after the run deadline: %v", err)
	}
	if mr.Exists("session:s1:lock") {
		t.Fatalf("lock must be gone after release")
	}

	again, err := locker.Acquire(context.Background(), "s1")
	if err != nil {
		t.Fatalf("expected retry to take the lock, got %v", err)
	}
	defer again(context.Background())
}
