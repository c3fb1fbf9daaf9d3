package postgres

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
)

type fakeLockRow struct {
	val bool
	err error
}

func (r fakeLockRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if b, ok := dest[0].(*bool); ok {
		*b = r.val
	}
	return nil
}

type fakeLockSession struct {
	tryResult bool
	unlockVal bool
	unlockErr error
	queries   []string
	args      [][]any
	released  bool
}

func (s *fakeLockSession) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	s.queries = append(s.queries, sql)
	s.args = append(s.args, args)
	if strings.Contains(sql, "pg_try_advisory_lock") {
		return fakeLockRow{val: s.tryResult}
	}
	return fakeLockRow{val: s.unlockVal, err: s.unlockErr}
}

func (s *fakeLockSession) Release() {
	s.released = true
}

type fakeLockPool struct {
	session    *fakeLockSession
	acquireErr error
	acquires   int
}

func (p *fakeLockPool) Acquire(ctx context.Context) (lockSession, error) {
	p.acquires++
	if p.acquireErr != nil {
		return nil, p.acquireErr
	}
	return p.session, nil
}

func newTestJobLock(pool sessionAcquirer) *JobLock {
	return &JobLock{pool: pool, logger: slog.Default()}
}

func TestJobLock_WithLock_RunsWhenAcquired(t *testing.T) {
	t.Parallel()

	session := &fakeLockSession{tryResult: true, unlockVal: true}
	pool := &fakeLockPool{session: session}
	lock := newTestJobLock(pool)

	ran := false
	acquired, err := lock.WithLock(context.Background(), "import-checklists", time.Minute, func(ctx context.Context) error {
		ran = true
		if _, ok := ctx.Deadline(); !ok {
			t.Error("expected max hold deadline on run context")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithLock returned error: %v", err)
	}
	if !acquired || !ran {
		t.Fatalf("expected lock acquired and fn run, got acquired=%v ran=%v", acquired, ran)
	}
	if !session.released {
		t.Fatal("expected session to be released")
	}
}

func TestJobLock_WithLock_LockAndUnlockShareOneSession(t *testing.T) {
	t.Parallel()

	// アドバイザリロックはセッションスコープ。取得と解放が別々の
	// プール接続に分かれると、取得側の接続がロックを持ったまま
	// プールへ戻り、以後の同名ジョブが全てスキップされる。
	session := &fakeLockSession{tryResult: true, unlockVal: true}
	pool := &fakeLockPool{session: session}
	lock := newTestJobLock(pool)

	if _, err := lock.WithLock(context.Background(), "import-checklists", time.Minute, func(context.Context) error {
		return nil
	}); err != nil {
		t.Fatalf("WithLock returned error: %v", err)
	}

	if pool.acquires != 1 {
		t.Fatalf("expected exactly one session acquired, got %d", pool.acquires)
	}
	if len(session.queries) != 2 {
		t.Fatalf("expected lock and unlock on the same session, got queries %v", session.queries)
	}
	if !strings.Contains(session.queries[0], "pg_try_advisory_lock") {
		t.Errorf("expected first statement to acquire the lock, got %q", session.queries[0])
	}
	if !strings.Contains(session.queries[1], "pg_advisory_unlock") {
		t.Errorf("expected second statement to release the lock, got %q", session.queries[1])
	}

	key := lockKey("import-checklists")
	for i, args := range session.args {
		if len(args) != 1 || args[0] != key {
			t.Errorf("statement %d: expected lock key %d, got %v", i, key, args)
		}
	}
}

func TestJobLock_WithLock_SkipsWhenHeldElsewhere(t *testing.T) {
	t.Parallel()

	session := &fakeLockSession{tryResult: false}
	pool := &fakeLockPool{session: session}
	lock := newTestJobLock(pool)

	acquired, err := lock.WithLock(context.Background(), "lock-expired", time.Minute, func(context.Context) error {
		t.Fatal("fn must not run without the lock")
		return nil
	})
	if err != nil {
		t.Fatalf("WithLock returned error: %v", err)
	}
	if acquired {
		t.Fatal("expected acquired=false")
	}

	if len(session.queries) != 1 {
		t.Fatalf("expected no unlock when the lock was not taken, got queries %v", session.queries)
	}
	if !session.released {
		t.Fatal("expected session to be released back to the pool")
	}
}

func TestJobLock_WithLock_AcquireSessionError(t *testing.T) {
	t.Parallel()

	pool := &fakeLockPool{acquireErr: errors.New("pool exhausted")}
	lock := newTestJobLock(pool)

	acquired, err := lock.WithLock(context.Background(), "purge-audit", time.Minute, func(context.Context) error {
		t.Fatal("fn must not run without a session")
		return nil
	})
	if acquired || err == nil {
		t.Fatalf("expected error without lock, got acquired=%v err=%v", acquired, err)
	}
}

func TestJobLock_WithLock_FnErrorPropagates(t *testing.T) {
	t.Parallel()

	session := &fakeLockSession{tryResult: true, unlockVal: true}
	pool := &fakeLockPool{session: session}
	lock := newTestJobLock(pool)

	wantErr := errors.New("pass failed")
	acquired, err := lock.WithLock(context.Background(), "purge-audit", 0, func(context.Context) error {
		return wantErr
	})
	if !acquired || !errors.Is(err, wantErr) {
		t.Fatalf("expected acquired with fn error, got acquired=%v err=%v", acquired, err)
	}
	if len(session.queries) != 2 || !session.released {
		t.Fatalf("expected unlock and release even on fn error, got queries=%v released=%v", session.queries, session.released)
	}
}

func TestJobLock_WithLock_UnlockFailureStillReleasesSession(t *testing.T) {
	t.Parallel()

	session := &fakeLockSession{tryResult: true, unlockErr: errors.New("connection gone")}
	pool := &fakeLockPool{session: session}
	lock := newTestJobLock(pool)

	acquired, err := lock.WithLock(context.Background(), "send-notifications", time.Minute, func(context.Context) error {
		return nil
	})
	if !acquired || err != nil {
		t.Fatalf("expected successful run despite unlock failure, got acquired=%v err=%v", acquired, err)
	}
	if !session.released {
		t.Fatal("expected session to be released even when unlock fails")
	}
}

func TestLockKey_Stable(t *testing.T) {
	t.Parallel()

	if lockKey("import-checklists") != lockKey("import-checklists") {
		t.Fatal("expected stable key for same job name")
	}
	if lockKey("import-checklists") == lockKey("lock-expired") {
		t.Fatal("expected distinct keys for different job names")
	}
}
