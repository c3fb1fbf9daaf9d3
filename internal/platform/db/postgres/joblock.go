package postgres

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// lockSession は 1 本のデータベースセッションです。アドバイザリロックは
// セッションスコープのため、取得と解放は同一セッション上で行う必要があります。
type lockSession interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Release()
}

// sessionAcquirer はプールから専用セッションを 1 本払い出します。
type sessionAcquirer interface {
	Acquire(ctx context.Context) (lockSession, error)
}

type poolAcquirer struct {
	pool *pgxpool.Pool
}

func (p poolAcquirer) Acquire(ctx context.Context) (lockSession, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// JobLock は PostgreSQL のアドバイザリロックでジョブ単位の相互排他を提供します。
// 同名ジョブの実行が重なった場合、後発はスキップされます (待機しません)。
type JobLock struct {
	pool   sessionAcquirer
	logger *slog.Logger
}

// NewJobLock は JobLock を生成します。
func NewJobLock(pool *pgxpool.Pool, logger *slog.Logger) *JobLock {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobLock{pool: poolAcquirer{pool: pool}, logger: logger}
}

// WithLock はジョブ名に対するロックを試行し、取得できた場合のみ fn を実行します。
// maxHold を超えた fn はコンテキストのキャンセルで打ち切られます。
// ロックが取れなかった場合は (false, nil) を返します。
func (l *JobLock) WithLock(ctx context.Context, jobName string, maxHold time.Duration, fn func(context.Context) error) (bool, error) {
	key := lockKey(jobName)

	// プール経由で発行するとロックとアンロックが別セッションに分かれ、
	// 取得側の接続がロックを保持したままプールへ戻ってしまう。
	// 実行パス全体で接続を 1 本占有し、その上でロックと解放を行う。
	session, err := l.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("postgres: acquire session for job lock %s: %w", jobName, err)
	}
	defer session.Release()

	var acquired bool
	row := session.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, key)
	if err := row.Scan(&acquired); err != nil {
		return false, fmt.Errorf("postgres: acquire job lock %s: %w", jobName, err)
	}
	if !acquired {
		l.logger.Info("job lock held elsewhere, skipping run", slog.String("job", jobName))
		return false, nil
	}

	defer func() {
		// ロック解放はベストエフォート。解放に失敗してもセッションごと
		// 接続が破棄されればロックは消える。
		var released bool
		row := session.QueryRow(context.WithoutCancel(ctx), `SELECT pg_advisory_unlock($1)`, key)
		if err := row.Scan(&released); err != nil || !released {
			l.logger.Warn("failed to release job lock", slog.String("job", jobName))
		}
	}()

	runCtx := ctx
	if maxHold > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, maxHold)
		defer cancel()
	}

	return true, fn(runCtx)
}

// lockKey はジョブ名を pg_advisory_lock のキー空間へ写像します。
func lockKey(jobName string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("onboarding-checklist/" + jobName))
	return int64(h.Sum64())
}
