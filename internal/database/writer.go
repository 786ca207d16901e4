package database

import (
	"context"
	"fmt"
	"github.com/sleepstars/kland/internal/model"
	"go.uber.org/zap"
)

const (
	insertThreadSQL = `INSERT INTO threads (tid, created, subject, deleted, hash)
		VALUES (?1, ?2, ?3, ?4, ?5)`
	insertPostSQL = `INSERT INTO posts (pid, tid, created, content, options,
		ipaddress, username, tripraw, image)
		VALUES (?1, ?2, ?3, ?4, ?5, ?6, ?7, ?8, ?9)`
	insertBanSQL = `INSERT INTO bans ("range", created, note)
		VALUES (?1, ?2, ?3)`
)

func (d *Database) InsertThreads(ctx context.Context, threads []model.Thread) (int, error) {
	return d.insertAll(ctx, model.KindThreads, insertThreadSQL, len(threads), func(i int) []any {
		t := threads[i]
		return []any{t.ID, t.Created, t.Subject, t.Deleted, t.Hash}
	})
}

func (d *Database) InsertPosts(ctx context.Context, posts []model.Post) (int, error) {
	return d.insertAll(ctx, model.KindPosts, insertPostSQL, len(posts), func(i int) []any {
		p := posts[i]
		return []any{p.ID, p.ThreadID, p.Created, p.Content, p.Options,
			p.IPAddress, p.Username, p.TripRaw, p.Image}
	})
}

func (d *Database) InsertBans(ctx context.Context, bans []model.Ban) (int, error) {
	return d.insertAll(ctx, model.KindBans, insertBanSQL, len(bans), func(i int) []any {
		b := bans[i]
		return []any{b.Range, b.Created, b.Note}
	})
}

// insertAll 在一个事务内用同一条预编译语句逐行插入，任一行失败则整个事务回滚
func (d *Database) insertAll(ctx context.Context, kind model.Kind, query string, n int, args func(i int) []any) (int, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin %s transaction: %w", kind, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("prepare %s insert: %w", kind, err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			if IsUniqueViolation(err) {
				return 0, fmt.Errorf("insert %s row %d: duplicate key: %w", kind, i, err)
			}
			return 0, fmt.Errorf("insert %s row %d: %w", kind, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit %s transaction: %w", kind, err)
	}

	d.logger.Debug("write unit committed", zap.String("kind", string(kind)), zap.Int("rows", n))
	return n, nil
}
