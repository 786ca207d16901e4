package source

import (
	"context"
	"database/sql"
	"fmt"
	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"net"
	"net/url"
	"strings"
)

const (
	selectThreadsSQL = "SELECT tid, created, subject, deleted, hash FROM threads"
	selectPostsSQL   = `SELECT pid, tid, created, content, options, ipaddress, username,
		tripraw, image FROM posts`
	selectBansSQL = "SELECT `range`, created, `note` FROM bans"
)

// ThreadRow 源库 threads 表的原始行
type ThreadRow struct {
	ID      sql.NullInt64
	Created sql.NullTime
	Subject sql.NullString
	Deleted sql.NullBool
	Hash    sql.NullString
}

// PostRow 源库 posts 表的原始行
type PostRow struct {
	ID        sql.NullInt64
	ThreadID  sql.NullInt64
	Created   sql.NullTime
	Content   sql.NullString
	Options   sql.NullString
	IPAddress sql.NullString
	Username  sql.NullString
	TripRaw   sql.NullString
	Image     sql.NullString
}

// BanRow 源库 bans 表的原始行
type BanRow struct {
	Range   sql.NullString
	Created sql.NullTime
	Note    sql.NullString
}

// Reader 只读访问旧论坛库
type Reader struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open 连接 MySQL 源库，dsn 可以是 mysql:// URL 或驱动原生格式
func Open(ctx context.Context, dsn string, logger *zap.Logger) (*Reader, error) {
	normalized, err := NormalizeDSN(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", normalized)
	if err != nil {
		return nil, fmt.Errorf("open source database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect source database: %w", err)
	}

	return NewReader(db, logger), nil
}

func NewReader(db *sql.DB, logger *zap.Logger) *Reader {
	return &Reader{db: db, logger: logger}
}

// NormalizeDSN 转换为驱动格式并强制 parseTime
func NormalizeDSN(raw string) (string, error) {
	var cfg *mysql.Config
	if strings.HasPrefix(raw, "mysql://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", fmt.Errorf("parse source url: %w", err)
		}
		cfg = mysql.NewConfig()
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
		cfg.Net = "tcp"
		cfg.Addr = u.Host
		if u.Port() == "" {
			cfg.Addr = net.JoinHostPort(u.Hostname(), "3306")
		}
		cfg.DBName = strings.TrimPrefix(u.Path, "/")
		for k, vs := range u.Query() {
			// parseTime 必须开启，忽略 URL 中的值
			if len(vs) == 0 || strings.EqualFold(k, "parseTime") {
				continue
			}
			if cfg.Params == nil {
				cfg.Params = make(map[string]string)
			}
			cfg.Params[k] = vs[0]
		}
	} else {
		var err error
		cfg, err = mysql.ParseDSN(raw)
		if err != nil {
			return "", fmt.Errorf("parse source dsn: %w", err)
		}
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

func (r *Reader) Threads(ctx context.Context) ([]ThreadRow, error) {
	return queryAll(ctx, r, "threads", selectThreadsSQL, func(rows *sql.Rows, t *ThreadRow) error {
		return rows.Scan(&t.ID, &t.Created, &t.Subject, &t.Deleted, &t.Hash)
	})
}

func (r *Reader) Posts(ctx context.Context) ([]PostRow, error) {
	return queryAll(ctx, r, "posts", selectPostsSQL, func(rows *sql.Rows, p *PostRow) error {
		return rows.Scan(&p.ID, &p.ThreadID, &p.Created, &p.Content, &p.Options,
			&p.IPAddress, &p.Username, &p.TripRaw, &p.Image)
	})
}

func (r *Reader) Bans(ctx context.Context) ([]BanRow, error) {
	return queryAll(ctx, r, "bans", selectBansSQL, func(rows *sql.Rows, b *BanRow) error {
		return rows.Scan(&b.Range, &b.Created, &b.Note)
	})
}

// queryAll 读取整张表，任何一行扫描失败都放弃整个结果集
func queryAll[T any](ctx context.Context, r *Reader, table, query string, scan func(*sql.Rows, *T) error) ([]T, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var row T
		if err := scan(rows, &row); err != nil {
			return nil, fmt.Errorf("scan %s row %d: %w", table, len(out), err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}

	r.logger.Debug("source table read", zap.String("table", table), zap.Int("rows", len(out)))
	return out, nil
}

func (r *Reader) Close() error {
	return r.db.Close()
}
