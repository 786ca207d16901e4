package migrator

import (
	"context"
	"fmt"
	"github.com/google/uuid"
	"github.com/sleepstars/kland/internal/database"
	"github.com/sleepstars/kland/internal/mapper"
	"github.com/sleepstars/kland/internal/model"
	"github.com/sleepstars/kland/internal/source"
	"go.uber.org/zap"
	"time"
)

// Source 旧库的只读视图
type Source interface {
	Threads(ctx context.Context) ([]source.ThreadRow, error)
	Posts(ctx context.Context) ([]source.PostRow, error)
	Bans(ctx context.Context) ([]source.BanRow, error)
}

// Destination 目标库，每种实体一个事务
type Destination interface {
	Provision(ctx context.Context) error
	InsertThreads(ctx context.Context, threads []model.Thread) (int, error)
	InsertPosts(ctx context.Context, posts []model.Post) (int, error)
	InsertBans(ctx context.Context, bans []model.Ban) (int, error)
}

type Count struct {
	Read    int
	Written int
}

type Report struct {
	RunID    string
	Threads  Count
	Posts    Count
	Bans     Count
	Duration time.Duration
}

func (r *Report) count(kind model.Kind) *Count {
	switch kind {
	case model.KindThreads:
		return &r.Threads
	case model.KindPosts:
		return &r.Posts
	case model.KindBans:
		return &r.Bans
	default:
		panic(fmt.Sprintf("migrator: unknown kind %q", kind))
	}
}

// Count 返回某种实体的读写数量
func (r Report) Count(kind model.Kind) Count {
	return *r.count(kind)
}

// PhaseError 标记失败发生在哪个阶段
type PhaseError struct {
	Phase string
	Kind  model.Kind
	Err   error
}

func (e *PhaseError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("%s: %v", e.Phase, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Phase, e.Kind, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }

type Migrator struct {
	dst    Destination
	logger *zap.Logger
}

func New(dst Destination, logger *zap.Logger) *Migrator {
	return &Migrator{dst: dst, logger: logger}
}

// Provision 在读取任何数据之前建表
func (m *Migrator) Provision(ctx context.Context) error {
	m.logger.Info("creating sqlite tables")
	if err := m.dst.Provision(ctx); err != nil {
		return &PhaseError{Phase: "provision", Err: err}
	}
	return nil
}

// Migrate 依次迁移 threads、posts、bans，已提交的实体不会因后续失败回滚
func (m *Migrator) Migrate(ctx context.Context, src Source) (Report, error) {
	start := time.Now()
	report := Report{RunID: uuid.NewString()}
	logger := m.logger.With(zap.String("run_id", report.RunID))

	steps := []struct {
		kind model.Kind
		run  func(context.Context, model.Kind) (Count, error)
	}{
		{model.KindThreads, func(ctx context.Context, kind model.Kind) (Count, error) {
			return transfer(ctx, logger, kind, src.Threads, mapper.Threads, m.dst.InsertThreads)
		}},
		{model.KindPosts, func(ctx context.Context, kind model.Kind) (Count, error) {
			return transfer(ctx, logger, kind, src.Posts, mapper.Posts, m.dst.InsertPosts)
		}},
		{model.KindBans, func(ctx context.Context, kind model.Kind) (Count, error) {
			return transfer(ctx, logger, kind, src.Bans, mapper.Bans, m.dst.InsertBans)
		}},
	}

	for _, step := range steps {
		logger.Info("querying", zap.String("kind", string(step.kind)))
		c, err := step.run(ctx, step.kind)
		*report.count(step.kind) = c
		if err != nil {
			report.Duration = time.Since(start)
			logger.Error("migration aborted", zap.String("kind", string(step.kind)), zap.Error(err))
			return report, err
		}
		logger.Info("migrated",
			zap.String("kind", string(step.kind)),
			zap.Int("read", c.Read),
			zap.Int("written", c.Written))
	}

	report.Duration = time.Since(start)
	logger.Info("all complete",
		zap.Int("threads", report.Threads.Written),
		zap.Int("posts", report.Posts.Written),
		zap.Int("bans", report.Bans.Written),
		zap.Duration("duration", report.Duration))
	return report, nil
}

// transfer 读取、映射、写入一种实体，整批持有在本阶段内
func transfer[R, M any](
	ctx context.Context,
	logger *zap.Logger,
	kind model.Kind,
	read func(context.Context) ([]R, error),
	convert func([]R) ([]M, error),
	write func(context.Context, []M) (int, error),
) (Count, error) {
	var c Count

	rows, err := read(ctx)
	if err != nil {
		return c, &PhaseError{Phase: "read", Kind: kind, Err: err}
	}
	c.Read = len(rows)
	logger.Info("inserting", zap.String("kind", string(kind)), zap.Int("rows", c.Read))

	records, err := convert(rows)
	if err != nil {
		return c, &PhaseError{Phase: "map", Kind: kind, Err: err}
	}

	c.Written, err = write(ctx, records)
	if err != nil {
		return c, &PhaseError{Phase: "write", Kind: kind, Err: err}
	}
	return c, nil
}

// Config 一次迁移所需的连接信息
type Config struct {
	DestinationPath string
	SourceDSN       string
}

// Run 打开目标库并建表，然后连接源库执行迁移
func Run(ctx context.Context, cfg Config, logger *zap.Logger) (Report, error) {
	logger.Info("opening sqlite database", zap.String("path", cfg.DestinationPath))
	dst, err := database.New(cfg.DestinationPath, logger)
	if err != nil {
		return Report{}, &PhaseError{Phase: "open destination", Err: err}
	}
	defer dst.Close()

	return New(dst, logger).execute(ctx, func(ctx context.Context) (closableSource, error) {
		logger.Info("connecting to mysql")
		r, err := source.Open(ctx, cfg.SourceDSN, logger)
		if err != nil {
			return nil, err
		}
		return r, nil
	})
}

type closableSource interface {
	Source
	Close() error
}

// execute 建表成功后才打开源库，建表失败时不会读取任何数据
func (m *Migrator) execute(ctx context.Context, open func(context.Context) (closableSource, error)) (Report, error) {
	if err := m.Provision(ctx); err != nil {
		return Report{}, err
	}

	src, err := open(ctx)
	if err != nil {
		return Report{}, &PhaseError{Phase: "open source", Err: err}
	}
	defer func() {
		if err := src.Close(); err != nil {
			m.logger.Error("close source database", zap.Error(err))
		}
	}()

	return m.Migrate(ctx, src)
}
