package bulkimport

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sysu-ecnc-dev/timesheet/backend/internal/domain"
	"golang.org/x/time/rate"
)

const DefaultBatchSize = 100

// Inserter 一次写入一批记录，整批成功或整批失败
type Inserter interface {
	InsertEntries(ctx context.Context, entries []domain.TimesheetEntry) error
}

type Committer struct {
	inserter  Inserter
	batchSize int
	limiter   *rate.Limiter
	logger    *slog.Logger
	onBatch   func(size int, err error)
}

type CommitterOption func(*Committer)

func WithBatchSize(size int) CommitterOption {
	return func(c *Committer) {
		if size > 0 {
			c.batchSize = size
		}
	}
}

// WithRateLimit 限制每秒开始的批次数，perSecond <= 0 时不限速
func WithRateLimit(perSecond float64) CommitterOption {
	return func(c *Committer) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

func WithLogger(logger *slog.Logger) CommitterOption {
	return func(c *Committer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithBatchObserver 在每一批写入结束后回调，用于统计指标
func WithBatchObserver(fn func(size int, err error)) CommitterOption {
	return func(c *Committer) {
		c.onBatch = fn
	}
}

func NewCommitter(inserter Inserter, opts ...CommitterOption) *Committer {
	c := &Committer{
		inserter:  inserter,
		batchSize: DefaultBatchSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Commit 按顺序分批写入，上一批返回后才开始下一批。
// 某一批失败只记录错误并继续后面的批次，已经写入的批次不会回滚。
// SuccessCount + FailedCount 总是等于 len(entries)。
func (c *Committer) Commit(ctx context.Context, entries []domain.TimesheetEntry) domain.CommitResult {
	// 导入一旦开始就不随请求取消而中断
	ctx = context.WithoutCancel(ctx)

	result := domain.CommitResult{BatchErrors: make([]domain.BatchError, 0)}
	for start, index := 0, 1; start < len(entries); start, index = start+c.batchSize, index+1 {
		end := min(start+c.batchSize, len(entries))
		chunk := entries[start:end]

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				c.logger.Warn("批次限速等待失败", "batch", index, "error", err)
			}
		}

		err := c.inserter.InsertEntries(ctx, chunk)
		if c.onBatch != nil {
			c.onBatch(len(chunk), err)
		}
		if err != nil {
			c.logger.Error("批量写入失败", "batch", index, "size", len(chunk), "error", err)
			result.FailedCount += len(chunk)
			result.BatchErrors = append(result.BatchErrors, domain.BatchError{
				Batch:   index,
				Size:    len(chunk),
				Message: fmt.Sprintf("failed to import rows %d-%d, please try again", start+1, end),
			})
			continue
		}
		result.SuccessCount += len(chunk)
	}

	c.logger.Info("批量导入完成", "success", result.SuccessCount, "failed", result.FailedCount, "batches", (len(entries)+c.batchSize-1)/c.batchSize)
	return result
}
