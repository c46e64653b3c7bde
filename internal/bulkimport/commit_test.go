package bulkimport_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/bulkimport"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/domain"
)

type fakeInserter struct {
	calls  [][]domain.TimesheetEntry
	failOn map[int]bool // 从 1 开始的批次号
}

func (f *fakeInserter) InsertEntries(ctx context.Context, entries []domain.TimesheetEntry) error {
	f.calls = append(f.calls, entries)
	if f.failOn[len(f.calls)] {
		return errors.New("connection reset by peer")
	}
	return nil
}

func entries(n int) []domain.TimesheetEntry {
	out := make([]domain.TimesheetEntry, n)
	for i := range out {
		out[i].ID = uuid.New()
	}
	return out
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCommit_AllBatchesSucceed(t *testing.T) {
	ins := &fakeInserter{}
	c := bulkimport.NewCommitter(ins, bulkimport.WithLogger(quietLogger()))

	result := c.Commit(context.Background(), entries(250))

	assert.Equal(t, 250, result.SuccessCount)
	assert.Zero(t, result.FailedCount)
	assert.Empty(t, result.BatchErrors)
	require.Len(t, ins.calls, 3)
	assert.Len(t, ins.calls[0], 100)
	assert.Len(t, ins.calls[2], 50)
}

func TestCommit_FailedBatchIsIsolated(t *testing.T) {
	ins := &fakeInserter{failOn: map[int]bool{2: true}}
	c := bulkimport.NewCommitter(ins, bulkimport.WithBatchSize(10), bulkimport.WithLogger(quietLogger()))

	admitted := entries(35)
	result := c.Commit(context.Background(), admitted)

	assert.Len(t, ins.calls, 4)
	assert.Equal(t, 25, result.SuccessCount)
	assert.Equal(t, 10, result.FailedCount)
	assert.Equal(t, len(admitted), result.SuccessCount+result.FailedCount)
	require.Len(t, result.BatchErrors, 1)
	assert.Equal(t, 2, result.BatchErrors[0].Batch)
	assert.Equal(t, 10, result.BatchErrors[0].Size)
	assert.Equal(t, "failed to import rows 11-20, please try again", result.BatchErrors[0].Message)
	assert.NotContains(t, result.BatchErrors[0].Message, "connection reset")
}

func TestCommit_LastShortBatchFails(t *testing.T) {
	ins := &fakeInserter{failOn: map[int]bool{3: true}}
	c := bulkimport.NewCommitter(ins, bulkimport.WithBatchSize(10), bulkimport.WithLogger(quietLogger()))

	result := c.Commit(context.Background(), entries(23))

	assert.Equal(t, 20, result.SuccessCount)
	assert.Equal(t, 3, result.FailedCount)
	assert.Equal(t, 3, result.BatchErrors[0].Size)
}

func TestCommit_IgnoresCancellation(t *testing.T) {
	ins := &fakeInserter{}
	c := bulkimport.NewCommitter(ins, bulkimport.WithBatchSize(5), bulkimport.WithRateLimit(1000), bulkimport.WithLogger(quietLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := c.Commit(ctx, entries(12))
	assert.Equal(t, 12, result.SuccessCount)
	assert.Len(t, ins.calls, 3)
}

func TestCommit_Empty(t *testing.T) {
	ins := &fakeInserter{}
	result := bulkimport.NewCommitter(ins, bulkimport.WithLogger(quietLogger())).Commit(context.Background(), nil)

	assert.Zero(t, result.SuccessCount+result.FailedCount)
	assert.Empty(t, ins.calls)
}

func TestCommit_BatchObserver(t *testing.T) {
	ins := &fakeInserter{failOn: map[int]bool{1: true}}
	var sizes []int
	var failures int
	c := bulkimport.NewCommitter(ins,
		bulkimport.WithBatchSize(4),
		bulkimport.WithLogger(quietLogger()),
		bulkimport.WithBatchObserver(func(size int, err error) {
			sizes = append(sizes, size)
			if err != nil {
				failures++
			}
		}),
	)

	c.Commit(context.Background(), entries(6))
	assert.Equal(t, []int{4, 2}, sizes)
	assert.Equal(t, 1, failures)
}
