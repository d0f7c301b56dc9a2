// Copyright (c) 2026 Synapse Learn. All rights reserved.
// Author: dev@synapselearn.app

package progress

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synapselearn/synapse/internal/platform/apperr"
)

// fakeRepository implements Repository with the same upsert keys as the
// real schema.
type fakeRepository struct {
	mu          sync.Mutex
	nextID      int64
	steps       map[[2]interface{}]*StepRecord // keyed by (taskType, stepIndex) per user in tests
	completions map[string]*TaskCompletion
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		steps:       make(map[[2]interface{}]*StepRecord),
		completions: make(map[string]*TaskCompletion),
	}
}

func (r *fakeRepository) UpsertStep(_ context.Context, record *StepRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := [2]interface{}{record.TaskType, record.StepIndex}
	now := time.Now()

	if existing, ok := r.steps[key]; ok {
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
	} else {
		r.nextID++
		record.ID = r.nextID
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	if record.Completed {
		record.CompletedAt = &now
	} else {
		record.CompletedAt = nil
	}

	clone := *record
	r.steps[key] = &clone
	return nil
}

func (r *fakeRepository) ListSteps(_ context.Context, userID int64, taskType string) ([]StepRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := make([]StepRecord, 0)
	for _, record := range r.steps {
		if record.UserID != userID {
			continue
		}
		if taskType != "" && record.TaskType != taskType {
			continue
		}
		records = append(records, *record)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].TaskType != records[j].TaskType {
			return records[i].TaskType < records[j].TaskType
		}
		return records[i].StepIndex < records[j].StepIndex
	})
	return records, nil
}

func (r *fakeRepository) UpsertCompletion(_ context.Context, completion *TaskCompletion) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if existing, ok := r.completions[completion.TaskType]; ok {
		completion.ID = existing.ID
		completion.StartedAt = existing.StartedAt
		completion.CreatedAt = existing.CreatedAt
	} else {
		r.nextID++
		completion.ID = r.nextID
		completion.StartedAt = &now
		completion.CreatedAt = now
	}
	completion.UpdatedAt = now
	if completion.Completed {
		completion.CompletedAt = &now
	} else {
		completion.CompletedAt = nil
	}

	clone := *completion
	r.completions[completion.TaskType] = &clone
	return nil
}

func (r *fakeRepository) ListCompletions(_ context.Context, userID int64) ([]TaskCompletion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	completions := make([]TaskCompletion, 0)
	for _, completion := range r.completions {
		if completion.UserID == userID {
			completions = append(completions, *completion)
		}
	}
	sort.Slice(completions, func(i, j int) bool {
		return completions[i].TaskType < completions[j].TaskType
	})
	return completions, nil
}

func newTestService() (*Service, *fakeRepository) {
	repository := newFakeRepository()
	return NewService(repository, slog.New(slog.NewTextHandler(io.Discard, nil))), repository
}

/*
TestService_RecordStep verifies validation, trimming, and idempotent upsert.
*/
func TestService_RecordStep(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	t.Run("records_and_lists", func(t *testing.T) {
		record := &StepRecord{
			UserID:    1,
			TaskType:  "  lstm  ",
			StepIndex: 0,
			StepName:  "build_embedding",
		}
		require.NoError(t, service.RecordStep(ctx, record))
		assert.Equal(t, "lstm", record.TaskType)

		steps, err := service.Steps(ctx, 1, "lstm")
		require.NoError(t, err)
		require.Len(t, steps, 1)
		assert.Equal(t, "build_embedding", steps[0].StepName)
		assert.False(t, steps[0].Completed)
	})

	t.Run("upsert_replaces_same_step", func(t *testing.T) {
		record := &StepRecord{
			UserID:    1,
			TaskType:  "lstm",
			StepIndex: 0,
			StepName:  "build_embedding",
			Completed: true,
		}
		require.NoError(t, service.RecordStep(ctx, record))
		assert.NotNil(t, record.CompletedAt)

		steps, err := service.Steps(ctx, 1, "lstm")
		require.NoError(t, err)
		require.Len(t, steps, 1)
		assert.True(t, steps[0].Completed)
	})

	t.Run("rejects_missing_task_type", func(t *testing.T) {
		err := service.RecordStep(ctx, &StepRecord{UserID: 1, StepIndex: 0})
		require.Error(t, err)

		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, http.StatusBadRequest, ae.HTTPStatus)
	})

	t.Run("rejects_negative_step_index", func(t *testing.T) {
		err := service.RecordStep(ctx, &StepRecord{UserID: 1, TaskType: "lstm", StepIndex: -1})
		require.Error(t, err)
		assert.True(t, apperr.IsAppError(err))
	})
}

/*
TestService_Steps_Filter verifies the optional task filter and ordering.
*/
func TestService_Steps_Filter(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	for _, seed := range []struct {
		task string
		idx  int
	}{
		{"transformer", 1},
		{"lstm", 0},
		{"lstm", 1},
	} {
		require.NoError(t, service.RecordStep(ctx, &StepRecord{
			UserID: 7, TaskType: seed.task, StepIndex: seed.idx,
		}))
	}

	all, err := service.Steps(ctx, 7, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "lstm", all[0].TaskType)
	assert.Equal(t, 0, all[0].StepIndex)
	assert.Equal(t, "transformer", all[2].TaskType)

	filtered, err := service.Steps(ctx, 7, "lstm")
	require.NoError(t, err)
	assert.Len(t, filtered, 2)

	// Other users see nothing.
	other, err := service.Steps(ctx, 8, "")
	require.NoError(t, err)
	assert.Empty(t, other)
}

/*
TestService_RecordCompletion verifies rate bounds and started_at retention.
*/
func TestService_RecordCompletion(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	t.Run("records_rollup", func(t *testing.T) {
		completion := &TaskCompletion{
			UserID:         1,
			TaskType:       "lstm",
			CompletionRate: 0.5,
		}
		require.NoError(t, service.RecordCompletion(ctx, completion))
		require.NotNil(t, completion.StartedAt)

		firstStart := *completion.StartedAt

		// A later update keeps the original start time.
		update := &TaskCompletion{
			UserID:         1,
			TaskType:       "lstm",
			Completed:      true,
			CompletionRate: 1,
		}
		require.NoError(t, service.RecordCompletion(ctx, update))
		require.NotNil(t, update.StartedAt)
		assert.Equal(t, firstStart, *update.StartedAt)
		assert.NotNil(t, update.CompletedAt)

		rollups, err := service.Completions(ctx, 1)
		require.NoError(t, err)
		require.Len(t, rollups, 1)
		assert.InDelta(t, 1.0, rollups[0].CompletionRate, 0.0001)
	})

	t.Run("rejects_out_of_range_rate", func(t *testing.T) {
		for _, rate := range []float64{-0.1, 1.1} {
			err := service.RecordCompletion(ctx, &TaskCompletion{
				UserID: 1, TaskType: "lstm", CompletionRate: rate,
			})
			require.Error(t, err)
			assert.True(t, apperr.IsAppError(err))
		}
	})

	t.Run("rejects_missing_task_type", func(t *testing.T) {
		err := service.RecordCompletion(ctx, &TaskCompletion{UserID: 1, CompletionRate: 0.5})
		require.Error(t, err)
	})
}
