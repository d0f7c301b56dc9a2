// Copyright (c) 2026 Synapse Learn. All rights reserved.
// Author: dev@synapselearn.app

package progress

import (
	"context"
	"log/slog"
	"strings"

	"github.com/synapselearn/synapse/internal/platform/validate"
)

// # Service

// Service implements the progress tracking business logic.
type Service struct {
	repository Repository
	logger     *slog.Logger
}

// NewService creates a new progress service.
func NewService(repository Repository, logger *slog.Logger) *Service {
	return &Service{
		repository: repository,
		logger:     logger,
	}
}

/*
RecordStep validates and persists one step of a guided task.

Parameters:
  - context: context.Context
  - record: *StepRecord (UserID set by the caller from the verified identity)

Returns:
  - error: Validation or persistence failures
*/
func (service *Service) RecordStep(context context.Context, record *StepRecord) error {
	record.TaskType = strings.TrimSpace(record.TaskType)
	record.StepName = strings.TrimSpace(record.StepName)

	validator := &validate.Validator{}
	validator.
		Required(FieldTaskType, record.TaskType).
		Range(FieldStepIndex, record.StepIndex, 0, stepIndexMax)
	if err := validator.Err(); err != nil {
		return err
	}

	if err := service.repository.UpsertStep(context, record); err != nil {
		return err
	}

	service.logger.DebugContext(context, "progress_step_recorded",
		slog.Int64("user_id", record.UserID),
		slog.String("task_type", record.TaskType),
		slog.Int("step_index", record.StepIndex),
	)

	return nil
}

/*
Steps returns the user's step records, optionally filtered by task type.

Parameters:
  - context: context.Context
  - userID: int64
  - taskType: string (empty for all tasks)

Returns:
  - []StepRecord: Ordered snapshot
  - error: Retrieval failures
*/
func (service *Service) Steps(context context.Context, userID int64, taskType string) ([]StepRecord, error) {
	return service.repository.ListSteps(context, userID, strings.TrimSpace(taskType))
}

/*
RecordCompletion validates and persists a per-task rollup.

Parameters:
  - context: context.Context
  - completion: *TaskCompletion (UserID set by the caller)

Returns:
  - error: Validation or persistence failures
*/
func (service *Service) RecordCompletion(context context.Context, completion *TaskCompletion) error {
	completion.TaskType = strings.TrimSpace(completion.TaskType)

	validator := &validate.Validator{}
	validator.
		Required(FieldTaskType, completion.TaskType).
		Custom(FieldCompletionRate, completion.CompletionRate < 0 || completion.CompletionRate > 1, "Must be between 0 and 1")
	if err := validator.Err(); err != nil {
		return err
	}

	if err := service.repository.UpsertCompletion(context, completion); err != nil {
		return err
	}

	service.logger.DebugContext(context, "progress_completion_recorded",
		slog.Int64("user_id", completion.UserID),
		slog.String("task_type", completion.TaskType),
		slog.Float64("completion_rate", completion.CompletionRate),
	)

	return nil
}

/*
Completions returns all task rollups for the user.

Parameters:
  - context: context.Context
  - userID: int64

Returns:
  - []TaskCompletion: Ordered snapshot
  - error: Retrieval failures
*/
func (service *Service) Completions(context context.Context, userID int64) ([]TaskCompletion, error) {
	return service.repository.ListCompletions(context, userID)
}

// stepIndexMax bounds step_index to a sane range for hand-authored tasks.
const stepIndexMax = 10_000
