// Copyright (c) 2026 Synapse Learn. All rights reserved.
// Author: dev@synapselearn.app

// PostgreSQL implementation of the progress storage contract.

package progress

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements the Repository interface using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL implementation of the Repository.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

/*
UpsertStep inserts or replaces a step record.

Description: ON CONFLICT on (user_id, task_type, step_index) keeps the
operation idempotent for clients that re-send progress after a reconnect.

Parameters:
  - context: context.Context
  - record: *StepRecord

Returns:
  - error: Execution errors
*/
func (repository *PostgresRepository) UpsertStep(context context.Context, record *StepRecord) error {
	const query = `
		INSERT INTO user_progress (user_id, task_type, step_index, step_name, completed, completed_at)
		VALUES ($1, $2, $3, $4, $5, CASE WHEN $5 THEN NOW() END)
		ON CONFLICT (user_id, task_type, step_index) DO UPDATE
		SET step_name    = EXCLUDED.step_name,
		    completed    = EXCLUDED.completed,
		    completed_at = EXCLUDED.completed_at,
		    updated_at   = NOW()
		RETURNING id, completed_at, created_at, updated_at`

	err := repository.pool.QueryRow(context, query,
		record.UserID,
		record.TaskType,
		record.StepIndex,
		record.StepName,
		record.Completed,
	).Scan(&record.ID, &record.CompletedAt, &record.CreatedAt, &record.UpdatedAt)

	if err != nil {
		return fmt.Errorf("postgres_progress_repo_upsert_step_failed: %w", err)
	}

	return nil
}

/*
ListSteps returns the user's step records ordered by task type and step index.

Parameters:
  - context: context.Context
  - userID: int64
  - taskType: string (empty for all tasks)

Returns:
  - []StepRecord: Ordered snapshot
  - error: Retrieval failures
*/
func (repository *PostgresRepository) ListSteps(context context.Context, userID int64, taskType string) ([]StepRecord, error) {
	const queryAll = `
		SELECT id, user_id, task_type, step_index, step_name, completed, completed_at, created_at, updated_at
		FROM user_progress
		WHERE user_id = $1
		ORDER BY task_type, step_index ASC`

	const queryByTask = `
		SELECT id, user_id, task_type, step_index, step_name, completed, completed_at, created_at, updated_at
		FROM user_progress
		WHERE user_id = $1 AND task_type = $2
		ORDER BY step_index ASC`

	var rows pgx.Rows
	var err error
	if taskType == "" {
		rows, err = repository.pool.Query(context, queryAll, userID)
	} else {
		rows, err = repository.pool.Query(context, queryByTask, userID, taskType)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres_progress_repo_list_steps_failed: %w", err)
	}
	defer rows.Close()

	records := make([]StepRecord, 0)
	for rows.Next() {
		var record StepRecord
		if err := rows.Scan(
			&record.ID,
			&record.UserID,
			&record.TaskType,
			&record.StepIndex,
			&record.StepName,
			&record.Completed,
			&record.CompletedAt,
			&record.CreatedAt,
			&record.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres_progress_repo_scan_step_failed: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_progress_repo_list_steps_failed: %w", err)
	}

	return records, nil
}

/*
UpsertCompletion inserts or updates a per-task rollup.

Description: started_at is stamped on first insert and preserved on update;
completed_at follows the completed flag.

Parameters:
  - context: context.Context
  - completion: *TaskCompletion

Returns:
  - error: Execution errors
*/
func (repository *PostgresRepository) UpsertCompletion(context context.Context, completion *TaskCompletion) error {
	const query = `
		INSERT INTO user_task_completion (user_id, task_type, completed, completion_rate, started_at, completed_at)
		VALUES ($1, $2, $3, $4, NOW(), CASE WHEN $3 THEN NOW() END)
		ON CONFLICT (user_id, task_type) DO UPDATE
		SET completed       = EXCLUDED.completed,
		    completion_rate = EXCLUDED.completion_rate,
		    completed_at    = EXCLUDED.completed_at,
		    updated_at      = NOW()
		RETURNING id, started_at, completed_at, created_at, updated_at`

	err := repository.pool.QueryRow(context, query,
		completion.UserID,
		completion.TaskType,
		completion.Completed,
		completion.CompletionRate,
	).Scan(&completion.ID, &completion.StartedAt, &completion.CompletedAt, &completion.CreatedAt, &completion.UpdatedAt)

	if err != nil {
		return fmt.Errorf("postgres_progress_repo_upsert_completion_failed: %w", err)
	}

	return nil
}

/*
ListCompletions returns all task rollups for the user ordered by task type.

Parameters:
  - context: context.Context
  - userID: int64

Returns:
  - []TaskCompletion: Ordered snapshot
  - error: Retrieval failures
*/
func (repository *PostgresRepository) ListCompletions(context context.Context, userID int64) ([]TaskCompletion, error) {
	const query = `
		SELECT id, user_id, task_type, completed, completion_rate, started_at, completed_at, created_at, updated_at
		FROM user_task_completion
		WHERE user_id = $1
		ORDER BY task_type`

	rows, err := repository.pool.Query(context, query, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres_progress_repo_list_completions_failed: %w", err)
	}
	defer rows.Close()

	completions := make([]TaskCompletion, 0)
	for rows.Next() {
		var completion TaskCompletion
		if err := rows.Scan(
			&completion.ID,
			&completion.UserID,
			&completion.TaskType,
			&completion.Completed,
			&completion.CompletionRate,
			&completion.StartedAt,
			&completion.CompletedAt,
			&completion.CreatedAt,
			&completion.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres_progress_repo_scan_completion_failed: %w", err)
		}
		completions = append(completions, completion)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_progress_repo_list_completions_failed: %w", err)
	}

	return completions, nil
}
