// Copyright (c) 2026 Synapse Learn. All rights reserved.
// Author: dev@synapselearn.app

package progress

import "context"

// Repository defines the data access contract for learning-progress records.
type Repository interface {

	/*
		UpsertStep inserts or replaces the step record identified by
		(userID, taskType, stepIndex).

		Parameters:
		  - context: context.Context
		  - record: *StepRecord

		Returns:
		  - error: Persistence failures
	*/
	UpsertStep(context context.Context, record *StepRecord) error

	/*
		ListSteps returns the user's step records ordered by task type and
		step index. An empty taskType returns steps for all tasks.

		Parameters:
		  - context: context.Context
		  - userID: int64
		  - taskType: string (optional filter)

		Returns:
		  - []StepRecord: Ordered snapshot
		  - error: Retrieval failures
	*/
	ListSteps(context context.Context, userID int64, taskType string) ([]StepRecord, error)

	/*
		UpsertCompletion inserts or updates the rollup identified by
		(userID, taskType). StartedAt is stamped on first insert only.

		Parameters:
		  - context: context.Context
		  - completion: *TaskCompletion

		Returns:
		  - error: Persistence failures
	*/
	UpsertCompletion(context context.Context, completion *TaskCompletion) error

	/*
		ListCompletions returns all task rollups for the user ordered by
		task type.

		Parameters:
		  - context: context.Context
		  - userID: int64

		Returns:
		  - []TaskCompletion: Ordered snapshot
		  - error: Retrieval failures
	*/
	ListCompletions(context context.Context, userID int64) ([]TaskCompletion, error)
}
