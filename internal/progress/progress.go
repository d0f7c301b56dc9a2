// Copyright (c) 2026 Synapse Learn. All rights reserved.
// Author: dev@synapselearn.app

/*
Package progress tracks per-user learning progress through the platform's
guided exercises.

Every operation is keyed by the authenticated user's ID, resolved upstream by
the auth verification gate — this package never sees raw tokens.

# Data Model

  - StepRecord: one step of a task (e.g. building a layer in the LSTM
    exercise), unique per (user, task, step index).
  - TaskCompletion: rollup per (user, task) with a completion rate.
*/
package progress

import "time"

// # Domain Entities

// StepRecord represents a single step of a guided task for one user.
type StepRecord struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	TaskType    string     `json:"task_type"`
	StepIndex   int        `json:"step_index"`
	StepName    string     `json:"step_name"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TaskCompletion is the per-task rollup of a user's progress.
type TaskCompletion struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"user_id"`
	TaskType       string     `json:"task_type"`
	Completed      bool       `json:"completed"`
	CompletionRate float64    `json:"completion_rate"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// # Field Identifiers

const (
	FieldTaskType       = "task_type"
	FieldStepIndex      = "step_index"
	FieldStepName       = "step_name"
	FieldCompletionRate = "completion_rate"
)
