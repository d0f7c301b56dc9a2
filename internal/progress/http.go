// Copyright (c) 2026 Synapse Learn. All rights reserved.
// Author: dev@synapselearn.app

package progress

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/synapselearn/synapse/internal/platform/request"
	"github.com/synapselearn/synapse/internal/platform/respond"
)

// # HTTP Handler

// Handler exposes the progress tracking endpoints.
//
// All routes require an authenticated identity; the router mounts this
// handler behind the verification gate.
type Handler struct {
	progressService *Service
}

// NewHandler creates the progress HTTP handler.
func NewHandler(progressService *Service) *Handler {
	return &Handler{progressService: progressService}
}

// Routes returns the router for /progress endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/steps", handler.recordStep)
	router.Get("/steps", handler.listSteps)
	router.Post("/completion", handler.recordCompletion)
	router.Get("/completion", handler.listCompletions)

	return router
}

// # Request Payloads

type stepRequest struct {
	TaskType  string `json:"task_type"`
	StepIndex int    `json:"step_index"`
	StepName  string `json:"step_name"`
	Completed bool   `json:"completed"`
}

type completionRequest struct {
	TaskType       string  `json:"task_type"`
	Completed      bool    `json:"completed"`
	CompletionRate float64 `json:"completion_rate"`
}

// # Endpoint Handlers

// recordStep handles POST /api/progress/steps.
func (handler *Handler) recordStep(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var payload stepRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	record := &StepRecord{
		UserID:    identity.UserID,
		TaskType:  payload.TaskType,
		StepIndex: payload.StepIndex,
		StepName:  payload.StepName,
		Completed: payload.Completed,
	}

	if err := handler.progressService.RecordStep(request.Context(), record); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, record)
}

// listSteps handles GET /api/progress/steps. The optional task_type query
// parameter narrows the result to a single task.
func (handler *Handler) listSteps(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	taskType := request.URL.Query().Get(FieldTaskType)

	records, err := handler.progressService.Steps(request.Context(), identity.UserID, taskType)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]interface{}{
		"steps": records,
	})
}

// recordCompletion handles POST /api/progress/completion.
func (handler *Handler) recordCompletion(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var payload completionRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	completion := &TaskCompletion{
		UserID:         identity.UserID,
		TaskType:       payload.TaskType,
		Completed:      payload.Completed,
		CompletionRate: payload.CompletionRate,
	}

	if err := handler.progressService.RecordCompletion(request.Context(), completion); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, completion)
}

// listCompletions handles GET /api/progress/completion.
func (handler *Handler) listCompletions(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	completions, err := handler.progressService.Completions(request.Context(), identity.UserID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]interface{}{
		"completions": completions,
	})
}
