// Copyright (c) 2026 Synapse Learn. All rights reserved.
// Author: dev@synapselearn.app

package assistant

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/synapselearn/synapse/internal/platform/request"
	"github.com/synapselearn/synapse/internal/platform/respond"
)

// # HTTP Handler

// Handler exposes the tutor reply endpoint.
type Handler struct {
	assistantService *Service
}

// NewHandler creates the assistant HTTP handler.
func NewHandler(assistantService *Service) *Handler {
	return &Handler{assistantService: assistantService}
}

// Routes returns the router for the /reply endpoint group.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", handler.reply)

	return router
}

type replyRequest struct {
	Message string `json:"message"`
}

type replyResponse struct {
	Reply string `json:"reply"`
}

// reply handles POST /api/reply.
func (handler *Handler) reply(writer http.ResponseWriter, request *http.Request) {
	if _, err := requestutil.RequiredIdentity(request); err != nil {
		respond.Error(writer, request, err)
		return
	}

	var payload replyRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	reply, err := handler.assistantService.Reply(request.Context(), payload.Message)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, replyResponse{Reply: reply})
}
