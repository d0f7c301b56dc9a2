// Copyright (c) 2026 Synapse Learn. All rights reserved.
// Author: dev@synapselearn.app

package assistant

import (
	"context"
	"log/slog"
	"strings"

	"github.com/synapselearn/synapse/internal/platform/apperr"
	"github.com/synapselearn/synapse/internal/platform/validate"
)

// # Service

// Service orchestrates the tutor conversation flow: cache lookup, upstream
// call, cache fill.
type Service struct {
	chatClient ChatClient
	replyCache ReplyCache
	logger     *slog.Logger
}

// NewService creates the assistant service. replyCache may be nil, in which
// case every message goes upstream.
func NewService(chatClient ChatClient, replyCache ReplyCache, logger *slog.Logger) *Service {
	return &Service{
		chatClient: chatClient,
		replyCache: replyCache,
		logger:     logger,
	}
}

/*
Reply produces the tutor's answer for one learner message.

Description: cache failures are logged and ignored — the upstream model is
the source of truth, the cache only saves quota.

Parameters:
  - context: context.Context
  - message: string

Returns:
  - string: The tutor's reply
  - error: Validation errors or upstream failures (mapped to 502)
*/
func (service *Service) Reply(context context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", validate.RequiredError("message", "Message is required")
	}

	if service.replyCache != nil {
		cached, err := service.replyCache.Get(context, message)
		if err != nil {
			service.logger.WarnContext(context, "assistant_cache_get_failed", slog.String("error", err.Error()))
		} else if cached != "" {
			service.logger.DebugContext(context, "assistant_cache_hit")
			return cached, nil
		}
	}

	reply, err := service.chatClient.Reply(context, message)
	if err != nil {
		service.logger.ErrorContext(context, "assistant_upstream_failed", slog.String("error", err.Error()))
		return "", apperr.BadGateway("Assistant is temporarily unavailable", err)
	}

	if service.replyCache != nil {
		if err := service.replyCache.Set(context, message, reply); err != nil {
			service.logger.WarnContext(context, "assistant_cache_set_failed", slog.String("error", err.Error()))
		}
	}

	return reply, nil
}
