// Copyright (c) 2026 Synapse Learn. All rights reserved.
// Author: dev@synapselearn.app

/*
Package assistant integrates the conversational neural-network tutor backed
by an OpenAI-compatible chat completion API.

# Architecture

  - ChatClient: the upstream contract, satisfied by HTTPChatClient in
    production and by fakes in tests.
  - ReplyCache: optional Redis-backed memoisation of replies keyed by the
    message digest.
  - Service: orchestrates cache lookup, upstream call, and cache fill.
*/
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/synapselearn/synapse/internal/platform/constants"
)

// # Upstream Contract

// ChatClient generates a tutor reply for a single user message.
type ChatClient interface {

	/*
		Reply sends the message to the language model and returns its answer.

		Parameters:
		  - context: context.Context
		  - message: string (the learner's utterance)

		Returns:
		  - string: The tutor's reply
		  - error: Transport or upstream failures
	*/
	Reply(context context.Context, message string) (string, error)
}

// systemPrompt frames every conversation; the upstream model has no memory
// between requests.
const systemPrompt = "You are a teacher of deep learning and neural networks, " +
	"guiding a beginner through the platform's hands-on exercises. Explain " +
	"concepts like layers, training, and backpropagation in plain language, " +
	"keep answers short, and use small concrete examples."

// Sampling parameters tuned for conversational variety.
const (
	samplingTopP        = 0.7
	samplingTemperature = 0.9
	replyMaxTokens      = 2000
)

// # HTTP Client

// HTTPChatClient talks to an OpenAI-compatible chat completion endpoint.
type HTTPChatClient struct {
	apiURL     string
	apiKey     string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

/*
NewHTTPChatClient creates a chat client for the given endpoint.

Description: the client paces its own upstream calls with a token bucket so
that a burst of learners cannot exhaust the provider quota.

Parameters:
  - apiURL: string (full chat completions URL)
  - apiKey: string
  - model: string

Returns:
  - *HTTPChatClient: Ready-to-use client
*/
// upstreamTimeout must stay below the router's global request deadline,
// or the router would always cut the reply off before this client gives up.
const upstreamTimeout = constants.GlobalRequestTimeout - 5*time.Second

func NewHTTPChatClient(apiURL, apiKey, model string) *HTTPChatClient {
	return &HTTPChatClient{
		apiURL: apiURL,
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: upstreamTimeout,
		},
		// 2 req/s sustained, bursts of 5.
		limiter: rate.NewLimiter(rate.Limit(2), 5),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	TopP        float64       `json:"top_p"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Reply implements [ChatClient] over HTTPS.
func (client *HTTPChatClient) Reply(context context.Context, message string) (string, error) {
	if err := client.limiter.Wait(context); err != nil {
		return "", fmt.Errorf("assistant_client_rate_wait_failed: %w", err)
	}

	payload := chatRequest{
		Model: client.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: message},
		},
		TopP:        samplingTopP,
		Temperature: samplingTemperature,
		MaxTokens:   replyMaxTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("assistant_client_marshal_failed: %w", err)
	}

	request, err := http.NewRequestWithContext(context, http.MethodPost, client.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("assistant_client_build_request_failed: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Authorization", "Bearer "+client.apiKey)

	response, err := client.httpClient.Do(request)
	if err != nil {
		return "", fmt.Errorf("assistant_client_request_failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		// Drain a bounded slice of the body for the error context.
		snippet, _ := io.ReadAll(io.LimitReader(response.Body, 512))
		return "", fmt.Errorf("assistant_client_upstream_status_%d: %s", response.StatusCode, snippet)
	}

	var parsed chatResponse
	if err := json.NewDecoder(response.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("assistant_client_decode_failed: %w", err)
	}

	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("assistant_client_empty_choices")
	}

	return parsed.Choices[0].Message.Content, nil
}
