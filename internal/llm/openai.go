package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// OpenAIClient calls an OpenAI-compatible /chat/completions endpoint. One
// client is built per model so the hint game and the extraction path can use
// different model strengths.
type OpenAIClient struct {
	client      *resty.Client
	model       string
	temperature float64
}

// NewOpenAIClient configures a client for baseURL (e.g. https://api.openai.com/v1).
func NewOpenAIClient(baseURL, apiKey, model string, timeout time.Duration) *OpenAIClient {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)
	if apiKey != "" {
		c.SetAuthToken(apiKey)
	}
	return &OpenAIClient{client: c, model: model, temperature: 0.7}
}

// WithTemperature returns the client with a different sampling temperature.
func (o *OpenAIClient) WithTemperature(t float64) *OpenAIClient {
	o.temperature = t
	return o
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends the full transcript and returns the first choice.
func (o *OpenAIClient) Complete(ctx context.Context, transcript []Message) (Completion, error) {
	var out chatResponse
	resp, err := o.client.R().
		SetContext(ctx).
		SetBody(chatRequest{Model: o.model, Messages: transcript, Temperature: o.temperature}).
		SetResult(&out).
		SetError(&out).
		Post("/chat/completions")
	if err != nil {
		return Completion{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	if resp.IsError() {
		msg := resp.Status()
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return Completion{}, fmt.Errorf("%w: status %d: %s", ErrProviderUnavailable, resp.StatusCode(), msg)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return Completion{}, fmt.Errorf("%w: empty completion", ErrProviderUnavailable)
	}
	return Completion{Text: out.Choices[0].Message.Content}, nil
}
