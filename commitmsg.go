// Package commitmsg generates candidate git commit messages for a staged
// diff by calling an OpenAI-compatible chat completions API, surviving
// transient network failure and reporting permanent failure as a typed,
// human-readable error.
package commitmsg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"commitmsg/config"
	"commitmsg/openai"
	"commitmsg/retry"
)

// PromptFunc builds the system-prompt text for a request. Prompt wording is
// the caller's business; this package only delivers it to the model.
type PromptFunc func(locale string, maxLength int, commitType string) string

// Transport performs one completion attempt. openai.Client is the default
// implementation; alternates slot in without touching retry or
// classification.
type Transport interface {
	Complete(ctx context.Context, req openai.ChatRequest) (string, error)
}

const (
	defaultModel       = "gpt-4o-mini"
	defaultLocale      = "en"
	defaultCompletions = 1
	defaultMaxLength   = 50
)

type Request struct {
	APIKey string // falls back to OPENAI_API_KEY
	Model  string

	Locale      string // BCP-47 tag, e.g. "en" or "ja-JP"
	Diff        string
	Completions int // candidate count requested from the model
	MaxLength   int // soft cap passed to the prompt builder
	CommitType  string

	Timeout     time.Duration
	ProxyURL    string // falls back to HTTPS_PROXY
	MaxRetries  *int   // nil means the default of 2
	InsecureTLS bool

	BaseURL string // falls back to OPENAI_BASE_URL

	BuildPrompt PromptFunc
	Transport   Transport   // optional; built from the request when nil
	Logger      *zap.Logger // optional attempt log

	backoff *retry.Policy // delay override for tests
}

// Generate runs one logical call: build the payload, drive attempts under
// backoff, post-process the winning response. It returns the deduplicated
// candidate list, which is empty (not an error) when the model produced no
// usable text, or the terminal *llmerr.Error.
func Generate(ctx context.Context, req Request) ([]string, error) {
	if req.BuildPrompt == nil {
		return nil, errors.New("missing prompt builder")
	}
	diff := req.Diff
	if diff == "" {
		return nil, errors.New("no diff to describe. Stage your changes first")
	}

	apiKey := config.ResolveString(req.APIKey, config.EnvAPIKey, "")
	if apiKey == "" && req.Transport == nil {
		return nil, errors.New("missing API key. Set OPENAI_API_KEY or pass APIKey")
	}

	locale := config.ResolveString(req.Locale, "", defaultLocale)
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", locale, err)
	}

	model := config.ResolveString(req.Model, "", defaultModel)
	completions := req.Completions
	if completions < 1 {
		completions = defaultCompletions
	}
	maxLength := req.MaxLength
	if maxLength < 1 {
		maxLength = defaultMaxLength
	}

	logger := req.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(
		zap.String("request_id", uuid.NewString()),
		zap.String("model", model),
	)

	transport := req.Transport
	if transport == nil {
		transport, err = openai.New(openai.Config{
			BaseURL:     config.ResolveString(req.BaseURL, config.EnvBaseURL, ""),
			APIKey:      apiKey,
			ProxyURL:    config.ResolveString(req.ProxyURL, config.EnvProxy, ""),
			InsecureTLS: req.InsecureTLS,
			Timeout:     req.Timeout,
		})
		if err != nil {
			return nil, err
		}
	}

	policy := retry.DefaultPolicy()
	policy.MaxRetries = config.ResolveInt(req.MaxRetries, policy.MaxRetries)
	if req.backoff != nil {
		policy.BaseDelay = req.backoff.BaseDelay
		policy.MaxDelay = req.backoff.MaxDelay
	}

	chatReq := openai.ChatRequest{
		Model:        model,
		SystemPrompt: req.BuildPrompt(tag.String(), maxLength, req.CommitType),
		UserPrompt:   diff,
		Candidates:   completions,
	}

	body, err := retry.Do(ctx, policy, logger, func(ctx context.Context) (string, error) {
		return transport.Complete(ctx, chatReq)
	})
	if err != nil {
		return nil, err
	}
	return openai.ExtractCandidates(body)
}
