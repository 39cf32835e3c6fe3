// Package openai talks to an OpenAI-compatible chat completions endpoint.
// It performs exactly one HTTP attempt per call; retry decisions belong to
// the caller.
package openai

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"commitmsg/llmerr"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 10 * time.Second

	completionsPath = "/chat/completions"
)

// Sampling parameters are fixed for commit-message generation; candidate
// variety comes from the n parameter, not from wider sampling.
const (
	temperature = 0.7
	topP        = 1
	maxTokens   = 200
)

type Config struct {
	BaseURL     string // e.g. "https://api.openai.com/v1"
	APIKey      string
	ProxyURL    string        // optional HTTP(S) proxy
	InsecureTLS bool          // skip certificate verification for this client only
	Timeout     time.Duration // per-attempt budget
}

type Client struct {
	cfg  Config
	base string
	http *http.Client
}

// New builds a client with its own transport, so proxy routing and any TLS
// relaxation stay scoped to this client and never touch process-wide state.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if strings.TrimSpace(cfg.ProxyURL) != "" {
		proxy, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxy)
	}
	if cfg.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Client{
		cfg:  cfg,
		base: base,
		http: &http.Client{Transport: transport},
	}, nil
}

// ChatRequest carries the semantic fields of one completion request.
type ChatRequest struct {
	Model        string
	SystemPrompt string
	UserPrompt   string
	Candidates   int // number of choices requested from the model
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatReq struct {
	Model            string        `json:"model"`
	Messages         []chatMessage `json:"messages"`
	Temperature      float64       `json:"temperature"`
	TopP             float64       `json:"top_p"`
	FrequencyPenalty float64       `json:"frequency_penalty"`
	PresencePenalty  float64       `json:"presence_penalty"`
	MaxTokens        int           `json:"max_tokens"`
	Stream           bool          `json:"stream"`
	N                int           `json:"n"`
}

// Complete performs a single POST attempt and returns the raw response body
// on a 2xx status. All failures come back classified as *llmerr.Error with
// the raw cause preserved in the chain.
func (c *Client) Complete(ctx context.Context, req ChatRequest) (string, error) {
	n := req.Candidates
	if n < 1 {
		n = 1
	}
	payload, err := json.Marshal(chatReq{
		Model: req.Model,
		Messages: []chatMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserPrompt},
		},
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
		Stream:      false,
		N:           n,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+completionsPath, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(c.cfg.APIKey) != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", llmerr.Classify(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", llmerr.Classify(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", llmerr.FromStatus(resp.StatusCode, body)
	}
	return string(body), nil
}
