// Package narrative talks to an OpenAI-compatible chat completions API to
// design quests and write short encouragement texts.
package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kasuganosora/hikiquest/server/config"
	"github.com/kasuganosora/hikiquest/server/metrics"
	"github.com/kasuganosora/hikiquest/server/quest"
	"go.uber.org/zap"
)

const maxErrorBody = 512

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model            string        `json:"model"`
	Messages         []chatMessage `json:"messages"`
	MaxTokens        int           `json:"max_tokens,omitempty"`
	Temperature      float64       `json:"temperature"`
	FrequencyPenalty float64       `json:"frequency_penalty"`
	PresencePenalty  float64       `json:"presence_penalty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Client implements quest.Narrator and the intake feedback source.
type Client struct {
	cfg     config.NarrativeConfig
	http    *http.Client
	healthy atomic.Bool
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// New creates a Client. It starts healthy when enabled and configured;
// Probe updates the flag afterwards.
func New(cfg config.NarrativeConfig, m *metrics.Metrics, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	c := &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		metrics: m,
		logger:  logger,
	}
	c.healthy.Store(c.Enabled())
	m.NarratorHealthy(c.Enabled())
	return c
}

// Enabled reports whether the client is switched on and has a key.
func (c *Client) Enabled() bool {
	return c != nil && c.cfg.Enabled && c.cfg.APIKey != "" && c.cfg.BaseURL != ""
}

// Healthy reports whether requests should be attempted.
func (c *Client) Healthy() bool {
	return c.Enabled() && c.healthy.Load()
}

// Probe checks the API by listing models and records the result.
func (c *Client) Probe(ctx context.Context) error {
	if !c.Enabled() {
		return ErrUnavailable
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/models", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	resp, err := c.http.Do(req)
	if err == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		if resp.StatusCode/100 != 2 {
			err = fmt.Errorf("%w: probe status %d", ErrUnavailable, resp.StatusCode)
		}
	}
	ok := err == nil
	if was := c.healthy.Swap(ok); was != ok {
		c.logger.Info("narrative health changed", zap.Bool("healthy", ok), zap.Error(err))
	}
	c.metrics.NarratorHealthy(ok)
	return err
}

func (c *Client) complete(ctx context.Context, msgs []chatMessage) (string, error) {
	if !c.Enabled() {
		return "", ErrUnavailable
	}
	body, err := json.Marshal(chatRequest{
		Model:            c.cfg.Model,
		Messages:         msgs,
		MaxTokens:        c.cfg.MaxTokens,
		Temperature:      c.cfg.Temperature,
		FrequencyPenalty: 0.3,
		PresencePenalty:  0.3,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, bytes.TrimSpace(snippet))
	}
	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", ErrNoPayload
	}
	return out.Choices[0].Message.Content, nil
}

// DesignQuests asks the model for a quest design and parses it.
func (c *Client) DesignQuests(ctx context.Context, p quest.Profile, history []quest.QuestSet) (quest.Design, error) {
	user, err := questUserPrompt(p, history)
	if err != nil {
		return quest.Design{}, fmt.Errorf("render prompt: %w", err)
	}
	text, err := c.complete(ctx, []chatMessage{
		{Role: "system", Content: questSystemPrompt(p.Name)},
		{Role: "user", Content: user},
	})
	if err != nil {
		return quest.Design{}, err
	}
	d, err := ParseDesign(text)
	if err != nil {
		c.logger.Debug("narrative payload rejected", zap.Error(err), zap.Int("output_len", len(text)))
	}
	return d, err
}

// Congratulate writes a completion message for a quest.
func (c *Client) Congratulate(ctx context.Context, q quest.Quest, completed, total int) (string, error) {
	return c.complete(ctx, []chatMessage{
		{Role: "system", Content: questSystemPrompt("")},
		{Role: "user", Content: completionPrompt(q, completed, total)},
	})
}

// Feedback writes one or two sentences reacting to an intake answer.
func (c *Client) Feedback(ctx context.Context, category, question, answer string, percent int) (string, error) {
	return c.complete(ctx, []chatMessage{
		{Role: "system", Content: assessmentSystemPrompt},
		{Role: "user", Content: feedbackPrompt(category, question, answer, percent)},
	})
}
