package gemini

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/phrazzld/memo-tagger/internal/classification"
	"github.com/phrazzld/memo-tagger/internal/config"
	"github.com/phrazzld/memo-tagger/internal/platform/logger"
	"google.golang.org/genai"
)

// contentGenerator is the part of the genai client the classifier uses.
// *genai.Models implements it.
type contentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Classifier suggests tags for memo text using a Gemini model.
type Classifier struct {
	logger    *slog.Logger
	config    config.LLMConfig
	prompt    *template.Template
	generator contentGenerator

	// backoff returns the delay before retry attempt n (0-based).
	backoff func(attempt int) time.Duration
}

var _ classification.Classifier = (*Classifier)(nil)

// NewClassifier creates a Classifier backed by the Gemini API.
func NewClassifier(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Classifier, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	cfg, err := validateConfig(cfg)
	if err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", classification.ErrInvalidConfig, err)
	}

	return newClassifier(logger, cfg, client.Models)
}

func newClassifier(logger *slog.Logger, cfg config.LLMConfig, generator contentGenerator) (*Classifier, error) {
	cfg, err := validateConfig(cfg)
	if err != nil {
		return nil, err
	}

	prompt, err := loadPromptTemplate(cfg.PromptTemplatePath)
	if err != nil {
		return nil, err
	}

	c := &Classifier{
		logger:    logger.With("component", "gemini_classifier", "model", cfg.ModelName),
		config:    cfg,
		prompt:    prompt,
		generator: generator,
	}
	c.backoff = jitteredBackoff(time.Duration(cfg.RetryDelaySeconds) * time.Second)
	return c, nil
}

// Suggest implements classification.Classifier.
func (c *Classifier) Suggest(ctx context.Context, text string) ([]string, error) {
	prompt, err := c.createPrompt(text)
	if err != nil {
		return nil, err
	}

	answer, err := c.callWithRetry(ctx, prompt)
	if err != nil {
		return nil, err
	}

	raw, err := classification.ExtractLabels(answer)
	if err != nil {
		return nil, err
	}
	return classification.NormalizeLabels(raw, c.config.MaxLabels), nil
}

// createPrompt renders the prompt template for text.
func (c *Classifier) createPrompt(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", classification.ErrEmptyText
	}

	var buf bytes.Buffer
	if err := c.prompt.Execute(&buf, promptData{Text: text, MaxLabels: c.config.MaxLabels}); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}

// callWithRetry sends prompt to the model, retrying transient failures up to
// MaxRetries times. It returns the text of the first candidate.
func (c *Classifier) callWithRetry(ctx context.Context, prompt string) (string, error) {
	log := logger.FromContextOrDefault(ctx, c.logger)
	maxRetries := c.config.MaxRetries

	for attempt := 0; ; attempt++ {
		answer, err := c.generate(ctx, prompt)
		if err == nil {
			log.Debug("gemini call succeeded", "attempt", attempt+1)
			return answer, nil
		}

		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %v", classification.ErrTransientFailure, ctx.Err())
		}
		if isPermanent(err) {
			log.Warn("permanent gemini error, not retrying", "error", err)
			return "", err
		}
		if attempt >= maxRetries {
			log.Warn("gemini retries exhausted", "max_retries", maxRetries, "error", err)
			return "", fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
				classification.ErrTransientFailure, maxRetries, err)
		}

		delay := c.backoff(attempt)
		log.Info("retrying gemini call",
			"attempt", attempt+1,
			"delay_ms", delay.Milliseconds(),
			"error", err)

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return "", fmt.Errorf("%w: %v", classification.ErrTransientFailure, ctx.Err())
		}
	}
}

// generate makes a single model call and classifies the failure modes.
func (c *Classifier) generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt}},
	}}

	resp, err := c.generator.GenerateContent(ctx, c.config.ModelName, contents, nil)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("%w: prompt blocked: %s", classification.ErrContentBlocked, resp.PromptFeedback.BlockReason)
		}
		return "", fmt.Errorf("%w: no candidates in response", classification.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: content blocked by safety filters", classification.ErrContentBlocked)
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content in response", classification.ErrInvalidResponse)
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			text.WriteString(part.Text)
		}
	}
	return text.String(), nil
}

// jitteredBackoff returns base * 2^attempt scaled by a random factor in
// [0.5, 1.0).
func jitteredBackoff(base time.Duration) func(int) time.Duration {
	var mu sync.Mutex
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return func(attempt int) time.Duration {
		mu.Lock()
		jitter := 0.5 + rng.Float64()*0.5
		mu.Unlock()
		return time.Duration(float64(base) * math.Pow(2, float64(attempt)) * jitter)
	}
}
