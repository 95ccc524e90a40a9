package enricher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sony/gobreaker"

	"trendpulse/internal/resilience/circuitbreaker"
	"trendpulse/internal/resilience/retry"
)

// TitleTranslator batch-translates a set of titles into Korean, preserving
// proper nouns. Per spec §4.6 step 4, if the translated line count does not
// match the input count the caller must fall back to the originals.
type TitleTranslator interface {
	TranslateTitles(ctx context.Context, titles []string) ([]string, error)
}

const titleTranslationPrompt = `Translate the following article titles into Korean, one per line, preserving product names, version numbers and proper nouns untranslated. Output exactly %d lines, no numbering, no commentary.

Titles:
%s`

// claudeTitleTranslator implements TitleTranslator against Anthropic's
// Messages API, mirroring the extractor's deterministic-call shape.
type claudeTitleTranslator struct {
	client         anthropic.Client
	model          string
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	logger         *slog.Logger
}

// NewClaudeTitleTranslator builds the Claude-backed title translator. An
// empty apiKey yields a translator whose TranslateTitles always returns
// ErrNoAPIKey, so callers fall back to originals.
func NewClaudeTitleTranslator(apiKey, model string, logger *slog.Logger) TitleTranslator {
	if logger == nil {
		logger = slog.Default()
	}
	if model == "" {
		model = string(anthropic.ModelClaudeSonnet4_5_20250929)
	}
	return &claudeTitleTranslator{
		client:         anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:          model,
		circuitBreaker: circuitbreaker.New(circuitbreaker.ClaudeAPIConfig()),
		retryConfig:    retry.AIAPIConfig(),
		logger:         logger,
	}
}

// ErrNoAPIKey indicates title translation was skipped because no
// credential is configured.
var ErrNoAPIKey = errors.New("title translator: no api key configured")

func (t *claudeTitleTranslator) TranslateTitles(ctx context.Context, titles []string) ([]string, error) {
	if len(titles) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	var raw string
	retryErr := retry.WithBackoff(ctx, t.retryConfig, func() error {
		cbResult, err := t.circuitBreaker.Execute(func() (interface{}, error) {
			return t.doTranslate(ctx, titles)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				t.logger.Warn("title translation circuit breaker open")
			}
			return err
		}
		raw = cbResult.(string)
		return nil
	})
	if retryErr != nil {
		return nil, fmt.Errorf("title translation failed: %w", retryErr)
	}

	lines := splitNonEmptyLines(raw)
	if len(lines) != len(titles) {
		return nil, fmt.Errorf("title translation line count mismatch: got %d, want %d", len(lines), len(titles))
	}
	return lines, nil
}

func (t *claudeTitleTranslator) doTranslate(ctx context.Context, titles []string) (string, error) {
	prompt := fmt.Sprintf(titleTranslationPrompt, len(titles), strings.Join(titles, "\n"))
	message, err := t.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(t.model),
		MaxTokens:   1024,
		Temperature: anthropic.Float(0.1),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("claude api error: %w", err)
	}
	if len(message.Content) == 0 {
		return "", fmt.Errorf("claude api returned empty response")
	}
	textBlock, ok := message.Content[0].AsAny().(anthropic.TextBlock)
	if !ok {
		return "", fmt.Errorf("claude api returned unexpected response type")
	}
	return textBlock.Text, nil
}

func splitNonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
