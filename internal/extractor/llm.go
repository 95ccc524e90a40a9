package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"github.com/tidwall/gjson"

	"trendpulse/internal/resilience/circuitbreaker"
	"trendpulse/internal/resilience/retry"
)

// ExtractedKeyword is the raw per-batch LLM output shape: a display form
// plus zero or more alternative spellings, before filtering or slugging.
type ExtractedKeyword struct {
	Keyword string   `json:"keyword"`
	Aliases []string `json:"aliases"`
}

// KeywordExtractorClient is the LLM boundary the batch extractor calls
// against. Both Claude and OpenAI implementations use deterministic
// sampling (temperature 0) since the pipeline requires reproducible
// extraction across retries.
type KeywordExtractorClient interface {
	ExtractKeywords(ctx context.Context, titles []string) ([]ExtractedKeyword, error)
}

const extractionSystemPrompt = `You extract trending AI-related keywords from a batch of article titles.

Rules:
- Each keyword is 1-3 words (hard max 4 words).
- Preserve product and version names verbatim (e.g. "GPT-5", "Claude Opus 4.5").
- Do not output full headlines or sentences.
- Do not output generic AI prefixes alone (e.g. "AI", "artificial intelligence").
- Target 20-35 keywords for this batch.

Respond with ONLY a JSON array of objects: [{"keyword": "...", "aliases": ["..."]}, ...]. No prose, no markdown fences.`

// claudeExtractorClient implements KeywordExtractorClient against Anthropic's
// Messages API.
type claudeExtractorClient struct {
	client         anthropic.Client
	model          string
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	logger         *slog.Logger
}

// NewClaudeExtractorClient builds the Claude-backed keyword extractor.
func NewClaudeExtractorClient(apiKey, model string, logger *slog.Logger) KeywordExtractorClient {
	if logger == nil {
		logger = slog.Default()
	}
	if model == "" {
		model = string(anthropic.ModelClaudeSonnet4_5_20250929)
	}
	return &claudeExtractorClient{
		client:         anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:          model,
		circuitBreaker: circuitbreaker.New(circuitbreaker.LLMExtractionConfig()),
		retryConfig:    retry.AIAPIConfig(),
		logger:         logger,
	}
}

func (c *claudeExtractorClient) ExtractKeywords(ctx context.Context, titles []string) ([]ExtractedKeyword, error) {
	ctx, cancel := context.WithTimeout(ctx, 45*time.Second)
	defer cancel()

	var raw string
	retryErr := retry.WithBackoff(ctx, c.retryConfig, func() error {
		cbResult, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doExtract(ctx, titles)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				c.logger.Warn("claude extraction circuit breaker open")
			}
			return err
		}
		raw = cbResult.(string)
		return nil
	})
	if retryErr != nil {
		return nil, fmt.Errorf("claude keyword extraction failed: %w", retryErr)
	}
	return parseExtractionResponse(raw)
}

func (c *claudeExtractorClient) doExtract(ctx context.Context, titles []string) (string, error) {
	prompt := extractionSystemPrompt + "\n\nTitles:\n" + strings.Join(titles, "\n")
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   4096,
		Temperature: anthropic.Float(0),
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

// openAIExtractorClient implements KeywordExtractorClient against the
// Chat Completions API.
type openAIExtractorClient struct {
	client         *openai.Client
	model          string
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	logger         *slog.Logger
}

// NewOpenAIExtractorClient builds the OpenAI-backed keyword extractor.
func NewOpenAIExtractorClient(apiKey, model string, logger *slog.Logger) KeywordExtractorClient {
	if logger == nil {
		logger = slog.Default()
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	client := openai.NewClient(apiKey)
	return &openAIExtractorClient{
		client:         client,
		model:          model,
		circuitBreaker: circuitbreaker.New(circuitbreaker.LLMExtractionConfig()),
		retryConfig:    retry.AIAPIConfig(),
		logger:         logger,
	}
}

func (c *openAIExtractorClient) ExtractKeywords(ctx context.Context, titles []string) ([]ExtractedKeyword, error) {
	ctx, cancel := context.WithTimeout(ctx, 45*time.Second)
	defer cancel()

	var raw string
	retryErr := retry.WithBackoff(ctx, c.retryConfig, func() error {
		cbResult, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doExtract(ctx, titles)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				c.logger.Warn("openai extraction circuit breaker open")
			}
			return err
		}
		raw = cbResult.(string)
		return nil
	})
	if retryErr != nil {
		return nil, fmt.Errorf("openai keyword extraction failed: %w", retryErr)
	}
	return parseExtractionResponse(raw)
}

func (c *openAIExtractorClient) doExtract(ctx context.Context, titles []string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: extractionSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: strings.Join(titles, "\n")},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai api returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// parseExtractionResponse tolerates surrounding markdown fences or prose by
// extracting the first top-level [...] substring, then validates element
// shape with gjson before decoding, so a malformed single element does not
// fail the whole batch.
func parseExtractionResponse(raw string) ([]ExtractedKeyword, error) {
	start := strings.IndexByte(raw, '[')
	end := strings.LastIndexByte(raw, ']')
	if start == -1 || end == -1 || end < start {
		return nil, nil
	}
	jsonArray := raw[start : end+1]

	parsed := gjson.Parse(jsonArray)
	if !parsed.IsArray() {
		return nil, nil
	}

	var out []ExtractedKeyword
	parsed.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			return true
		}
		keyword := strings.TrimSpace(item.Get("keyword").String())
		if keyword == "" {
			return true
		}
		var aliases []string
		item.Get("aliases").ForEach(func(_, a gjson.Result) bool {
			if s := strings.TrimSpace(a.String()); s != "" {
				aliases = append(aliases, s)
			}
			return true
		})
		out = append(out, ExtractedKeyword{Keyword: keyword, Aliases: aliases})
		return true
	})
	return out, nil
}
