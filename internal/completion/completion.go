// Package completion asks a chat model for reproductive indicators that the
// label patterns could not find in the OCR text.
package completion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"agrovet/internal/logger"
	"agrovet/internal/metrics"
)

// maxPromptText bounds the OCR text sent to the model.
const maxPromptText = 12000

// ErrNoAPIKey is returned when completion is enabled without an OpenAI key.
var ErrNoAPIKey = errors.New("OPENAI_API_KEY is required for metric completion")

// Config configures the completion service.
type Config struct {
	Model       string  // gpt-4o-mini, gpt-4o
	MaxRetries  int     // ChatGPT retry attempts
	Temperature float32 // ChatGPT temperature
}

// DefaultConfig returns the defaults used when fields are left empty.
func DefaultConfig() Config {
	return Config{
		Model:       "gpt-4o-mini",
		MaxRetries:  3,
		Temperature: 0,
	}
}

// Service completes missing metrics with ChatGPT.
type Service struct {
	client *openai.Client
	config Config
	log    zerolog.Logger
}

// NewService creates a completion service for the given API key.
func NewService(apiKey string, config Config) (*Service, error) {
	const op = "NewService"

	if apiKey == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNoAPIKey)
	}
	return NewServiceWithClient(openai.NewClient(apiKey), config), nil
}

// NewServiceWithClient creates a completion service with an explicit client.
func NewServiceWithClient(client *openai.Client, config Config) *Service {
	defaults := DefaultConfig()
	if config.Model == "" {
		config.Model = defaults.Model
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = defaults.MaxRetries
	}
	return &Service{
		client: client,
		config: config,
		log:    logger.WithComponent("completion"),
	}
}

// Complete asks the model for the missing indicators. Only keys listed in
// missing are returned; null or non-numeric answers are dropped.
func (s *Service) Complete(ctx context.Context, text string, missing []metrics.Key) (metrics.Set, error) {
	const op = "Complete"

	if len(missing) == 0 || strings.TrimSpace(text) == "" {
		return metrics.Set{}, nil
	}

	prompt := buildPrompt(text, missing)

	s.log.Debug().
		Int("prompt_length", len(prompt)).
		Int("missing", len(missing)).
		Str("model", s.config.Model).
		Msg("Sending completion request to ChatGPT")

	var lastErr error
	for attempt := 1; attempt <= s.config.MaxRetries; attempt++ {
		resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       s.config.Model,
			Temperature: s.config.Temperature,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			MaxTokens: 500,
		})
		if err != nil {
			if ctx.Err() != nil {
				return metrics.Set{}, fmt.Errorf("%s: %w", op, ctx.Err())
			}
			lastErr = err
			s.log.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_retries", s.config.MaxRetries).
				Msg("ChatGPT request failed, retrying")
			continue
		}

		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("no response choices from ChatGPT")
			continue
		}

		content := resp.Choices[0].Message.Content
		completed, err := ParseResponse(content, missing)
		if err != nil {
			lastErr = err
			s.log.Warn().
				Err(err).
				Str("response", content).
				Int("attempt", attempt).
				Msg("Failed to parse ChatGPT response, retrying")
			continue
		}

		s.log.Info().
			Int("completed", completed.Len()).
			Int("attempt", attempt).
			Msg("Metrics completed by ChatGPT")
		return completed, nil
	}

	return metrics.Set{}, fmt.Errorf("%s: all %d attempts failed, last error: %w", op, s.config.MaxRetries, lastErr)
}

// ParseResponse reads the JSON object returned by the model. Values may be
// numbers or numeric strings with a comma decimal separator and a percent sign.
func ParseResponse(content string, missing []metrics.Key) (metrics.Set, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return metrics.Set{}, fmt.Errorf("failed to parse ChatGPT JSON response: %w", err)
	}

	var entries []metrics.Entry
	for _, k := range missing {
		v, ok := numericValue(raw[string(k)])
		if !ok {
			continue
		}
		entries = append(entries, metrics.Entry{Key: k, Value: v})
	}
	return metrics.NewSet(entries...), nil
}

func numericValue(v interface{}) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(n), "%"))
		parsed, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// truncateText cuts text to at most limit bytes without splitting a rune.
func truncateText(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return text[:limit]
}

const systemPrompt = `You read OCR text of Brazilian veterinary reproductive reports for dairy and beef herds.
The text is in Portuguese and may contain OCR errors. Extract only values that are explicitly
present in the text. Never estimate or compute a value that is not written in the document.

Return ONLY a JSON object. Use the requested keys, numbers without units, a period as decimal
separator, and null for values that are not in the text.`

var keyHints = map[metrics.Key]string{
	metrics.PregnancyRate:             "taxa de prenhez, percent",
	metrics.ConceptionRate:            "taxa de concepção, percent",
	metrics.CalvingIntervalDays:       "intervalo entre partos (IEP), days",
	metrics.InseminationsPerPregnancy: "inseminações (doses) por prenhez, count with decimals",
	metrics.TotalInseminations:        "quantidade / total de IA (inseminações artificiais), integer",
	metrics.TotalCalvings:             "total de partos, integer",
	metrics.AbortionRate:              "taxa de aborto, percent",
}

func buildPrompt(text string, missing []metrics.Key) string {
	text = truncateText(text, maxPromptText)

	var prompt strings.Builder
	prompt.WriteString("Find these indicators in the report:\n")
	for _, k := range missing {
		fmt.Fprintf(&prompt, "  %q: %s\n", string(k), keyHints[k])
	}
	prompt.WriteString("\nOCR text:\n")
	prompt.WriteString(text)
	return prompt.String()
}
