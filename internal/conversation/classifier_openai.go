package conversation

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/duneview/booking-assistant/pkg/logging"
)

const classifierSystemPrompt = `You read one guest message from a holiday rental chat and reply with JSON only, no prose. Schema:
{"kind":"date"|"month"|"cancel"|"narrowish"|"unrelated","date":"YYYY-MM-DD","year":2026,"month":8,"nights":7}
Rules: "date" needs a concrete start date. "month" needs a month (and year if stated). "cancel" is declining or abandoning. "narrowish" is partial date content such as weekdays, day ranges, or "around the 18th". Anything else is "unrelated". Omit fields you cannot fill. nights only when the guest states a stay length.`

type chatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIClassifier asks a chat model to read the message, falling back to
// the keyword heuristic whenever the call fails or returns something
// unusable. A classifier outage must never take down the conversation.
type OpenAIClassifier struct {
	client   chatClient
	model    string
	fallback *HeuristicClassifier
	logger   *logging.Logger
	timeout  time.Duration
}

// NewOpenAIClassifier wires the model-backed classifier. model may be empty,
// in which case GPT-4o mini is used.
func NewOpenAIClassifier(client *openai.Client, model string, logger *logging.Logger) *OpenAIClassifier {
	if model == "" {
		model = openai.GPT4oMini
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &OpenAIClassifier{
		client:   client,
		model:    model,
		fallback: NewHeuristicClassifier(),
		logger:   logger,
		timeout:  10 * time.Second,
	}
}

type classifierPayload struct {
	Kind   string `json:"kind"`
	Date   string `json:"date,omitempty"`
	Year   int    `json:"year,omitempty"`
	Month  int    `json:"month,omitempty"`
	Nights int    `json:"nights,omitempty"`
}

// Classify implements Classifier.
func (c *OpenAIClassifier) Classify(ctx context.Context, message string) Intent {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: classifierSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
	})
	if err != nil {
		c.logger.Warn("intent classification failed, using heuristic", "error", err)
		return c.fallback.Classify(ctx, message)
	}
	if len(resp.Choices) == 0 {
		c.logger.Warn("intent classification returned no choices, using heuristic")
		return c.fallback.Classify(ctx, message)
	}

	intent, ok := parsePayload(resp.Choices[0].Message.Content)
	if !ok {
		c.logger.Warn("intent classification returned unusable JSON, using heuristic",
			"content", resp.Choices[0].Message.Content)
		return c.fallback.Classify(ctx, message)
	}
	return intent
}

func parsePayload(content string) (Intent, bool) {
	content = strings.TrimSpace(content)
	// Models occasionally fence the JSON despite instructions.
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var p classifierPayload
	if err := json.Unmarshal([]byte(content), &p); err != nil {
		return Intent{}, false
	}

	intent := Intent{Nights: p.Nights}
	switch IntentKind(p.Kind) {
	case IntentDate:
		d, err := time.Parse("2006-01-02", p.Date)
		if err != nil {
			return Intent{}, false
		}
		intent.Kind = IntentDate
		intent.Date = d
	case IntentMonth:
		if p.Month < 1 || p.Month > 12 {
			return Intent{}, false
		}
		intent.Kind = IntentMonth
		intent.Year = p.Year
		intent.Month = time.Month(p.Month)
		if intent.Year == 0 {
			intent.Year = inferYearFromNow(intent.Month)
		}
	case IntentCancel, IntentNarrowish, IntentUnrelated:
		intent.Kind = IntentKind(p.Kind)
	default:
		return Intent{}, false
	}
	return intent, true
}

func inferYearFromNow(month time.Month) int {
	now := time.Now().UTC()
	if month < now.Month() {
		return now.Year() + 1
	}
	return now.Year()
}
