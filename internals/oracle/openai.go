package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/sethvargo/go-retry"

	"todod/internals/schemas"
)

const plannerSystemPrompt = `You are a planning agent.

Given a high-level goal from the user, break it down into a structured TODO list.
Respond ONLY with valid JSON matching this schema:

{
  "tasks": [
    {
      "title": "short task title",
      "description": "1-3 sentences describing the task in concrete terms"
    }
  ]
}

Guidelines:
- 5 to 10 tasks is usually enough.
- Tasks should be concrete and actionable, not vague.
- Order tasks in a sensible execution order.
- Do NOT include any text outside of the JSON.`

const executorSystemPrompt = `You are an execution agent helping with a project.

You will receive the overall goal of the project and a single TODO task
(title and description).

You must:
1. Execute the task as best as possible in natural language.
2. Decide whether the task is "done", "failed" or "needs-follow-up".
3. Reflect briefly on what you did and any follow-ups.

Respond ONLY with valid JSON of this shape:

{
  "result": "detailed textual result of your work",
  "status": "done | failed | needs-follow-up",
  "reflection": "1-3 sentence reflection about this specific task"
}

Do NOT include any additional keys or commentary outside the JSON.`

// OpenAIClient talks to an OpenAI-compatible chat completion endpoint and
// requests JSON-object responses. Transport failures are retried with
// exponential backoff; a response that is not valid JSON is a call
// failure, never partial data.
type OpenAIClient struct {
	api        openai.Client
	model      string
	logger     *slog.Logger
	maxRetries uint64
}

type OpenAIOption func(*OpenAIClient)

func WithModel(model string) OpenAIOption {
	return func(c *OpenAIClient) {
		if strings.TrimSpace(model) != "" {
			c.model = strings.TrimSpace(model)
		}
	}
}

func WithMaxRetries(n uint64) OpenAIOption {
	return func(c *OpenAIClient) {
		c.maxRetries = n
	}
}

func NewOpenAIClient(apiKey string, baseURL string, logger *slog.Logger, opts ...OpenAIOption) (*OpenAIClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("oracle: api key is required")
	}

	requestOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if strings.TrimSpace(baseURL) != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(strings.TrimRight(baseURL, "/")))
	}

	client := &OpenAIClient{
		api:        openai.NewClient(requestOpts...),
		model:      "gpt-4o-mini",
		logger:     logger,
		maxRetries: 2,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

func (c *OpenAIClient) Plan(ctx context.Context, goal string) (*schemas.PlanResponse, error) {
	userPrompt := fmt.Sprintf("My high-level goal is:\n%s\n\nPlease output only the JSON described above.", goal)
	raw, err := c.completeJSON(ctx, plannerSystemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	response := &schemas.PlanResponse{}
	if err := json.Unmarshal([]byte(raw), response); err != nil {
		return nil, fmt.Errorf("oracle: plan response is not valid JSON: %w", err)
	}
	return response, nil
}

func (c *OpenAIClient) Decide(ctx context.Context, goal string, task schemas.Task) (*schemas.DecisionResponse, error) {
	payload, err := json.MarshalIndent(map[string]any{
		"goal": goal,
		"task": map[string]any{
			"id":          task.ID,
			"title":       task.Title,
			"description": task.Description,
		},
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("oracle: failed to encode decide request: %w", err)
	}

	raw, err := c.completeJSON(ctx, executorSystemPrompt, string(payload))
	if err != nil {
		return nil, err
	}

	response := &schemas.DecisionResponse{}
	if err := json.Unmarshal([]byte(raw), response); err != nil {
		return nil, fmt.Errorf("oracle: decide response is not valid JSON: %w", err)
	}
	return response, nil
}

func (c *OpenAIClient) completeJSON(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	var content string
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		completion, err := c.api.Chat.Completions.New(ctx, params)
		if err != nil {
			if c.logger != nil {
				c.logger.Warn("oracle call failed, may retry", slog.String("model", c.model), slog.String("error", err.Error()))
			}
			return retry.RetryableError(err)
		}
		if len(completion.Choices) == 0 {
			return retry.RetryableError(fmt.Errorf("oracle: completion returned no choices"))
		}
		content = completion.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("oracle: completion failed: %w", err)
	}
	return content, nil
}
