package quizdrill

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const explainTool = "write_explanation"

// Explainer writes explanations for questions that came without one
type Explainer struct {
	client *openai.Client
	model  string
}

// NewExplainer creates an explainer with an OpenAI client. An empty baseURL
// uses the OpenAI API, an empty model uses GPT-4o.
func NewExplainer(apiKey, baseURL, model string) *Explainer {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4o
	}
	return &Explainer{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// Explain asks the model why the recorded answer of q is correct
func (e *Explainer) Explain(ctx context.Context, q Question) (string, error) {
	prompt := buildExplainPrompt(q)
	VerboseLog("explainer request", zap.Int("question", q.ID), zap.String("prompt", prompt))

	resp, err := e.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: e.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: "You are a patient tutor. Explain why the given answer to a multiple choice question is correct and why the other options are not. Answer in the language of the question.",
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Tools: []openai.Tool{
				{
					Type: openai.ToolTypeFunction,
					Function: &openai.FunctionDefinition{
						Name:        explainTool,
						Description: "Record the explanation for the question",
						Parameters: map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"explanation": map[string]interface{}{
									"type":        "string",
									"description": "Short explanation in markdown",
								},
							},
							"required": []string{"explanation"},
						},
					},
				},
			},
			ToolChoice: openai.ToolChoice{
				Type: openai.ToolTypeFunction,
				Function: openai.ToolFunction{
					Name: explainTool,
				},
			},
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to explain question: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from model")
	}

	choice := resp.Choices[0]
	if len(choice.Message.ToolCalls) == 0 {
		return "", fmt.Errorf("no tool calls in response")
	}

	toolCall := choice.Message.ToolCalls[0]
	if toolCall.Function.Name != explainTool {
		return "", fmt.Errorf("unexpected tool call: %s", toolCall.Function.Name)
	}
	VerboseLog("explainer response", zap.Int("question", q.ID), zap.String("arguments", toolCall.Function.Arguments))

	var toolArgs struct {
		Explanation string `json:"explanation"`
	}
	if err := json.Unmarshal([]byte(toolCall.Function.Arguments), &toolArgs); err != nil {
		return "", fmt.Errorf("failed to parse tool arguments: %w", err)
	}

	explanation := strings.TrimSpace(toolArgs.Explanation)
	if explanation == "" {
		return "", fmt.Errorf("empty explanation")
	}
	return explanation, nil
}

func buildExplainPrompt(q Question) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Question (%s): %s\n\n", q.Type, q.Question))
	sb.WriteString("Options:\n")
	for _, option := range q.Options {
		sb.WriteString(option)
		sb.WriteString("\n")
	}
	sb.WriteString(fmt.Sprintf("\nCorrect Answer: %s\n", q.Answer))
	return sb.String()
}

// ExplainQuestion fills in the explanation of one question and stores it
func ExplainQuestion(ctx context.Context, s *Study, e *Explainer, id int) (string, error) {
	q, ok := s.Question(id)
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrQuestionNotFound, id)
	}
	explanation, err := e.Explain(ctx, q)
	if err != nil {
		return "", err
	}
	if err := s.SetAnalysis(id, explanation); err != nil {
		return "", err
	}
	return explanation, nil
}

// ExplainMissing explains up to limit questions that have no analysis yet.
// A limit of 0 means all of them. It stops at the first failure.
func ExplainMissing(ctx context.Context, s *Study, e *Explainer, limit int) (int, error) {
	done := 0
	for _, q := range s.Questions() {
		if q.HasAnalysis() {
			continue
		}
		if limit > 0 && done >= limit {
			break
		}
		if _, err := ExplainQuestion(ctx, s, e, q.ID); err != nil {
			return done, fmt.Errorf("question %d: %w", q.ID, err)
		}
		done++
		Logger().Info("explanation written", zap.Int("question", q.ID))
	}
	return done, nil
}
