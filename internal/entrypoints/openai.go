package entrypoints

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ahertel/flowatlas/internal/store"
)

const classifierSystemPrompt = `You are a code analysis assistant. Given modules from an indexed codebase
with their member definitions, decide for each member whether it is an
entry point: a user- or system-facing trigger of an execution flow, such as
a request handler, a screen action, or a CLI command body. Respond with a
JSON array only, one object per member you have an opinion on:
[{"module_id": 1, "member": "createOrder", "is_entry_point": true,
  "action_type": "create", "target_entity": "order",
  "stakeholder": "user", "reason": "..."}]
action_type is one of view/create/update/delete/process or omitted;
stakeholder is one of user/admin/system/developer/external or omitted.
Omit members you are unsure about.`

// OpenAIClassifier classifies candidate members through the OpenAI chat API.
type OpenAIClassifier struct {
	client       *openai.Client
	model        string
	interactions []store.Interaction
	logger       *slog.Logger
}

// NewOpenAIClassifier creates a classifier using the given API key and model.
// The optional interactions give the model module-relationship context.
func NewOpenAIClassifier(apiKey, model string, interactions []store.Interaction, logger *slog.Logger) *OpenAIClassifier {
	if model == "" {
		model = openai.GPT4oMini
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAIClassifier{
		client:       openai.NewClient(apiKey),
		model:        model,
		interactions: interactions,
		logger:       logger,
	}
}

type classifiedMemberJSON struct {
	ModuleID     int64  `json:"module_id"`
	Member       string `json:"member"`
	IsEntryPoint bool   `json:"is_entry_point"`
	ActionType   string `json:"action_type,omitempty"`
	TargetEntity string `json:"target_entity,omitempty"`
	Stakeholder  string `json:"stakeholder,omitempty"`
	Reason       string `json:"reason"`
}

// ClassifyMembers implements Classifier. Members missing from the model's
// answer are simply absent from the returned map; only transport or parse
// failure of the whole batch returns an error.
func (c *OpenAIClassifier) ClassifyMembers(ctx context.Context, candidates []ModuleCandidate) (map[MemberKey]MemberResult, error) {
	prompt, err := c.buildPrompt(candidates)
	if err != nil {
		return nil, fmt.Errorf("building classifier prompt: %w", err)
	}

	c.logger.Debug("classifying entry-point candidates", "model", c.model, "modules", len(candidates))
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: classifierSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("classifier API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("classifier returned no choices")
	}

	return c.parseResponse(resp.Choices[0].Message.Content)
}

func (c *OpenAIClassifier) buildPrompt(candidates []ModuleCandidate) (string, error) {
	payload := struct {
		Modules      []ModuleCandidate   `json:"modules"`
		Interactions []store.Interaction `json:"interactions,omitempty"`
	}{
		Modules:      candidates,
		Interactions: c.interactions,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return "Classify the members of these modules:\n" + string(data), nil
}

func (c *OpenAIClassifier) parseResponse(content string) (map[MemberKey]MemberResult, error) {
	// Models sometimes fence the JSON in markdown.
	content = strings.TrimSpace(content)
	if start := strings.Index(content, "["); start >= 0 {
		if end := strings.LastIndex(content, "]"); end > start {
			content = content[start : end+1]
		}
	}

	var parsed []classifiedMemberJSON
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("parsing classifier response: %w", err)
	}

	results := make(map[MemberKey]MemberResult, len(parsed))
	for _, m := range parsed {
		if m.Member == "" {
			continue
		}
		key := MemberKey{ModuleID: store.ModuleID(m.ModuleID), MemberName: m.Member}
		results[key] = MemberResult{
			IsEntryPoint: m.IsEntryPoint,
			ActionType:   store.ActionType(m.ActionType),
			TargetEntity: m.TargetEntity,
			Stakeholder:  store.Stakeholder(m.Stakeholder),
			Reason:       m.Reason,
		}
	}
	return results, nil
}
