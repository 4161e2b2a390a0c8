package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kmf-ai/server/internal/errx"
	"github.com/kmf-ai/server/internal/model"
	"google.golang.org/genai"
)

// GeminiGateway calls the Gemini API through google.golang.org/genai.
type GeminiGateway struct {
	client      *genai.Client
	model       string
	temperature float32
	tools       []*genai.Tool
}

// NewGeminiGateway creates a Gemini gateway. An empty APIKey lets genai read
// GEMINI_API_KEY or GOOGLE_API_KEY from the environment.
func NewGeminiGateway(ctx context.Context, cfg Config, specs []model.ToolSpec) (*GeminiGateway, error) {
	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("llm: create gemini client: %w", err)
	}

	return &GeminiGateway{
		client:      client,
		model:       orDefault(cfg.Model, DefaultGeminiModel),
		temperature: cfg.Temperature,
		tools:       getTools(specs),
	}, nil
}

func getTools(specs []model.ToolSpec) []*genai.Tool {
	if len(specs) == 0 {
		return nil
	}

	functions := make([]*genai.FunctionDeclaration, 0, len(specs))
	for _, spec := range specs {
		functions = append(functions, &genai.FunctionDeclaration{
			Name:                 spec.Name,
			Description:          spec.Description,
			ParametersJsonSchema: spec.Parameters,
		})
	}

	return []*genai.Tool{
		{
			FunctionDeclarations: functions,
		},
	}
}

func (g *GeminiGateway) Invoke(ctx context.Context, conversation []model.Message) (Response, error) {
	systemInstruction, contents := toGenAIContents(conversation)

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
		Tools:       g.tools,
	}
	if systemInstruction != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: systemInstruction}},
		}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, errx.WrapModel(fmt.Errorf("gemini generate content: %w", err))
	}

	return fromGenAIResponse(resp), nil
}

// toGenAIContents converts a conversation to Gemini turns. System messages
// become the system instruction; consecutive tool results are grouped into
// one user turn of function responses.
func toGenAIContents(conversation []model.Message) (string, []*genai.Content) {
	var system []string
	contents := make([]*genai.Content, 0, len(conversation))
	var pendingResponses *genai.Content

	for _, m := range conversation {
		if m.Role != model.RoleTool {
			pendingResponses = nil
		}

		switch m.Role {
		case model.RoleSystem:
			if m.Content != "" {
				system = append(system, m.Content)
			}

		case model.RoleUser:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{Text: m.Content}},
			})

		case model.RoleAssistant:
			parts := make([]*genai.Part, 0, len(m.ToolCalls)+1)
			if m.Content != "" {
				parts = append(parts, &genai.Part{Text: m.Content})
			}
			for _, call := range m.ToolCalls {
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						ID:   call.ID,
						Name: call.Name,
						Args: argumentsMap(call.Arguments),
					},
				})
			}
			if len(parts) == 0 {
				continue
			}
			contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: parts})

		case model.RoleTool:
			part := &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					ID:       m.ToolCallID,
					Name:     m.Name,
					Response: responseMap(m.Content),
				},
			}
			if pendingResponses == nil {
				pendingResponses = &genai.Content{Role: genai.RoleUser}
				contents = append(contents, pendingResponses)
			}
			pendingResponses.Parts = append(pendingResponses.Parts, part)
		}
	}

	return strings.Join(system, "\n\n"), contents
}

func argumentsMap(raw json.RawMessage) map[string]any {
	args := map[string]any{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &args)
	}
	return args
}

// responseMap parses a tool payload; Gemini needs an object, so anything
// else is wrapped as {"result": payload}.
func responseMap(payload string) map[string]any {
	var out map[string]any
	if err := json.Unmarshal([]byte(payload), &out); err != nil || out == nil {
		return map[string]any{"result": payload}
	}
	return out
}

func fromGenAIResponse(resp *genai.GenerateContentResponse) Response {
	var text strings.Builder
	var calls []model.ToolCall

	if resp == nil {
		return FinalText{}
	}

	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}

		for _, part := range candidate.Content.Parts {
			switch {
			case part == nil || part.Thought:
			case part.FunctionCall != nil:
				args, err := json.Marshal(part.FunctionCall.Args)
				if err != nil || part.FunctionCall.Args == nil {
					args = []byte("{}")
				}
				calls = append(calls, model.ToolCall{
					ID:        callID(part.FunctionCall.ID),
					Name:      part.FunctionCall.Name,
					Arguments: args,
				})
			default:
				text.WriteString(part.Text)
			}
		}

		// Only the first candidate with content is used.
		break
	}

	return newResponse(text.String(), calls)
}
