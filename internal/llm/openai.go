package llm

import (
	"context"
	"fmt"
	"math"

	"github.com/kmf-ai/server/internal/errx"
	"github.com/kmf-ai/server/internal/model"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAIGateway calls an OpenAI-compatible chat completions endpoint.
type OpenAIGateway struct {
	client      *openai.Client
	model       string
	temperature float32
	tools       []openai.ChatCompletionToolParam
}

// NewOpenAIGateway creates an OpenAI gateway. A non-empty BaseURL targets any
// OpenAI-compatible endpoint.
func NewOpenAIGateway(cfg Config, specs []model.ToolSpec) (*OpenAIGateway, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm: OpenAI API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	client := openai.NewClient(opts...)

	return &OpenAIGateway{
		client:      &client,
		model:       orDefault(cfg.Model, DefaultOpenAIModel),
		temperature: cfg.Temperature,
		tools:       toOpenAITools(specs),
	}, nil
}

func toOpenAITools(specs []model.ToolSpec) []openai.ChatCompletionToolParam {
	tools := make([]openai.ChatCompletionToolParam, 0, len(specs))
	for _, spec := range specs {
		tools = append(tools, openai.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        spec.Name,
				Description: openai.String(spec.Description),
				Parameters:  shared.FunctionParameters(spec.Parameters),
			},
		})
	}
	return tools
}

func toOpenAIMessages(conversation []model.Message) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(conversation))

	for _, m := range conversation {
		switch m.Role {
		case model.RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Content))

		case model.RoleUser:
			messages = append(messages, openai.UserMessage(m.Content))

		case model.RoleAssistant:
			if len(m.ToolCalls) == 0 {
				messages = append(messages, openai.AssistantMessage(m.Content))
				continue
			}

			asst := openai.ChatCompletionAssistantMessageParam{}
			if m.Content != "" {
				asst.Content.OfString = openai.String(m.Content)
			}
			for _, call := range m.ToolCalls {
				arguments := string(call.Arguments)
				if arguments == "" {
					arguments = "{}"
				}
				asst.ToolCalls = append(asst.ToolCalls, openai.ChatCompletionMessageToolCallParam{
					ID: call.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      call.Name,
						Arguments: arguments,
					},
				})
			}
			messages = append(messages, openai.ChatCompletionMessageParamUnion{OfAssistant: &asst})

		case model.RoleTool:
			messages = append(messages, openai.ToolMessage(m.Content, m.ToolCallID))
		}
	}

	return messages
}

func (g *OpenAIGateway) Invoke(ctx context.Context, conversation []model.Message) (Response, error) {
	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(g.model),
		Messages:    toOpenAIMessages(conversation),
		Temperature: openai.Float(math.Round(float64(g.temperature)*1000) / 1000),
	}
	if len(g.tools) > 0 {
		params.Tools = g.tools
	}

	completion, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, errx.WrapModel(fmt.Errorf("openai chat completion: %w", err))
	}

	if len(completion.Choices) == 0 {
		return FinalText{}, nil
	}

	message := completion.Choices[0].Message

	var calls []model.ToolCall
	for _, tc := range message.ToolCalls {
		arguments := tc.Function.Arguments
		if arguments == "" {
			arguments = "{}"
		}
		calls = append(calls, model.ToolCall{
			ID:        callID(tc.ID),
			Name:      tc.Function.Name,
			Arguments: []byte(arguments),
		})
	}

	return newResponse(message.Content, calls), nil
}
