// Package llm binds the chat loop to a model provider.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kmf-ai/server/internal/model"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultOpenAIModel = "gpt-4o-mini"
)

// Response is the outcome of one model invocation: either FinalText or
// ToolCallsRequested.
type Response interface {
	// Text is the natural-language content of the turn, possibly empty.
	Text() string
	isResponse()
}

// FinalText is a turn with no tool calls.
type FinalText struct {
	Content string
}

func (r FinalText) Text() string { return r.Content }
func (FinalText) isResponse()    {}

// ToolCallsRequested is a turn asking for at least one tool call. Content is
// any text the model produced alongside the calls.
type ToolCallsRequested struct {
	Content string
	Calls   []model.ToolCall
}

func (r ToolCallsRequested) Text() string { return r.Content }
func (ToolCallsRequested) isResponse()    {}

// Gateway invokes a model with a conversation. Implementations are bound to
// the tool specs and sampling settings at construction.
type Gateway interface {
	Invoke(ctx context.Context, conversation []model.Message) (Response, error)
}

// Config selects and configures a provider.
type Config struct {
	Provider    string
	Model       string
	Temperature float32
	APIKey      string
	BaseURL     string
}

// New builds the gateway for cfg.Provider bound to tools.
func New(ctx context.Context, cfg Config, tools []model.ToolSpec) (Gateway, error) {
	switch cfg.Provider {
	case ProviderGemini, "":
		return NewGeminiGateway(ctx, cfg, tools)
	case ProviderOpenAI:
		return NewOpenAIGateway(cfg, tools)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}

// newResponse picks the variant from what the provider returned.
func newResponse(text string, calls []model.ToolCall) Response {
	if len(calls) > 0 {
		return ToolCallsRequested{Content: text, Calls: calls}
	}
	return FinalText{Content: text}
}

// callID keeps provider ids and synthesizes one where the provider has none.
func callID(id string) string {
	if strings.TrimSpace(id) != "" {
		return id
	}
	return "call_" + uuid.NewString()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
