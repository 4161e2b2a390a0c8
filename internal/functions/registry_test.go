package functions

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/kmf-ai/server/internal/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_AddFunctionCall(t *testing.T) {
	r := NewRegistry()
	noop := func(context.Context, map[string]any) (any, error) { return nil, nil }

	assert.Error(t, r.AddFunctionCall(nil))
	assert.Error(t, r.AddFunctionCall(&FunctionDeclaration{FunctionCall: noop}))
	assert.Error(t, r.AddFunctionCall(&FunctionDeclaration{Name: "x"}))

	require.NoError(t, r.AddFunctionCall(&FunctionDeclaration{Name: "x", FunctionCall: noop}))
	assert.Error(t, r.AddFunctionCall(&FunctionDeclaration{Name: "x", FunctionCall: noop}))

	specs := r.Specs()
	require.Len(t, specs, 1)
	assert.Equal(t, "object", specs[0].Parameters["type"])
}

func TestRegistry_UnknownTool(t *testing.T) {
	r := NewRegistry()

	_, err := r.Invoke(context.Background(), "get_weather", json.RawMessage(`{"location":"Nairobi"}`))
	require.ErrorIs(t, err, errx.ErrUnknownTool)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(ErrorPayload(err)), &payload))
	assert.IsType(t, "", payload["error"])
	assert.Contains(t, payload["error"], "get_weather")
}

func TestRegistry_ExecutionErrors(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.AddFunctionCall(&FunctionDeclaration{
		Name: "fails",
		FunctionCall: func(context.Context, map[string]any) (any, error) {
			return nil, errors.New("store offline")
		},
	}))
	require.NoError(t, r.AddFunctionCall(&FunctionDeclaration{
		Name: "panics",
		FunctionCall: func(context.Context, map[string]any) (any, error) {
			panic("nil map")
		},
	}))
	require.NoError(t, r.AddFunctionCall(&FunctionDeclaration{
		Name: "unencodable",
		FunctionCall: func(context.Context, map[string]any) (any, error) {
			return map[string]any{"c": make(chan int)}, nil
		},
	}))

	for _, name := range []string{"fails", "panics", "unencodable"} {
		payload, err := r.Invoke(context.Background(), name, nil)
		assert.ErrorIs(t, err, errx.ErrToolExecution, name)
		assert.Empty(t, payload, name)
	}
}

type echoArgs struct {
	Word  string `json:"word" jsonschema:"description=Word to echo"`
	Times int    `json:"times,omitempty"`
}

func (a *echoArgs) Validate() error {
	if a.Times > 3 {
		return errors.New("times must be at most 3")
	}
	return nil
}

func TestTyped_BindsAndValidates(t *testing.T) {
	fd, err := Typed("echo", "Echo a word.", "", func(_ context.Context, args echoArgs) (any, error) {
		return map[string]any{"word": args.Word, "times": args.Times}, nil
	})
	require.NoError(t, err)

	r := NewRegistry()
	require.NoError(t, r.AddFunctionCall(fd))

	payload, err := r.Invoke(context.Background(), "echo", json.RawMessage(`{"word":"jambo","times":"2","extra":true}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"word":"jambo","times":2}`, payload)

	_, err = r.Invoke(context.Background(), "echo", json.RawMessage(`{"word":"jambo","times":4}`))
	assert.ErrorIs(t, err, errx.ErrInvalidArguments)

	assert.Equal(t, DefaultStatus, r.Status("echo"))
}

func TestRegistry_EnforcesSchemaBounds(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.AddFunctionCall(&FunctionDeclaration{
		Name: "page",
		ParametersSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"size": map[string]any{"type": "integer", "minimum": 1, "maximum": 50},
			},
		},
		FunctionCall: func(_ context.Context, args map[string]any) (any, error) {
			return args, nil
		},
	}))

	payload, err := r.Invoke(context.Background(), "page", json.RawMessage(`{"size":"50"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"size":50}`, payload)

	for _, args := range []string{`{"size":0}`, `{"size":51}`, `{"size":-3.0}`} {
		_, err := r.Invoke(context.Background(), "page", json.RawMessage(args))
		assert.ErrorIs(t, err, errx.ErrInvalidArguments, args)
	}
}

func TestToInteger(t *testing.T) {
	tests := []struct {
		in   any
		want int64
		ok   bool
	}{
		{in: float64(2023), want: 2023, ok: true},
		{in: "2023", want: 2023, ok: true},
		{in: "2023.0", want: 2023, ok: true},
		{in: json.Number("7"), want: 7, ok: true},
		{in: float64(-1 << 63), want: -1 << 63, ok: true},
		{in: 2023.5},
		{in: 1e300},
		{in: -1e300},
		{in: float64(1 << 63)},
		{in: "1e300"},
		{in: "twenty"},
		{in: true},
	}

	for _, tt := range tests {
		got, ok := toInteger(tt.in)
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "exact", truncate("exact", 5))
	assert.Equal(t, "abc...", truncate("abcdef", 3))
	assert.Equal(t, "ñañ...", truncate("ñañaña", 3))
	assert.Equal(t, "untouched", truncate("untouched", 0))
}
