package functions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/kmf-ai/server/internal/errx"
	"github.com/kmf-ai/server/internal/model"
)

// DefaultStatus is shown while a tool without its own status phrase runs.
const DefaultStatus = "Fetching exam data..."

// CallFn executes a tool with arguments already checked against its schema.
type CallFn func(ctx context.Context, args map[string]any) (any, error)

// FunctionDeclaration describes one tool the model may call.
type FunctionDeclaration struct {
	Name             string
	Description      string
	Status           string
	ParametersSchema map[string]any
	FunctionCall     CallFn

	resolved *jsonschema.Resolved
}

// Spec returns the declaration as bound to a model provider.
func (fd *FunctionDeclaration) Spec() model.ToolSpec {
	return model.ToolSpec{
		Name:        fd.Name,
		Description: fd.Description,
		Parameters:  fd.ParametersSchema,
	}
}

// Registry maps tool names to declarations. It is populated at startup and
// read-only afterwards.
type Registry struct {
	functionsMap map[string]*FunctionDeclaration
	order        []string
}

func NewRegistry() *Registry {
	return &Registry{
		functionsMap: make(map[string]*FunctionDeclaration),
	}
}

// AddFunctionCall registers fd. Names must be unique.
func (r *Registry) AddFunctionCall(fd *FunctionDeclaration) error {
	if fd == nil {
		return fmt.Errorf("function declaration cannot be nil")
	}

	if fd.Name == "" {
		return fmt.Errorf("function name cannot be empty")
	}

	if fd.FunctionCall == nil {
		return fmt.Errorf("function %s: call implementation cannot be nil", fd.Name)
	}

	if _, exists := r.functionsMap[fd.Name]; exists {
		return fmt.Errorf("function %s already registered", fd.Name)
	}

	if fd.ParametersSchema == nil {
		fd.ParametersSchema = map[string]any{"type": "object", "properties": map[string]any{}}
	}

	resolved, err := resolveSchema(fd.ParametersSchema)
	if err != nil {
		return fmt.Errorf("function %s: %w", fd.Name, err)
	}
	fd.resolved = resolved

	r.functionsMap[fd.Name] = fd
	r.order = append(r.order, fd.Name)

	return nil
}

// Specs lists every tool in registration order.
func (r *Registry) Specs() []model.ToolSpec {
	specs := make([]model.ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		specs = append(specs, r.functionsMap[name].Spec())
	}
	return specs
}

func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

func (r *Registry) Lookup(name string) (*FunctionDeclaration, bool) {
	fd, ok := r.functionsMap[name]
	return fd, ok
}

// Status returns the progress phrase for a tool, DefaultStatus if it has none
// or is unknown.
func (r *Registry) Status(name string) string {
	if fd, ok := r.functionsMap[name]; ok && fd.Status != "" {
		return fd.Status
	}
	return DefaultStatus
}

// Invoke runs the named tool and returns its payload as compact JSON.
// Errors match errx.ErrUnknownTool, errx.ErrInvalidArguments or
// errx.ErrToolExecution. A panicking tool is reported as an execution error.
func (r *Registry) Invoke(ctx context.Context, name string, raw json.RawMessage) (payload string, err error) {
	fd, ok := r.functionsMap[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", errx.ErrUnknownTool, name)
	}

	args, err := decodeArguments(raw)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}

	args, err = normalizeArguments(fd.ParametersSchema, args)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}

	if err := validateArguments(fd.resolved, args); err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}

	defer func() {
		if rec := recover(); rec != nil {
			payload = ""
			err = fmt.Errorf("%w: %s: panic: %v", errx.ErrToolExecution, name, rec)
		}
	}()

	result, err := fd.FunctionCall(ctx, args)
	if err != nil {
		if errors.Is(err, errx.ErrInvalidArguments) {
			return "", fmt.Errorf("%s: %w", name, err)
		}
		return "", fmt.Errorf("%w: %s: %w", errx.ErrToolExecution, name, err)
	}

	data, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("%w: %s: encode result: %w", errx.ErrToolExecution, name, err)
	}

	return string(data), nil
}

// ErrorPayload renders err as the {"error": "..."} result handed back to
// the model in place of a tool payload.
func ErrorPayload(err error) string {
	data, _ := json.Marshal(map[string]string{"error": err.Error()})
	return string(data)
}

// validator is implemented by argument structs with rules beyond the schema.
type validator interface {
	Validate() error
}

// Typed declares a tool whose arguments bind to the struct A. The parameter
// schema is reflected from A's json and jsonschema tags.
func Typed[A any](name, description, status string, call func(ctx context.Context, args A) (any, error)) (*FunctionDeclaration, error) {
	schema, err := reflectSchema[A]()
	if err != nil {
		return nil, fmt.Errorf("function %s: %w", name, err)
	}

	return &FunctionDeclaration{
		Name:             name,
		Description:      description,
		Status:           status,
		ParametersSchema: schema,
		FunctionCall: func(ctx context.Context, raw map[string]any) (any, error) {
			args, err := bindArguments[A](raw)
			if err != nil {
				return nil, err
			}

			if v, ok := any(&args).(validator); ok {
				if err := v.Validate(); err != nil {
					return nil, invalidArguments("%v", err)
				}
			}

			return call(ctx, args)
		},
	}, nil
}
