package cel

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"
)

// Fields is the flat view of a submission that rule expressions see.
type Fields struct {
	FullName     string
	Email        string
	EmailDomain  string
	SubjectLevel string
	Message      string
}

func (f Fields) vars() map[string]interface{} {
	return map[string]interface{}{
		"fullName":     f.FullName,
		"email":        f.Email,
		"emailDomain":  f.EmailDomain,
		"subjectLevel": f.SubjectLevel,
		"message":      f.Message,
	}
}

type Evaluator struct {
	env *cel.Env
}

func NewEvaluator() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("fullName", cel.StringType),
		cel.Variable("email", cel.StringType),
		cel.Variable("emailDomain", cel.StringType),
		cel.Variable("subjectLevel", cel.StringType),
		cel.Variable("message", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Evaluator{env: env}, nil
}

// Program is a compiled boolean rule.
type Program struct {
	Name string
	prg  cel.Program
}

func (e *Evaluator) ValidateExpression(expression string) error {
	_, err := e.compileBool(expression)
	return err
}

// Compile type-checks expression and requires it to produce a bool.
func (e *Evaluator) Compile(name, expression string) (*Program, error) {
	ast, err := e.compileBool(expression)
	if err != nil {
		return nil, fmt.Errorf("rule %q: %w", name, err)
	}

	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("rule %q: failed to create CEL program: %w", name, err)
	}

	return &Program{Name: name, prg: prg}, nil
}

func (e *Evaluator) compileBool(expression string) (*cel.Ast, error) {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("CEL expression validation failed: %w", issues.Err())
	}

	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("rule expression must return bool, got %v", ast.OutputType())
	}

	return ast, nil
}

func (p *Program) Evaluate(ctx context.Context, fields Fields) (bool, error) {
	result, _, err := p.prg.ContextEval(ctx, fields.vars())
	if err != nil {
		return false, fmt.Errorf("failed to evaluate CEL expression: %w", err)
	}

	boolVal, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("CEL expression did not return bool, got %T", result.Value())
	}

	return boolVal, nil
}
