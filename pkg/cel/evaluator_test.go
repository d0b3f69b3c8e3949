package cel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvaluator(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)
	assert.NotNil(t, eval)
}

func TestValidateExpression(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	tests := []struct {
		name      string
		expr      string
		wantError bool
	}{
		{
			name: "string contains",
			expr: `message.contains("http://")`,
		},
		{
			name: "domain list",
			expr: `emailDomain in ["spam.example", "junk.example"]`,
		},
		{
			name: "size check",
			expr: `size(message) > 2000 && subjectLevel == "a-maths"`,
		},
		{
			name:      "non-bool expression",
			expr:      `fullName`,
			wantError: true,
		},
		{
			name:      "invalid syntax",
			expr:      `invalid syntax here!!!`,
			wantError: true,
		},
		{
			name:      "undefined variable",
			expr:      `phoneNumber == "1"`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := eval.ValidateExpression(tt.expr)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProgramEvaluate(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	prg, err := eval.Compile("links", `message.contains("http://") || fullName.matches("^[A-Z]+$")`)
	require.NoError(t, err)
	assert.Equal(t, "links", prg.Name)

	tests := []struct {
		name   string
		fields Fields
		want   bool
	}{
		{
			name:   "clean enquiry",
			fields: Fields{FullName: "Jane Tan", Message: "Do you have Saturday slots?"},
			want:   false,
		},
		{
			name:   "link in message",
			fields: Fields{FullName: "Jane Tan", Message: "visit http://cheap.example"},
			want:   true,
		},
		{
			name:   "shouting name",
			fields: Fields{FullName: "BUYNOW", Message: "hi"},
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := prg.Evaluate(context.Background(), tt.fields)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompileNamesRuleInError(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	_, err = eval.Compile("broken", `message +`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `rule "broken"`)
}
