package contact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelLabels(t *testing.T) {
	tests := []struct {
		code  string
		full  string
		short string
	}{
		{"h2-maths", "H2 Mathematics (JC)", "H2 Mathematics"},
		{"h1-maths", "H1 Mathematics (JC)", "H1 Mathematics"},
		{"a-maths", "A Mathematics (Sec 3-4)", "A Mathematics"},
		{"primary-maths", "primary-maths", "Mathematics"},
		{"", "", "Mathematics"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.full, LevelLabel(tt.code))
			assert.Equal(t, tt.short, LevelShortLabel(tt.code))
		})
	}
}

func TestCatalog(t *testing.T) {
	levels := Catalog([]string{"h2-maths", "a-maths"}, []string{"primary-maths"})

	assert.Len(t, levels, 8)
	assert.Equal(t, Level{Value: "h2-maths", Label: "H2 Mathematics (JC)"}, levels[0])
	assert.Equal(t, Level{Value: "a-maths", Label: "A Mathematics (Sec 3-4)"}, levels[1])
	assert.Equal(t, Level{Value: "primary-maths", Label: "Primary 1 Mathematics"}, levels[2])
	assert.Equal(t, Level{Value: "primary-maths", Label: "Primary 6 Mathematics"}, levels[7])
}

func TestCatalog_OtherTrap(t *testing.T) {
	levels := Catalog(nil, []string{"o-level"})
	assert.Equal(t, []Level{{Value: "o-level", Label: "o-level"}}, levels)
}

func TestLooseString(t *testing.T) {
	assert.Equal(t, "", looseString(nil))
	assert.Equal(t, "", looseString(""))
	assert.Equal(t, "", looseString(false))
	assert.Equal(t, "", looseString(float64(0)))
	assert.Equal(t, "x", looseString("x"))
	assert.Equal(t, "true", looseString(true))
	assert.Equal(t, "42", looseString(float64(42)))
	assert.Equal(t, "91234567", looseString(float64(91234567)))
	assert.Equal(t, "1.5", looseString(1.5))
	assert.Equal(t, "set", looseString(map[string]interface{}{}))
}
