package contact

type Level struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var levelLabels = map[string]string{
	"h2-maths": "H2 Mathematics (JC)",
	"h1-maths": "H1 Mathematics (JC)",
	"a-maths":  "A Mathematics (Sec 3-4)",
}

var levelShortLabels = map[string]string{
	"h2-maths": "H2 Mathematics",
	"h1-maths": "H1 Mathematics",
	"a-maths":  "A Mathematics",
}

// LevelLabel returns the display name for a level code, or the code itself
// when it is not a known level.
func LevelLabel(code string) string {
	if label, ok := levelLabels[code]; ok {
		return label
	}
	return code
}

func LevelShortLabel(code string) string {
	if label, ok := levelShortLabels[code]; ok {
		return label
	}
	return "Mathematics"
}

// Catalog lists the select options for the form: the real levels first and
// then the decoys. primary-maths expands to one option per primary grade,
// all sharing the same value.
func Catalog(valid, trap []string) []Level {
	levels := make([]Level, 0, len(valid)+6*len(trap))
	for _, code := range valid {
		levels = append(levels, Level{Value: code, Label: LevelLabel(code)})
	}
	for _, code := range trap {
		levels = append(levels, trapOptions(code)...)
	}
	return levels
}

func trapOptions(code string) []Level {
	if code != "primary-maths" {
		return []Level{{Value: code, Label: LevelLabel(code)}}
	}
	grades := []string{"1", "2", "3", "4", "5", "6"}
	options := make([]Level, 0, len(grades))
	for _, grade := range grades {
		options = append(options, Level{Value: code, Label: "Primary " + grade + " Mathematics"})
	}
	return options
}
