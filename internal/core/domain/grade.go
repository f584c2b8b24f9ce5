package domain

import (
	"fmt"
	"strings"
)

// Grade is the ordinal quality judgment returned by the evaluator.
type Grade int

const (
	GradeUnknown Grade = iota
	GradeBad
	GradeOkay
	GradeGood
	GradeGreat
)

var gradeNames = map[Grade]string{
	GradeUnknown: "unknown",
	GradeBad:     "bad",
	GradeOkay:    "okay",
	GradeGood:    "good",
	GradeGreat:   "great",
}

// GradeNames lists the grades an evaluator may return, lowest first.
func GradeNames() []string {
	return []string{"bad", "okay", "good", "great"}
}

// LookupGrade reports the grade named by raw, ignoring case and
// surrounding space. "unknown" is not a valid name.
func LookupGrade(raw string) (Grade, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	for grade, name := range gradeNames {
		if grade != GradeUnknown && name == normalized {
			return grade, true
		}
	}
	return GradeUnknown, false
}

// ParseGrade is LookupGrade for operator-supplied values; an unknown name
// is invalid input.
func ParseGrade(raw string) (Grade, error) {
	if grade, ok := LookupGrade(raw); ok {
		return grade, nil
	}
	return GradeUnknown, WrapError(ErrInvalidInput, "parse grade", fmt.Errorf("unknown grade %q", raw))
}

func (g Grade) String() string {
	if name, ok := gradeNames[g]; ok {
		return name
	}
	return fmt.Sprintf("grade(%d)", int(g))
}

func (g Grade) AtLeast(other Grade) bool {
	return g >= other
}

func (g Grade) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

func (g *Grade) UnmarshalText(text []byte) error {
	if strings.EqualFold(strings.TrimSpace(string(text)), "unknown") {
		*g = GradeUnknown
		return nil
	}
	parsed, err := ParseGrade(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}
