package recipe

import (
	"fmt"
	"regexp"
)

// variablePattern matches $(name) references inside action strings. There is
// no escape syntax; a literal "$(" cannot be produced.
var variablePattern = regexp.MustCompile(`\$\(([A-Za-z_][A-Za-z0-9_]*)\)`)

// UnknownVariableError reports a $(name) reference with no entry in the
// variable table.
type UnknownVariableError struct {
	Name string
}

func (e *UnknownVariableError) Error() string {
	return fmt.Sprintf("unknown variable %q referenced in recipe action", e.Name)
}

// Substitute replaces every $(name) reference in text with its value from
// vars. The first reference to a name absent from the table fails the whole
// substitution.
func Substitute(text string, vars map[string]string) (string, error) {
	var missing *UnknownVariableError
	out := variablePattern.ReplaceAllStringFunc(text, func(match string) string {
		name := match[2 : len(match)-1]
		value, ok := vars[name]
		if !ok {
			if missing == nil {
				missing = &UnknownVariableError{Name: name}
			}
			return match
		}
		return value
	})
	if missing != nil {
		return "", missing
	}
	return out, nil
}
