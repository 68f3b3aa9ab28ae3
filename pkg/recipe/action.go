package recipe

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// DefaultDocument seeds new recipes with one example of each action type.
const DefaultDocument = `# Define the ordered actions for the recipe
actions:
  - type: template
    name: example-template
    output: output.txt

  - type: command
    command: ["echo", "Hello from Kraken Templates"]

  - type: prompt
    var: name
    prompt: What is your name?
`

// Action is one parsed recipe step. Only "type" is validated at parse time;
// the executor checks the type-specific fields when the action is dispatched,
// so a recipe fails fast on structure but reports field problems with the
// action's position.
type Action map[string]any

// Type returns the action's declared type. ParseActions guarantees it is a
// non-empty string.
func (a Action) Type() string {
	t, _ := a["type"].(string)
	return t
}

// ParseActions deserializes a recipe document and validates its shape: a
// non-empty "actions" list whose entries are mappings carrying a non-empty
// string "type". Positions in error messages are 1-based.
func ParseActions(content []byte) ([]Action, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("recipe: invalid recipe document: %w", err)
	}

	raw, ok := doc["actions"].([]any)
	if !ok || len(raw) == 0 {
		return nil, fmt.Errorf("recipe: recipe must define at least one entry under 'actions'")
	}

	actions := make([]Action, 0, len(raw))
	for i, entry := range raw {
		mapping, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("recipe: action #%d must be a mapping", i+1)
		}
		actionType, ok := mapping["type"].(string)
		if !ok || actionType == "" {
			return nil, fmt.Errorf("recipe: action #%d is missing a 'type'", i+1)
		}
		actions = append(actions, Action(mapping))
	}
	return actions, nil
}

// Command is one executable entry of a command action: either a single line
// run with shell interpretation, or an explicit argument vector run without.
type Command struct {
	Line string
	Args []string
}

// normalizeCommand coerces a command action's "command" field into an ordered
// sequence of Command entries. A bare string is one shell line; a list of
// strings is exactly one argument vector; a mixed list normalizes each element
// on its own (string means shell line, list of strings means argument vector).
func normalizeCommand(value any, index int) ([]Command, error) {
	switch typed := value.(type) {
	case string:
		return []Command{{Line: typed}}, nil
	case []any:
		if len(typed) == 0 {
			return nil, fmt.Errorf("recipe: command action #%d must provide a non-empty 'command' value", index)
		}
		if args, ok := stringSlice(typed); ok {
			return []Command{{Args: args}}, nil
		}
		commands := make([]Command, 0, len(typed))
		for _, item := range typed {
			switch entry := item.(type) {
			case string:
				commands = append(commands, Command{Line: entry})
			case []any:
				args, ok := stringSlice(entry)
				if !ok || len(args) == 0 {
					return nil, fmt.Errorf("recipe: command action #%d must provide strings, lists of strings, or a list combining those command definitions", index)
				}
				commands = append(commands, Command{Args: args})
			default:
				return nil, fmt.Errorf("recipe: command action #%d must provide strings, lists of strings, or a list combining those command definitions", index)
			}
		}
		return commands, nil
	default:
		return nil, fmt.Errorf("recipe: command action #%d must provide 'command' as a string, list of strings, or list of command definitions", index)
	}
}

func stringSlice(values []any) ([]string, bool) {
	out := make([]string, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}
