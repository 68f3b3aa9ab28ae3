package recipe

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// TemplateRunner renders a stored template with a preset context, collecting
// any remaining inputs interactively. The root package's Pipeline implements
// it; tests substitute stubs.
type TemplateRunner interface {
	RenderStored(name string, preset map[string]any) (string, error)
}

// Collaborator bundles the interactive surfaces a recipe needs: yes/no gates
// and line-input prompts.
type Collaborator interface {
	Confirm(message string, preferred bool) (bool, error)
	Input(message, preferred string) (string, error)
}

// Engine executes a recipe's actions in order, threading one variable table
// through gates, substitutions, and prompt actions. It owns the table for the
// duration of a run; nothing else touches it.
type Engine struct {
	runner TemplateRunner
	ui     Collaborator
	out    io.Writer
}

// NewEngine wires an engine to its collaborators. Progress lines and rendered
// output without a destination are written to out.
func NewEngine(runner TemplateRunner, ui Collaborator, out io.Writer) *Engine {
	if out == nil {
		out = io.Discard
	}
	return &Engine{runner: runner, ui: ui, out: out}
}

// Execute runs every action in order. A negative gate answer skips that
// action and continues; any other failure aborts immediately. Side effects of
// actions that already ran (written files, executed commands, stored
// variables) are never rolled back.
func (e *Engine) Execute(actions []Action) error {
	vars := make(map[string]string)
	for i, action := range actions {
		index := i + 1
		run, err := e.shouldRun(action, vars, index)
		if err != nil {
			return err
		}
		if !run {
			continue
		}

		switch actionType := action.Type(); actionType {
		case "template":
			err = e.runTemplate(action, vars, index)
		case "command":
			err = e.runCommand(action, vars, index)
		case "prompt":
			err = e.runPrompt(action, vars, index)
		default:
			err = fmt.Errorf("recipe: unsupported action type %q at position %d", actionType, index)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// shouldRun evaluates the optional gate. A missing gate always runs; a
// present gate is variable-substituted and confirmed with a default of yes.
func (e *Engine) shouldRun(action Action, vars map[string]string, index int) (bool, error) {
	raw, present := action["gate"]
	if !present {
		return true, nil
	}
	gate, ok := raw.(string)
	if !ok || gate == "" {
		return false, fmt.Errorf("recipe: action #%d gate must be a non-empty string when provided", index)
	}
	message, err := Substitute(gate, vars)
	if err != nil {
		return false, fmt.Errorf("recipe: action #%d: %w", index, err)
	}
	confirmed, err := e.ui.Confirm(fmt.Sprintf("[%d] %s", index, message), true)
	if err != nil {
		return false, fmt.Errorf("recipe: action #%d gate: %w", index, err)
	}
	if !confirmed {
		fmt.Fprintf(e.out, "[%d] Skipping action.\n", index)
	}
	return confirmed, nil
}

func (e *Engine) runTemplate(action Action, vars map[string]string, index int) error {
	name, ok := action["name"].(string)
	if !ok || name == "" {
		return fmt.Errorf("recipe: template action #%d must include a non-empty 'name'", index)
	}

	var preset map[string]any
	if raw, present := action["context"]; present {
		mapping, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("recipe: template action #%d expected 'context' to be a mapping", index)
		}
		resolved, err := resolveContext(mapping, vars)
		if err != nil {
			return fmt.Errorf("recipe: template action #%d: %w", index, err)
		}
		preset, err = expandDottedKeys(resolved)
		if err != nil {
			return fmt.Errorf("recipe: template action #%d: %w", index, err)
		}
	}

	fmt.Fprintf(e.out, "[%d] Rendering template %q.\n", index, name)
	rendered, err := e.runner.RenderStored(name, preset)
	if err != nil {
		return err
	}

	raw, present := action["output"]
	if !present {
		fmt.Fprintln(e.out, rendered)
		return nil
	}
	output, ok := raw.(string)
	if !ok || output == "" {
		return fmt.Errorf("recipe: template action #%d must supply 'output' as a non-empty string", index)
	}
	path, err := Substitute(output, vars)
	if err != nil {
		return fmt.Errorf("recipe: template action #%d: %w", index, err)
	}
	path = expandUser(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("recipe: create output directory for %q: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return fmt.Errorf("recipe: write template output to %q: %w", path, err)
	}
	fmt.Fprintf(e.out, "[%d] Saved output to %q.\n", index, path)
	return nil
}

func (e *Engine) runCommand(action Action, vars map[string]string, index int) error {
	raw, present := action["command"]
	if !present {
		return fmt.Errorf("recipe: command action #%d must define a 'command' field", index)
	}
	commands, err := normalizeCommand(raw, index)
	if err != nil {
		return err
	}

	env := commandEnv(vars)
	for _, entry := range commands {
		var cmd *exec.Cmd
		if entry.Args == nil {
			line, err := Substitute(entry.Line, vars)
			if err != nil {
				return fmt.Errorf("recipe: command action #%d: %w", index, err)
			}
			cmd = exec.Command("sh", "-c", line)
		} else {
			args := make([]string, len(entry.Args))
			for i, arg := range entry.Args {
				resolved, err := Substitute(arg, vars)
				if err != nil {
					return fmt.Errorf("recipe: command action #%d: %w", index, err)
				}
				args[i] = resolved
			}
			cmd = exec.Command(args[0], args[1:]...)
		}
		cmd.Env = env
		cmd.Stdin = os.Stdin
		cmd.Stdout = e.out
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				return fmt.Errorf("recipe: command action #%d exited with code %d", index, exitErr.ExitCode())
			}
			return fmt.Errorf("recipe: run command action #%d: %w", index, err)
		}
	}

	fmt.Fprintf(e.out, "[%d] Command completed successfully.\n", index)
	return nil
}

func (e *Engine) runPrompt(action Action, vars map[string]string, index int) error {
	prompt, ok := action["prompt"].(string)
	if !ok || prompt == "" {
		return fmt.Errorf("recipe: prompt action #%d must include a non-empty 'prompt'", index)
	}
	varName, ok := action["var"].(string)
	if !ok || varName == "" {
		return fmt.Errorf("recipe: prompt action #%d must include a non-empty 'var'", index)
	}

	preferred := ""
	if raw, present := action["default"]; present {
		preferred = fmt.Sprint(raw)
	}

	value, err := e.ui.Input(prompt, preferred)
	if err != nil {
		return fmt.Errorf("recipe: prompt action #%d: %w", index, err)
	}
	vars[varName] = value
	fmt.Fprintf(e.out, "[%d] Stored variable %q.\n", index, varName)
	return nil
}

// resolveContext walks a context preset and substitutes $(name) references in
// every string. A string that is exactly a known variable name, and contains
// no reference of its own, resolves to that variable's raw value rather than
// going through placeholder substitution; this keeps whole-field references
// intact instead of re-stringifying them.
func resolveContext(mapping map[string]any, vars map[string]string) (map[string]any, error) {
	out := make(map[string]any, len(mapping))
	for key, value := range mapping {
		resolved, err := resolveValue(value, vars)
		if err != nil {
			return nil, err
		}
		out[key] = resolved
	}
	return out, nil
}

func resolveValue(value any, vars map[string]string) (any, error) {
	switch typed := value.(type) {
	case string:
		resolved, err := Substitute(typed, vars)
		if err != nil {
			return nil, err
		}
		if resolved == typed {
			if raw, ok := vars[typed]; ok {
				return raw, nil
			}
		}
		return resolved, nil
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			resolved, err := resolveValue(item, vars)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	case map[string]any:
		return resolveContext(typed, vars)
	default:
		return value, nil
	}
}

// expandDottedKeys turns keys like "a.b.c" into nested mappings. Using a path
// segment both as a scalar and as a table is a conflict and fails; a leaf that
// lands on an existing table merges into it when the value is itself a
// mapping. Keys are processed in sorted order.
func expandDottedKeys(data map[string]any) (map[string]any, error) {
	expanded := make(map[string]any)
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := data[key]
		if nested, ok := value.(map[string]any); ok {
			inner, err := expandDottedKeys(nested)
			if err != nil {
				return nil, err
			}
			value = inner
		}

		parts := strings.Split(key, ".")
		target := expanded
		for _, part := range parts[:len(parts)-1] {
			existing, present := target[part]
			if !present {
				next := make(map[string]any)
				target[part] = next
				target = next
				continue
			}
			next, ok := existing.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("context key %q conflicts with previously defined scalar %q", key, part)
			}
			target = next
		}

		leaf := parts[len(parts)-1]
		existing, existingIsMap := target[leaf].(map[string]any)
		valueMap, valueIsMap := value.(map[string]any)
		if existingIsMap && !valueIsMap {
			return nil, fmt.Errorf("context key %q cannot override nested values under %q", key, leaf)
		}
		if existingIsMap && valueIsMap {
			for k, v := range valueMap {
				existing[k] = v
			}
			continue
		}
		target[leaf] = value
	}
	return expanded, nil
}

// commandEnv augments the process environment with the variable table so
// argument-vector commands see recipe variables without substitution.
func commandEnv(vars map[string]string) []string {
	env := os.Environ()
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		env = append(env, name+"="+vars[name])
	}
	return env
}

func expandUser(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
