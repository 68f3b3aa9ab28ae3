package render

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"text/template"
)

// commandBlock matches {>cmd<} markers in rendered output. The body may span
// lines and matches non-greedily so adjacent markers stay separate.
var commandBlock = regexp.MustCompile(`(?s)\{>(.*?)<\}`)

// Render evaluates source against context under strict missing-key semantics,
// then replaces every {>cmd<} marker in the evaluated text with the captured
// standard output of running its body as a shell command. Referencing any
// variable absent from context, at any depth, fails the render. Command
// markers are resolved strictly after evaluation, so their bodies are never
// themselves template-expanded.
func Render(name, source string, context map[string]any) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(source)
	if err != nil {
		return "", fmt.Errorf("render: parse template %q: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, context); err != nil {
		return "", fmt.Errorf("render: template %q: %w", name, err)
	}

	return SubstituteCommands(buf.String())
}

// SubstituteCommands expands {>cmd<} markers in content. Each command body is
// trimmed and run via the shell; its stdout replaces the marker with trailing
// newlines stripped. An empty body or a non-zero exit aborts the whole
// substitution.
func SubstituteCommands(content string) (string, error) {
	matches := commandBlock.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return content, nil
	}

	var out strings.Builder
	last := 0
	for _, m := range matches {
		out.WriteString(content[last:m[0]])
		last = m[1]

		command := strings.TrimSpace(content[m[2]:m[3]])
		if command == "" {
			return "", errors.New("render: encountered empty command substitution block {><}")
		}

		stdout, err := runShell(command)
		if err != nil {
			return "", err
		}
		out.WriteString(stdout)
	}
	out.WriteString(content[last:])
	return out.String(), nil
}

func runShell(command string) (string, error) {
	cmd := exec.Command("sh", "-c", command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			detail := strings.TrimSpace(stderr.String())
			if detail != "" {
				detail = ": " + detail
			}
			return "", fmt.Errorf("render: command %q failed with exit code %d%s", command, exitErr.ExitCode(), detail)
		}
		return "", fmt.Errorf("render: run command %q: %w", command, err)
	}

	return strings.TrimRight(stdout.String(), "\n"), nil
}
