package tui

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
)

const fallbackEditor = "vi"

// ErrNotSaved is returned when an editor session ends without the file being
// written.
var ErrNotSaved = errors.New("tui: editor closed without saving")

// Editor collects multi-line input by opening the user's editor on a seeded
// temp file and reading the result back. Saving is detected through the
// file's modification time, so quitting without writing surfaces ErrNotSaved.
type Editor struct {
	// Command is the editor command line; the temp file path is appended as a
	// shell-quoted argument.
	Command string
}

// NewEditor resolves the editor command from KT_EDITOR, VISUAL, then EDITOR,
// falling back to vi.
func NewEditor() Editor {
	for _, key := range []string{"KT_EDITOR", "VISUAL", "EDITOR"} {
		if cmd := os.Getenv(key); cmd != "" {
			return Editor{Command: cmd}
		}
	}
	return Editor{Command: fallbackEditor}
}

// Edit writes seed to a temp file with the suggested extension, runs the
// editor on it, and returns the edited content. The session must save the
// file at least once or ErrNotSaved is returned.
func (e Editor) Edit(seed, extension string) (string, error) {
	f, err := os.CreateTemp("", "kt-*"+extension)
	if err != nil {
		return "", fmt.Errorf("tui: create temp file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if err := f.Chmod(0o600); err != nil {
		f.Close()
		return "", fmt.Errorf("tui: prepare temp file: %w", err)
	}
	if _, err := f.WriteString(seed); err != nil {
		f.Close()
		return "", fmt.Errorf("tui: seed temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("tui: seed temp file: %w", err)
	}

	before, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("tui: stat temp file: %w", err)
	}

	command := e.Command
	if command == "" {
		command = fallbackEditor
	}
	cmd := exec.Command("sh", "-c", fmt.Sprintf("%s %q", command, path))
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tui: run editor %q: %w", command, err)
	}

	after, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("tui: stat temp file: %w", err)
	}
	if after.ModTime().Equal(before.ModTime()) && after.Size() == before.Size() {
		return "", ErrNotSaved
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("tui: read edited file: %w", err)
	}
	return string(data), nil
}
