package recipe

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseActionsValidDocument(t *testing.T) {
	actions, err := ParseActions([]byte(DefaultDocument))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(actions) != 3 {
		t.Fatalf("expected 3 actions, got %d", len(actions))
	}
	types := []string{actions[0].Type(), actions[1].Type(), actions[2].Type()}
	if diff := cmp.Diff([]string{"template", "command", "prompt"}, types); diff != "" {
		t.Fatalf("action order mismatch (-want +got):\n%s", diff)
	}
}

func TestParseActionsRejectsInvalidDocuments(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{"invalid yaml", "actions: [unclosed", "invalid recipe document"},
		{"missing actions", "other: 1", "at least one entry"},
		{"empty actions", "actions: []", "at least one entry"},
		{"non-mapping entry", "actions:\n  - 42", "action #1 must be a mapping"},
		{"missing type", "actions:\n  - name: x", "action #1 is missing a 'type'"},
		{"empty type", "actions:\n  - type: \"\"", "action #1 is missing a 'type'"},
		{"second entry bad", "actions:\n  - type: prompt\n  - [1, 2]", "action #2 must be a mapping"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseActions([]byte(tc.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q should contain %q", err, tc.wantErr)
			}
		})
	}
}

func TestNormalizeCommandBareString(t *testing.T) {
	got, err := normalizeCommand("echo hi", 1)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if diff := cmp.Diff([]Command{{Line: "echo hi"}}, got); diff != "" {
		t.Fatalf("commands mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeCommandStringListIsOneVector(t *testing.T) {
	got, err := normalizeCommand([]any{"echo", "hi"}, 1)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if diff := cmp.Diff([]Command{{Args: []string{"echo", "hi"}}}, got); diff != "" {
		t.Fatalf("commands mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeCommandMixedList(t *testing.T) {
	got, err := normalizeCommand([]any{[]any{"echo", "hi"}, "ls"}, 1)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	want := []Command{
		{Args: []string{"echo", "hi"}},
		{Line: "ls"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("commands mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeCommandRejectsBadShapes(t *testing.T) {
	cases := []struct {
		name  string
		value any
	}{
		{"empty list", []any{}},
		{"number", 42},
		{"mixed with number", []any{[]any{"echo"}, 42}},
		{"mixed with empty vector", []any{"ls", []any{}}},
		{"mixed with non-string args", []any{"ls", []any{"echo", 1}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := normalizeCommand(tc.value, 3); err == nil {
				t.Fatal("expected error")
			} else if !strings.Contains(err.Error(), "#3") {
				t.Fatalf("error should carry the action index: %v", err)
			}
		})
	}
}
