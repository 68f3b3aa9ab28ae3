package skeleton_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/krakentools/kt/pkg/introspect"
	"github.com/krakentools/kt/pkg/skeleton"
)

func build(t *testing.T, res introspect.Result, preset map[string]any) string {
	t.Helper()
	doc, err := skeleton.Build(res, preset)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return doc
}

func decode(t *testing.T, doc string) map[string]any {
	t.Helper()
	out, err := skeleton.Decode(doc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestBuildScalarsOnly(t *testing.T) {
	doc := build(t, introspect.Result{Free: []string{"greeting", "name"}}, nil)

	want := "# Update the values below and save to render the template.\n" +
		"greeting: \"\"\n" +
		"name: \"\"\n"
	if doc != want {
		t.Fatalf("document mismatch:\n%s", cmp.Diff(want, doc))
	}
}

func TestBuildOrdersScalarsTablesThenArrays(t *testing.T) {
	res := introspect.Result{
		Free:         []string{"greeting", "items", "name", "user"},
		ListFields:   map[string][]string{"items": {"name", "qty"}},
		NestedFields: map[string][]string{"user": {"email"}},
	}
	doc := build(t, res, nil)

	want := "# Update the values below and save to render the template.\n" +
		"greeting: \"\"\n" +
		"name: \"\"\n" +
		"user:\n" +
		"    email: \"\"\n" +
		"items:\n" +
		"    - name: \"\"\n" +
		"      qty: \"\"\n"
	if doc != want {
		t.Fatalf("document mismatch:\n%s", cmp.Diff(want, doc))
	}
}

func TestBuildListWinsOverNested(t *testing.T) {
	res := introspect.Result{
		Free:         []string{"items"},
		ListFields:   map[string][]string{"items": {"name"}},
		NestedFields: map[string][]string{"items": {"count"}},
	}
	got := decode(t, build(t, res, nil))

	want := map[string]any{
		"items": []any{map[string]any{"name": ""}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildListWithoutAttributesDefaultsToValueField(t *testing.T) {
	res := introspect.Result{
		Free:       []string{"items"},
		ListFields: map[string][]string{"items": {}},
	}
	got := decode(t, build(t, res, nil))

	want := map[string]any{
		"items": []any{map[string]any{"value": ""}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildEmptyWhenNothingToCollect(t *testing.T) {
	doc := build(t, introspect.Result{}, nil)
	if doc != "" {
		t.Fatalf("expected empty document, got %q", doc)
	}
}

func TestBuildPresetMergesIntoTable(t *testing.T) {
	res := introspect.Result{
		Free:         []string{"user"},
		NestedFields: map[string][]string{"user": {"email", "name"}},
	}
	preset := map[string]any{
		"user": map[string]any{"email": "a@b.com"},
	}
	got := decode(t, build(t, res, preset))

	want := map[string]any{
		"user": map[string]any{"email": "a@b.com", "name": ""},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildPresetReplacesArrayContents(t *testing.T) {
	res := introspect.Result{
		Free:       []string{"items"},
		ListFields: map[string][]string{"items": {"name", "qty"}},
	}
	preset := map[string]any{
		"items": []any{
			map[string]any{"name": "bolt", "qty": 2},
			"loose",
		},
	}
	got := decode(t, build(t, res, preset))

	want := map[string]any{
		"items": []any{
			map[string]any{"name": "bolt", "qty": 2},
			"loose",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildPresetOverwritesScalarsAndAddsKeys(t *testing.T) {
	res := introspect.Result{Free: []string{"greeting", "name"}}
	preset := map[string]any{
		"greeting": "hi",
		"extra":    42,
	}
	got := decode(t, build(t, res, preset))

	want := map[string]any{
		"greeting": "hi",
		"name":     "",
		"extra":    42,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildPresetCreatesMissingTable(t *testing.T) {
	res := introspect.Result{Free: []string{"greeting"}}
	preset := map[string]any{
		"user": map[string]any{"email": "a@b.com"},
	}
	got := decode(t, build(t, res, preset))

	want := map[string]any{
		"greeting": "",
		"user":     map[string]any{"email": "a@b.com"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildKeepsLeadingComment(t *testing.T) {
	doc := build(t, introspect.Result{Free: []string{"name"}}, map[string]any{"name": "kt"})
	if !strings.HasPrefix(doc, "# Update the values below") {
		t.Fatalf("document lost its leading comment:\n%s", doc)
	}
}

func TestDecodeRejectsInvalidDocument(t *testing.T) {
	if _, err := skeleton.Decode("name: [unclosed"); err == nil {
		t.Fatal("expected decode error")
	}
}
