package introspect_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/krakentools/kt/pkg/introspect"
)

func inspect(t *testing.T, source string) introspect.Result {
	t.Helper()
	res, err := introspect.Inspect("test", source)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	return res
}

func TestInspectScalarsOnly(t *testing.T) {
	res := inspect(t, "Hello {{.greeting}}, {{.name}}!")

	want := introspect.Result{
		Free:         []string{"greeting", "name"},
		ListFields:   map[string][]string{},
		NestedFields: map[string][]string{},
	}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestInspectListFields(t *testing.T) {
	res := inspect(t, "{{range .items}}{{.name}}-{{.qty}}{{end}}")

	want := introspect.Result{
		Free:         []string{"items"},
		ListFields:   map[string][]string{"items": {"name", "qty"}},
		NestedFields: map[string][]string{},
	}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestInspectDeclaredLoopVariable(t *testing.T) {
	res := inspect(t, "{{range $item := .items}}{{$item.name}}{{end}}")

	if diff := cmp.Diff(map[string][]string{"items": {"name"}}, res.ListFields); diff != "" {
		t.Fatalf("list fields mismatch (-want +got):\n%s", diff)
	}
	if len(res.NestedFields) != 0 {
		t.Fatalf("unexpected nested fields: %#v", res.NestedFields)
	}
}

func TestInspectTupleTargets(t *testing.T) {
	res := inspect(t, "{{range $i, $row := .rows}}{{$row.cell}} {{$i.pos}}{{end}}")

	if diff := cmp.Diff(map[string][]string{"rows": {"cell", "pos"}}, res.ListFields); diff != "" {
		t.Fatalf("list fields mismatch (-want +got):\n%s", diff)
	}
}

func TestInspectNestedFields(t *testing.T) {
	res := inspect(t, "contact: {{.user.email}}")

	want := introspect.Result{
		Free:         []string{"user"},
		ListFields:   map[string][]string{},
		NestedFields: map[string][]string{"user": {"email"}},
	}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestInspectDeepChainRecordsFirstAttribute(t *testing.T) {
	res := inspect(t, "{{.cfg.host.port}}")

	if diff := cmp.Diff(map[string][]string{"cfg": {"host"}}, res.NestedFields); diff != "" {
		t.Fatalf("nested fields mismatch (-want +got):\n%s", diff)
	}
}

func TestInspectListAndNestedSignalsCoexist(t *testing.T) {
	res := inspect(t, "{{.items.count}}{{range .items}}{{.name}}{{end}}")

	if diff := cmp.Diff(map[string][]string{"items": {"name"}}, res.ListFields); diff != "" {
		t.Fatalf("list fields mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string][]string{"items": {"count"}}, res.NestedFields); diff != "" {
		t.Fatalf("nested fields mismatch (-want +got):\n%s", diff)
	}
}

func TestInspectIndexWithLiteralKey(t *testing.T) {
	res := inspect(t, `{{index .user "email"}}`)

	if diff := cmp.Diff(map[string][]string{"user": {"email"}}, res.NestedFields); diff != "" {
		t.Fatalf("nested fields mismatch (-want +got):\n%s", diff)
	}
}

func TestInspectIndexWithDynamicKeyGivesNoSignal(t *testing.T) {
	res := inspect(t, "{{index .user .key}}")

	want := introspect.Result{
		Free:         []string{"key", "user"},
		ListFields:   map[string][]string{},
		NestedFields: map[string][]string{},
	}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestInspectElseBranchOutsideLoopScope(t *testing.T) {
	res := inspect(t, "{{range .items}}{{.label}}{{else}}{{.fallback.text}}{{end}}")

	if diff := cmp.Diff(map[string][]string{"items": {"label"}}, res.ListFields); diff != "" {
		t.Fatalf("list fields mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string][]string{"fallback": {"text"}}, res.NestedFields); diff != "" {
		t.Fatalf("nested fields mismatch (-want +got):\n%s", diff)
	}
}

func TestInspectNonBareIterableGivesNoListSignal(t *testing.T) {
	res := inspect(t, "{{range .group.items}}{{.name}}{{end}}")

	if len(res.ListFields) != 0 {
		t.Fatalf("unexpected list fields: %#v", res.ListFields)
	}
	if diff := cmp.Diff(map[string][]string{"group": {"items"}}, res.NestedFields); diff != "" {
		t.Fatalf("nested fields mismatch (-want +got):\n%s", diff)
	}
}

func TestInspectMultipleLoopsUnionAttributes(t *testing.T) {
	res := inspect(t, "{{range .items}}{{.first}}{{end}}{{range .items}}{{.second}}{{end}}")

	if diff := cmp.Diff(map[string][]string{"items": {"first", "second"}}, res.ListFields); diff != "" {
		t.Fatalf("list fields mismatch (-want +got):\n%s", diff)
	}
}

func TestInspectLoopShadowsGlobalName(t *testing.T) {
	res := inspect(t, "{{.title}}{{range .items}}{{.title}}{{end}}{{.title}}")

	want := introspect.Result{
		Free:         []string{"items", "title"},
		ListFields:   map[string][]string{"items": {"title"}},
		NestedFields: map[string][]string{},
	}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestInspectRootVariableInsideLoop(t *testing.T) {
	res := inspect(t, "{{range .items}}{{$.site.url}}{{end}}")

	if diff := cmp.Diff(map[string][]string{"site": {"url"}}, res.NestedFields); diff != "" {
		t.Fatalf("nested fields mismatch (-want +got):\n%s", diff)
	}
}

func TestInspectWithBlockActsAsPathPrefix(t *testing.T) {
	res := inspect(t, "{{with .user}}{{.email}}{{end}}")

	if diff := cmp.Diff(map[string][]string{"user": {"email"}}, res.NestedFields); diff != "" {
		t.Fatalf("nested fields mismatch (-want +got):\n%s", diff)
	}
}

func TestInspectIsDeterministic(t *testing.T) {
	source := "{{range .items}}{{.b}}{{.a}}{{end}}{{.user.email}}{{.zeta}}{{.alpha}}"
	first := inspect(t, source)
	second := inspect(t, source)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("results differ between runs (-first +second):\n%s", diff)
	}
}

func TestInspectMalformedSource(t *testing.T) {
	if _, err := introspect.Inspect("test", "{{range .items}}"); err == nil {
		t.Fatal("expected parse error for unterminated range")
	}
}
