// Package kt stores parameterized text templates and multi-step recipes, and
// materializes them by inferring each template's inputs, collecting those
// inputs, and rendering or executing accordingly.
package kt

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/krakentools/kt/pkg/introspect"
	"github.com/krakentools/kt/pkg/recipe"
	"github.com/krakentools/kt/pkg/render"
	"github.com/krakentools/kt/pkg/skeleton"
	"github.com/krakentools/kt/pkg/store"
	"github.com/krakentools/kt/pkg/tui"
)

// SessionEditor collects raw multi-line input by opening an editor session on
// seeded content.
type SessionEditor interface {
	Edit(seed, extension string) (string, error)
}

// Option customises the pipeline configuration.
type Option func(*Pipeline)

// WithTemplates injects the template store.
func WithTemplates(s store.Store) Option {
	return func(p *Pipeline) { p.templates = s }
}

// WithRecipes injects the recipe store.
func WithRecipes(s store.Store) Option {
	return func(p *Pipeline) { p.recipes = s }
}

// WithUI injects the interactive prompt driver.
func WithUI(d tui.Driver) Option {
	return func(p *Pipeline) { p.ui = d }
}

// WithEditor injects the editor used to collect template variables.
func WithEditor(e SessionEditor) Option {
	return func(p *Pipeline) { p.editor = e }
}

// WithOutput redirects progress lines and rendered output.
func WithOutput(w io.Writer) Option {
	return func(p *Pipeline) { p.out = w }
}

// Pipeline wires the stores and interactive collaborators into the end-to-end
// flow: classify a template's variables, build an editable skeleton, collect
// values, render, and execute recipes. Each invocation is independent; no
// parsed trees or results are cached between calls.
type Pipeline struct {
	templates store.Store
	recipes   store.Store
	ui        tui.Driver
	editor    SessionEditor
	out       io.Writer
}

// New constructs a Pipeline applying the provided options. The prompt driver,
// editor, and output default to the terminal-backed implementations; stores
// have no default and must be supplied before stored-name operations run.
func New(options ...Option) *Pipeline {
	p := &Pipeline{
		ui:     tui.Survey{},
		editor: tui.NewEditor(),
		out:    os.Stdout,
	}
	for _, opt := range options {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Templates exposes the template store for management commands.
func (p *Pipeline) Templates() store.Store { return p.templates }

// Recipes exposes the recipe store for management commands.
func (p *Pipeline) Recipes() store.Store { return p.recipes }

// UI exposes the prompt driver for confirmation flows outside recipes.
func (p *Pipeline) UI() tui.Driver { return p.ui }

// CollectContext infers the template's inputs, merges the preset over the
// generated skeleton, and opens the editor for the user to fill in the rest.
// When the template has no free variables there is nothing to collect and the
// preset (or an empty context) is returned as-is.
func (p *Pipeline) CollectContext(name, source string, preset map[string]any) (map[string]any, error) {
	result, err := introspect.Inspect(name, source)
	if err != nil {
		return nil, err
	}
	seed, err := skeleton.Build(result, preset)
	if err != nil {
		return nil, err
	}
	if seed == "" {
		if preset != nil {
			return preset, nil
		}
		return map[string]any{}, nil
	}

	edited, err := p.editor.Edit(seed, ".yaml")
	if err != nil {
		if errors.Is(err, tui.ErrNotSaved) {
			return nil, errors.New("kt: editor closed without saving variables")
		}
		return nil, err
	}
	return skeleton.Decode(edited)
}

// RenderSource runs the collect-then-render pipeline over raw template text.
func (p *Pipeline) RenderSource(name, source string, preset map[string]any) (string, error) {
	context, err := p.CollectContext(name, source, preset)
	if err != nil {
		return "", err
	}
	return render.Render(name, source, context)
}

// RenderStored fetches a stored template and renders it. It implements
// recipe.TemplateRunner so template actions reuse the interactive flow.
func (p *Pipeline) RenderStored(name string, preset map[string]any) (string, error) {
	if p.templates == nil {
		return "", errors.New("kt: no template store configured")
	}
	source, err := p.templates.Fetch(name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", fmt.Errorf("kt: template %q does not exist", name)
		}
		return "", err
	}
	return p.RenderSource(name, source, preset)
}

// RunRecipe fetches a stored recipe, parses its action list, and executes it
// sequentially with this pipeline serving template actions.
func (p *Pipeline) RunRecipe(name string) error {
	if p.recipes == nil {
		return errors.New("kt: no recipe store configured")
	}
	content, err := p.recipes.Fetch(name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("kt: recipe %q does not exist", name)
		}
		return err
	}
	actions, err := recipe.ParseActions([]byte(content))
	if err != nil {
		return err
	}
	return recipe.NewEngine(p, p.ui, p.out).Execute(actions)
}
