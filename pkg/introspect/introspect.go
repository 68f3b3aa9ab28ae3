package introspect

import (
	"fmt"
	"sort"
	"text/template/parse"
)

// Result describes every free top-level variable referenced by a template and
// the shape each one is used with.
//
// ListFields maps variables iterated by a range action to the sorted set of
// first-level attributes read off their elements. NestedFields maps variables
// read via dotted access outside any range to the sorted set of first-level
// attributes observed. A name present in Free and absent from both maps is
// used as a plain scalar. When a name qualifies for both maps, ListFields
// wins downstream.
type Result struct {
	Free         []string
	ListFields   map[string][]string
	NestedFields map[string][]string
}

// Inspect parses source as a text/template body and classifies its free
// variables. It keeps no state between calls, so inspecting the same source
// twice yields identical results. Function identifiers are not checked, which
// lets templates reference helper functions that only exist at render time.
func Inspect(name, source string) (Result, error) {
	treeSet := make(map[string]*parse.Tree)
	tree := parse.New(name)
	tree.Mode = parse.ParseComments | parse.SkipFuncCheck
	if _, err := tree.Parse(source, "", "", treeSet); err != nil {
		return Result{}, fmt.Errorf("introspect: parse template %q: %w", name, err)
	}

	ins := newInspector()
	names := make([]string, 0, len(treeSet))
	for treeName := range treeSet {
		names = append(names, treeName)
	}
	sort.Strings(names)
	for _, treeName := range names {
		if t := treeSet[treeName]; t != nil {
			ins.walkList(t.Root)
		}
	}
	return ins.result(), nil
}

type refKind int

const (
	refNone refKind = iota // not resolvable to a top-level access path
	refTop                 // rooted at the top-level context
	refLoop                // rooted at the element of a range action
)

// ref is a resolved access path: the root it bottoms out at plus the dotted
// segments that follow it, in root-to-leaf order.
type ref struct {
	kind refKind
	iter string // iterable name for refLoop; empty when the iterable was not a bare name
	path []string
}

// child returns a copy of r with the given segments appended. The receiver's
// path is never aliased so bindings stay immutable once recorded.
func (r ref) child(segs ...string) ref {
	out := ref{kind: r.kind, iter: r.iter}
	out.path = append(append(make([]string, 0, len(r.path)+len(segs)), r.path...), segs...)
	return out
}

// inspector walks a parse tree with two explicit stacks: the current dot
// binding and the declared-variable scopes. Both are pushed entering a range
// or with body and popped on the way out; else branches are visited after the
// pop, outside the scope they gate.
type inspector struct {
	free   map[string]struct{}
	list   map[string]map[string]struct{}
	nested map[string]map[string]struct{}
	dots   []ref
	scopes []map[string]ref
}

func newInspector() *inspector {
	return &inspector{
		free:   make(map[string]struct{}),
		list:   make(map[string]map[string]struct{}),
		nested: make(map[string]map[string]struct{}),
		dots:   []ref{{kind: refTop}},
		scopes: []map[string]ref{{}},
	}
}

func (in *inspector) walkList(list *parse.ListNode) {
	if list == nil {
		return
	}
	for _, node := range list.Nodes {
		in.walk(node)
	}
}

func (in *inspector) walk(node parse.Node) {
	switch n := node.(type) {
	case *parse.ActionNode:
		in.walkPipe(n.Pipe, true)
	case *parse.IfNode:
		in.walkPipe(n.Pipe, true)
		in.walkList(n.List)
		in.walkList(n.ElseList)
	case *parse.RangeNode:
		in.walkRange(n)
	case *parse.WithNode:
		in.walkWith(n)
	case *parse.TemplateNode:
		in.walkPipe(n.Pipe, false)
	case *parse.ListNode:
		in.walkList(n)
	}
}

// walkPipe records access signals from every command in the pipeline. When
// bind is set, variables declared by the pipeline are bound in the current
// scope to the pipeline's resolved value.
func (in *inspector) walkPipe(pipe *parse.PipeNode, bind bool) {
	if pipe == nil {
		return
	}
	for _, cmd := range pipe.Cmds {
		in.walkCommand(cmd)
	}
	if bind && len(pipe.Decl) > 0 {
		val := in.resolvePipe(pipe)
		frame := in.scopes[len(in.scopes)-1]
		for _, decl := range pipe.Decl {
			if len(decl.Ident) > 0 {
				frame[decl.Ident[0]] = val
			}
		}
	}
}

func (in *inspector) walkCommand(cmd *parse.CommandNode) {
	in.record(in.resolveCommand(cmd))
	for _, arg := range cmd.Args {
		in.walkArg(arg)
	}
}

func (in *inspector) walkArg(node parse.Node) {
	switch n := node.(type) {
	case *parse.FieldNode, *parse.VariableNode:
		in.record(in.resolveExpr(node))
	case *parse.ChainNode:
		in.record(in.resolveExpr(n))
		in.walkArg(n.Node)
	case *parse.PipeNode:
		in.walkPipe(n, false)
	}
}

// walkRange pushes a scope binding the declared loop variables and the rebound
// dot to the loop element, visits the body, then visits the else branch with
// the scope popped. The iterable name is only captured when the range pipe is
// a single bare top-level field; anything more complex means element accesses
// cannot be attributed to a collection.
func (in *inspector) walkRange(n *parse.RangeNode) {
	iter := in.resolvePipe(n.Pipe)
	in.walkPipe(n.Pipe, false)

	elem := ref{kind: refLoop}
	if iter.kind == refTop && len(iter.path) == 1 {
		elem.iter = iter.path[0]
	}

	frame := make(map[string]ref)
	if n.Pipe != nil {
		for _, decl := range n.Pipe.Decl {
			if len(decl.Ident) > 0 {
				frame[decl.Ident[0]] = elem
			}
		}
	}

	in.scopes = append(in.scopes, frame)
	in.dots = append(in.dots, elem)
	in.walkList(n.List)
	in.dots = in.dots[:len(in.dots)-1]
	in.scopes = in.scopes[:len(in.scopes)-1]

	in.walkList(n.ElseList)
}

// walkWith rebinds dot to the pipeline's resolved value, so a with block over
// a bare field acts as a dotted-path prefix: {{with .user}}{{.email}}{{end}}
// classifies exactly like {{.user.email}}.
func (in *inspector) walkWith(n *parse.WithNode) {
	val := in.resolvePipe(n.Pipe)
	in.walkPipe(n.Pipe, false)

	frame := make(map[string]ref)
	if n.Pipe != nil {
		for _, decl := range n.Pipe.Decl {
			if len(decl.Ident) > 0 {
				frame[decl.Ident[0]] = val
			}
		}
	}

	in.scopes = append(in.scopes, frame)
	in.dots = append(in.dots, val)
	in.walkList(n.List)
	in.dots = in.dots[:len(in.dots)-1]
	in.scopes = in.scopes[:len(in.scopes)-1]

	in.walkList(n.ElseList)
}

// resolveExpr reconstructs the access path of an expression node, bottoming
// out at the current dot, the root variable $, or a declared variable. Nodes
// outside the supported set resolve to no path.
func (in *inspector) resolveExpr(node parse.Node) ref {
	switch n := node.(type) {
	case *parse.DotNode:
		return in.dot()
	case *parse.FieldNode:
		return in.dot().child(n.Ident...)
	case *parse.VariableNode:
		base, ok := in.lookup(n.Ident[0])
		if !ok {
			return ref{}
		}
		return base.child(n.Ident[1:]...)
	case *parse.ChainNode:
		base := in.resolveExpr(n.Node)
		if base.kind == refNone {
			return ref{}
		}
		return base.child(n.Field...)
	case *parse.PipeNode:
		return in.resolvePipe(n)
	case *parse.CommandNode:
		return in.resolveCommand(n)
	}
	return ref{}
}

func (in *inspector) resolvePipe(pipe *parse.PipeNode) ref {
	if pipe == nil || len(pipe.Cmds) != 1 {
		return ref{}
	}
	return in.resolveCommand(pipe.Cmds[0])
}

// resolveCommand handles the index builtin as the grammar's keyed-access form.
// Only literal string keys extend the path; any other key aborts resolution
// for the whole command.
func (in *inspector) resolveCommand(cmd *parse.CommandNode) ref {
	if cmd == nil || len(cmd.Args) == 0 {
		return ref{}
	}
	if len(cmd.Args) == 1 {
		return in.resolveExpr(cmd.Args[0])
	}
	ident, ok := cmd.Args[0].(*parse.IdentifierNode)
	if !ok || ident.Ident != "index" {
		return ref{}
	}
	base := in.resolveExpr(cmd.Args[1])
	if base.kind == refNone {
		return ref{}
	}
	keys := make([]string, 0, len(cmd.Args)-2)
	for _, arg := range cmd.Args[2:] {
		str, ok := arg.(*parse.StringNode)
		if !ok {
			return ref{}
		}
		keys = append(keys, str.Text)
	}
	return base.child(keys...)
}

func (in *inspector) dot() ref {
	return in.dots[len(in.dots)-1]
}

// lookup finds a declared variable innermost-first. The root variable $ is
// always the top-level context.
func (in *inspector) lookup(name string) (ref, bool) {
	if name == "$" {
		return ref{kind: refTop}, true
	}
	for i := len(in.scopes) - 1; i >= 0; i-- {
		if val, ok := in.scopes[i][name]; ok {
			return val, true
		}
	}
	return ref{}, false
}

// record turns a resolved path into classification signals. Top-level paths
// register their base as a free variable and, when at least one attribute
// follows, a nested-field signal; loop-element paths register a list-field
// signal against the loop's iterable. Only the first attribute after the base
// matters.
func (in *inspector) record(r ref) {
	switch r.kind {
	case refTop:
		if len(r.path) == 0 {
			return
		}
		in.free[r.path[0]] = struct{}{}
		if len(r.path) >= 2 {
			in.add(in.nested, r.path[0], r.path[1])
		}
	case refLoop:
		if r.iter == "" || len(r.path) == 0 {
			return
		}
		in.add(in.list, r.iter, r.path[0])
	}
}

func (in *inspector) add(m map[string]map[string]struct{}, name, attr string) {
	attrs, ok := m[name]
	if !ok {
		attrs = make(map[string]struct{})
		m[name] = attrs
	}
	attrs[attr] = struct{}{}
}

func (in *inspector) result() Result {
	res := Result{
		Free:         make([]string, 0, len(in.free)),
		ListFields:   make(map[string][]string, len(in.list)),
		NestedFields: make(map[string][]string, len(in.nested)),
	}
	for name := range in.free {
		res.Free = append(res.Free, name)
	}
	sort.Strings(res.Free)
	for name, attrs := range in.list {
		res.ListFields[name] = sortedKeys(attrs)
	}
	for name, attrs := range in.nested {
		res.NestedFields[name] = sortedKeys(attrs)
	}
	return res
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
