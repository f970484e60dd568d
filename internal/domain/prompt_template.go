package domain

import (
	"fmt"
	"slices"
	"strings"
	"text/template"
	"text/template/parse"
)

// PromptTemplate is a text/template with a declared, validated set of slots.
// Slots are referenced as {{.name}} in the template text.
type PromptTemplate struct {
	name  string
	slots []string
	tmpl  *template.Template
}

// NewPromptTemplate parses text and checks that every referenced slot is declared
// and every declared slot is referenced.
func NewPromptTemplate(name, text string, slots ...string) (*PromptTemplate, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template %q: %w", name, err)
	}

	declared := make(map[string]bool, len(slots))
	for _, s := range slots {
		declared[s] = true
	}

	referenced := make(map[string]bool)
	if tmpl.Tree != nil {
		collectFields(tmpl.Tree.Root, referenced)
	}

	for ref := range referenced {
		if !declared[ref] {
			return nil, fmt.Errorf("prompt template %q references %q: %w", name, ref, ErrUnknownSlot)
		}
	}
	for _, s := range slots {
		if !referenced[s] {
			return nil, fmt.Errorf("prompt template %q never uses %q: %w", name, s, ErrMissingSlot)
		}
	}

	sorted := slices.Clone(slots)
	slices.Sort(sorted)
	return &PromptTemplate{name: name, slots: sorted, tmpl: tmpl}, nil
}

// MustPromptTemplate is NewPromptTemplate for package-level templates.
func MustPromptTemplate(name, text string, slots ...string) *PromptTemplate {
	t, err := NewPromptTemplate(name, text, slots...)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the template name.
func (t *PromptTemplate) Name() string {
	return t.name
}

// Render fills the template. Every declared slot must be present and no other key may be given.
func (t *PromptTemplate) Render(values map[string]string) (string, error) {
	for _, s := range t.slots {
		if _, ok := values[s]; !ok {
			return "", fmt.Errorf("render %q: slot %q: %w", t.name, s, ErrMissingSlot)
		}
	}
	for k := range values {
		if !slices.Contains(t.slots, k) {
			return "", fmt.Errorf("render %q: slot %q: %w", t.name, k, ErrUnknownSlot)
		}
	}

	var sb strings.Builder
	if err := t.tmpl.Execute(&sb, values); err != nil {
		return "", fmt.Errorf("render %q: %w", t.name, err)
	}
	return sb.String(), nil
}

func collectFields(node parse.Node, out map[string]bool) {
	switch n := node.(type) {
	case *parse.ListNode:
		if n == nil {
			return
		}
		for _, child := range n.Nodes {
			collectFields(child, out)
		}
	case *parse.ActionNode:
		collectFields(n.Pipe, out)
	case *parse.PipeNode:
		if n == nil {
			return
		}
		for _, cmd := range n.Cmds {
			collectFields(cmd, out)
		}
	case *parse.CommandNode:
		for _, arg := range n.Args {
			collectFields(arg, out)
		}
	case *parse.FieldNode:
		if len(n.Ident) > 0 {
			out[n.Ident[0]] = true
		}
	case *parse.IfNode:
		collectBranch(&n.BranchNode, out)
	case *parse.RangeNode:
		collectBranch(&n.BranchNode, out)
	case *parse.WithNode:
		collectBranch(&n.BranchNode, out)
	}
}

func collectBranch(b *parse.BranchNode, out map[string]bool) {
	collectFields(b.Pipe, out)
	collectFields(b.List, out)
	if b.ElseList != nil {
		collectFields(b.ElseList, out)
	}
}
