// Package prompt composes model prompts from templates and request fields.
package prompt

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"sync"
	"text/template"
	"text/template/parse"

	"resumatch/internal/config"
	"resumatch/internal/errors"
	"resumatch/internal/types"
)

// Composer renders prompt templates. Templates are plain substitution: field values are
// truncated but never escaped.
type Composer struct {
	mu        sync.RWMutex
	templates map[types.Operation]*compiled
	limits    map[string]int
}

type compiled struct {
	source string
	tmpl   *template.Template
	fields []string
}

// NewComposer builds a composer from the default templates and any configured overrides
func NewComposer(cfg config.PromptConfig) (*Composer, error) {
	c := &Composer{
		templates: make(map[types.Operation]*compiled),
		limits: map[string]int{
			FieldResumeText:     cfg.MaxResumeChars,
			FieldJobDescription: cfg.MaxJobDescriptionChars,
			FieldCoverLetter:    cfg.MaxCoverLetterChars,
			FieldJobTitle:       cfg.MaxJobTitleChars,
		},
	}

	for _, op := range config.Operations() {
		source := cfg.Templates.Get(op)
		if source == "" {
			source = DefaultTemplates[op]
		}
		if err := c.SetTemplate(op, source); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// SetTemplate parses source and installs it for op. The previous template stays in place on error.
func (c *Composer) SetTemplate(op types.Operation, source string) error {
	tmpl, err := template.New(string(op)).Option("missingkey=error").Parse(source)
	if err != nil {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Invalid %s prompt template", op), err)
	}

	entry := &compiled{source: source, tmpl: tmpl, fields: referencedFields(tmpl)}

	c.mu.Lock()
	c.templates[op] = entry
	c.mu.Unlock()
	return nil
}

// Template returns the source of the template installed for op
func (c *Composer) Template(op types.Operation) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if entry, ok := c.templates[op]; ok {
		return entry.source
	}
	return ""
}

// Fields returns the field names referenced by the template of op, sorted
func (c *Composer) Fields(op types.Operation) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if entry, ok := c.templates[op]; ok {
		return slices.Clone(entry.fields)
	}
	return nil
}

// Compose renders the template of op with fields. Every referenced field must be present;
// free-text fields are cut to their configured limit first.
func (c *Composer) Compose(op types.Operation, fields map[string]string) (types.ComposedPrompt, error) {
	c.mu.RLock()
	entry, ok := c.templates[op]
	c.mu.RUnlock()
	if !ok {
		return types.ComposedPrompt{}, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("Unknown prompt template: %s", op), nil)
	}

	for _, name := range entry.fields {
		if _, present := fields[name]; !present {
			return types.ComposedPrompt{}, errors.NewValidationError(errors.ErrCodeTemplateField,
				fmt.Sprintf("Prompt field %q is required by the %s template", name, op), nil).
				WithContext("field", name)
		}
	}

	data := maps.Clone(fields)
	for name, value := range data {
		if limit, capped := c.limits[name]; capped {
			data[name] = Truncate(value, limit)
		}
	}

	var buf bytes.Buffer
	if err := entry.tmpl.Execute(&buf, data); err != nil {
		return types.ComposedPrompt{}, errors.NewValidationError(errors.ErrCodeTemplateField,
			fmt.Sprintf("Failed to render the %s template", op), err)
	}

	return types.ComposedPrompt{Template: op, Text: buf.String()}, nil
}

// Truncate cuts s to at most limit runes. A non-positive limit disables truncation.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}

// referencedFields walks the parse tree and collects top-level field names
func referencedFields(tmpl *template.Template) []string {
	seen := make(map[string]struct{})
	for _, t := range tmpl.Templates() {
		if t.Tree != nil {
			walk(t.Tree.Root, seen)
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

func walk(node parse.Node, seen map[string]struct{}) {
	switch n := node.(type) {
	case *parse.ListNode:
		if n == nil {
			return
		}
		for _, child := range n.Nodes {
			walk(child, seen)
		}
	case *parse.ActionNode:
		walk(n.Pipe, seen)
	case *parse.IfNode:
		walk(n.Pipe, seen)
		walk(n.List, seen)
		walk(n.ElseList, seen)
	case *parse.RangeNode:
		// dot is rebound inside range and with bodies
		walk(n.Pipe, seen)
	case *parse.WithNode:
		walk(n.Pipe, seen)
	case *parse.TemplateNode:
		walk(n.Pipe, seen)
	case *parse.PipeNode:
		if n == nil {
			return
		}
		for _, cmd := range n.Cmds {
			walk(cmd, seen)
		}
	case *parse.CommandNode:
		for _, arg := range n.Args {
			walk(arg, seen)
		}
	case *parse.ChainNode:
		walk(n.Node, seen)
	case *parse.FieldNode:
		if len(n.Ident) > 0 {
			seen[n.Ident[0]] = struct{}{}
		}
	}
}
