// Package message renders the WhatsApp text sent to a customer.
package message

import (
	"regexp"
	"strings"
)

const DefaultTemplate = "Te achei {name}! Você deixou {product} no carrinho.\nLink: {checkout_url}"

var placeholder = regexp.MustCompile(`\{\{|\}\}|\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Values maps placeholder names to their text. Unknown names resolve to "".
type Values map[string]string

func (v Values) Lookup(name string) string {
	return v[name]
}

type Renderer struct {
	template string
}

// NewRenderer uses DefaultTemplate when template is blank.
func NewRenderer(template string) *Renderer {
	if strings.TrimSpace(template) == "" {
		template = DefaultTemplate
	}
	return &Renderer{template: template}
}

func (r *Renderer) Template() string {
	return r.template
}

// Render substitutes every {name} in the template. "{{" and "}}" produce
// literal braces; anything else that is not a placeholder is kept verbatim.
func (r *Renderer) Render(values Values) string {
	return placeholder.ReplaceAllStringFunc(r.template, func(m string) string {
		switch m {
		case "{{":
			return "{"
		case "}}":
			return "}"
		}
		return values.Lookup(m[1 : len(m)-1])
	})
}
