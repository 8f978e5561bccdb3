package gateway

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Auth is a way of presenting the gateway credential.
type Auth struct {
	Header string `toml:"header"`
	Scheme string `toml:"scheme"`
}

func (a Auth) value(token string) string {
	if a.Scheme == "" {
		return token
	}
	return a.Scheme + " " + token
}

// Body names the JSON fields carrying the phone and the message.
type Body struct {
	Phone   string `toml:"phone"`
	Message string `toml:"message"`
}

// Candidate is one request shape tried against the gateway.
type Candidate struct {
	Path string
	Auth Auth
	Body Body
}

// Plan is the set of dimensions a probing client crosses into candidates.
type Plan struct {
	Paths  []string `toml:"paths"`
	Auth   []Auth   `toml:"auth"`
	Bodies []Body   `toml:"body"`
}

func DefaultPlan() Plan {
	return Plan{
		Paths: []string{"", "/send-text", "/message/sendText", "/messages", "/send"},
		Auth: []Auth{
			{Header: "Client-Token"},
			{Header: "Authorization", Scheme: "Bearer"},
			{Header: "apikey"},
			{Header: "X-API-Key"},
			{Header: "Authorization"},
		},
		Bodies: []Body{
			{Phone: "phone", Message: "message"},
			{Phone: "number", Message: "text"},
			{Phone: "to", Message: "body"},
		},
	}
}

// Candidates expands the plan path-major: every auth and body shape is
// tried on a path before moving to the next one.
func (p Plan) Candidates() []Candidate {
	out := make([]Candidate, 0, len(p.Paths)*len(p.Auth)*len(p.Bodies))
	for _, path := range p.Paths {
		for _, auth := range p.Auth {
			for _, body := range p.Bodies {
				out = append(out, Candidate{Path: path, Auth: auth, Body: body})
			}
		}
	}
	return out
}

// LoadPlan reads a plan from a TOML file. Sections the file leaves out
// keep their defaults.
func LoadPlan(path string) (Plan, error) {
	var p Plan
	if _, err := toml.DecodeFile(path, &p); err != nil {
		return Plan{}, fmt.Errorf("LoadPlan: decode %s: %w", path, err)
	}

	def := DefaultPlan()
	if len(p.Paths) == 0 {
		p.Paths = def.Paths
	}
	if len(p.Auth) == 0 {
		p.Auth = def.Auth
	}
	if len(p.Bodies) == 0 {
		p.Bodies = def.Bodies
	}

	for i, a := range p.Auth {
		if a.Header == "" {
			return Plan{}, fmt.Errorf("LoadPlan: auth entry %d has no header", i)
		}
	}
	for i, b := range p.Bodies {
		if b.Phone == "" || b.Message == "" {
			return Plan{}, fmt.Errorf("LoadPlan: body entry %d needs phone and message fields", i)
		}
	}
	return p, nil
}
