// Package assistant answers staffing questions from a fixed catalog of
// prepared analyses.
package assistant

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

// Response is a structured answer.
type Response struct {
	Summary     string `yaml:"summary" json:"summary"`
	Evidence    string `yaml:"evidence" json:"evidence"`
	Risk        string `yaml:"risk" json:"risk"`
	Alternative string `yaml:"alternative" json:"alternative"`
}

// Labels are the section headings shown above each part of a Response.
type Labels struct {
	Evidence    string `yaml:"evidence"`
	Risk        string `yaml:"risk"`
	Alternative string `yaml:"alternative"`
}

type entry struct {
	Question string `yaml:"question"`
	Response `yaml:",inline"`
}

type catalogFile struct {
	Welcome  string   `yaml:"welcome"`
	Thinking string   `yaml:"thinking"`
	Labels   Labels   `yaml:"labels"`
	Default  Response `yaml:"default"`
	Entries  []entry  `yaml:"entries"`
}

// Catalog holds the prepared answers.
type Catalog struct {
	welcome     string
	thinking    string
	labels      Labels
	fallback    Response
	suggestions []string
	answers     map[string]Response
}

// Parse reads a catalog from YAML.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if f.Default.Summary == "" {
		return nil, fmt.Errorf("catalog has no default response")
	}

	c := &Catalog{
		welcome:  f.Welcome,
		thinking: f.Thinking,
		labels:   f.Labels,
		fallback: f.Default,
		answers:  make(map[string]Response, len(f.Entries)),
	}
	for _, e := range f.Entries {
		q := strings.TrimSpace(e.Question)
		if q == "" {
			return nil, fmt.Errorf("catalog entry without question")
		}
		if _, dup := c.answers[q]; dup {
			return nil, fmt.Errorf("duplicate catalog question %q", q)
		}
		c.answers[q] = e.Response
		c.suggestions = append(c.suggestions, q)
	}
	return c, nil
}

// Default returns the catalog bundled with the binary.
func Default() *Catalog {
	c, err := Parse(embeddedCatalog)
	if err != nil {
		panic(err)
	}
	return c
}

// Suggestions returns the suggested questions in catalog order.
func (c *Catalog) Suggestions() []string {
	out := make([]string, len(c.suggestions))
	copy(out, c.suggestions)
	return out
}

// Answer returns the prepared response for a question, or the default
// response when the question is not in the catalog. Surrounding whitespace
// is ignored.
func (c *Catalog) Answer(question string) Response {
	if r, ok := c.answers[strings.TrimSpace(question)]; ok {
		return r
	}
	return c.fallback
}

// Welcome returns the greeting shown before the first question.
func (c *Catalog) Welcome() string { return c.welcome }

// Thinking returns the placeholder shown while an answer is pending.
func (c *Catalog) Thinking() string { return c.thinking }

// Labels returns the section headings.
func (c *Catalog) Labels() Labels { return c.labels }
