// Package output renders command reports in several formats (pretty,
// plain, json, yaml).
//
// Every command builds a Report: a header of fields, titled sections of
// rows, and a summary. The text formatters lay these out; the structured
// formatters encode Report.Data, the command's typed result, so scripts
// see the same fields the library returns.
//
// Basic usage:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, report); err != nil {
//	    return err
//	}
//	fmt.Print(buf.String())
package output

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
)

// ErrUnknownFormatter is returned by Get for an unregistered name.
var ErrUnknownFormatter = errors.New("unknown output format")

// Field is a labelled value in a report header or summary.
type Field struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// Section is a titled table.
type Section struct {
	// Title heads the section.
	Title string `json:"title" yaml:"title"`

	// Key, when set, picks a stable accent color for the title.
	Key string `json:"key,omitempty" yaml:"key,omitempty"`

	// Columns are the column headers. Empty hides the header row.
	Columns []string `json:"columns,omitempty" yaml:"columns,omitempty"`

	// Rows hold one cell per column.
	Rows [][]string `json:"rows" yaml:"rows"`

	// Note is printed under the rows, e.g. "... and 12 more".
	Note string `json:"note,omitempty" yaml:"note,omitempty"`

	// Empty is printed instead of the table when there are no rows.
	Empty string `json:"empty,omitempty" yaml:"empty,omitempty"`
}

// Report is everything a command prints.
type Report struct {
	Title    string    `json:"title" yaml:"title"`
	Fields   []Field   `json:"fields,omitempty" yaml:"fields,omitempty"`
	Sections []Section `json:"sections,omitempty" yaml:"sections,omitempty"`
	Summary  []Field   `json:"summary,omitempty" yaml:"summary,omitempty"`
	Warnings []string  `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	// Data is encoded by the json and yaml formatters in place of the
	// report layout when set.
	Data any `json:"-" yaml:"-"`
}

// AddField appends a header field.
func (r *Report) AddField(label, value string) {
	r.Fields = append(r.Fields, Field{Label: label, Value: value})
}

// AddSummary appends a summary field.
func (r *Report) AddSummary(label, value string) {
	r.Summary = append(r.Summary, Field{Label: label, Value: value})
}

// AddSection appends a section and returns it for filling in.
func (r *Report) AddSection(title string, columns ...string) *Section {
	r.Sections = append(r.Sections, Section{Title: title, Columns: columns})
	return &r.Sections[len(r.Sections)-1]
}

// AddRow appends a row to the section.
func (s *Section) AddRow(cells ...string) {
	s.Rows = append(s.Rows, cells)
}

// Formatter is the interface that all output formatters must implement.
type Formatter interface {
	// Format writes the formatted report to the buffer.
	Format(w *bytes.Buffer, r *Report) error
}

// FormatterFactory is a function that creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory to the registry, replacing any
// formatter with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormatter, name)
	}
	return factory(), nil
}

// Available returns a sorted list of all registered formatter names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}

// IsStructured reports whether name is a machine-readable format. The
// commands keep prompts and progress text off stdout for structured output.
func IsStructured(name string) bool {
	return name == "json" || name == "yaml"
}

// payload is what the structured formatters encode.
func payload(r *Report) any {
	if r.Data != nil {
		return r.Data
	}
	return r
}

// Write formats r with the named formatter and copies the result to w.
func Write(w io.Writer, name string, r *Report) error {
	formatter, err := Get(name)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, r); err != nil {
		return fmt.Errorf("formatting %s output: %w", name, err)
	}
	_, err = buf.WriteTo(w)
	return err
}
