// Package diag provides source-attached diagnostics for the generator.
// Diagnostics are collected by a Reporter and rendered in one of several
// output formats for consumption by humans or by a host build pipeline.
package diag

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Severity classifies a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Pos is a source anchor. Line and Column are 1-based; a zero Pos means
// the diagnostic is not attached to a specific location.
type Pos struct {
	File   string `json:"file" yaml:"file"`
	Line   int    `json:"line" yaml:"line"`
	Column int    `json:"column" yaml:"column"`
}

func (p Pos) IsValid() bool {
	return p.File != "" && p.Line > 0
}

func (p Pos) String() string {
	if !p.IsValid() {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Diagnostic is a single message attached to a source position.
type Diagnostic struct {
	Severity Severity `json:"severity" yaml:"severity"`
	Pos      Pos      `json:"pos" yaml:"pos"`
	Property string   `json:"property,omitempty" yaml:"property,omitempty"`
	Message  string   `json:"message" yaml:"message"`
}

func (d Diagnostic) String() string {
	if d.Property != "" {
		return fmt.Sprintf("%s: %s: %s: %s", d.Pos, d.Severity, d.Property, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.Pos, d.Severity, d.Message)
}

// Reporter collects diagnostics. It is safe for concurrent use so the
// surrounding tool may generate independent files in parallel.
type Reporter struct {
	mu    sync.Mutex
	diags []Diagnostic
}

func NewReporter() *Reporter {
	return &Reporter{}
}

// Report appends a diagnostic.
func (r *Reporter) Report(d Diagnostic) {
	r.mu.Lock()
	r.diags = append(r.diags, d)
	r.mu.Unlock()
}

// Errorf reports an error diagnostic at pos.
func (r *Reporter) Errorf(pos Pos, format string, args ...any) {
	r.Report(Diagnostic{
		Severity: SeverityError,
		Pos:      pos,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Warnf reports a warning diagnostic at pos.
func (r *Reporter) Warnf(pos Pos, format string, args ...any) {
	r.Report(Diagnostic{
		Severity: SeverityWarning,
		Pos:      pos,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Diagnostics returns the collected diagnostics ordered by source position,
// so output is stable regardless of worker scheduling.
func (r *Reporter) Diagnostics() []Diagnostic {
	r.mu.Lock()
	out := make([]Diagnostic, len(r.diags))
	copy(out, r.diags)
	r.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Pos, out[j].Pos
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
	return out
}

// HasErrors reports whether any error-severity diagnostic was collected.
func (r *Reporter) HasErrors() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Format selects a rendering of collected diagnostics.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, FormatJSON, FormatYAML:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown diagnostic format %q (want text, json, or yaml)", s)
}

// Render writes diagnostics to w in the given format. Text is one
// diagnostic per line; JSON and YAML emit the full list as a document.
func Render(w io.Writer, diags []Diagnostic, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(diags)
	case FormatYAML:
		// Close flushes; a write failure there must surface too.
		enc := yaml.NewEncoder(w)
		err := enc.Encode(diags)
		return errors.Join(err, enc.Close())
	default:
		for _, d := range diags {
			if _, err := fmt.Fprintln(w, d.String()); err != nil {
				return err
			}
		}
		return nil
	}
}
