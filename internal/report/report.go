// Package report renders resolver results as styled text, JSON or YAML.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/Iron-Ham/resumer/internal/checkpoint"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// checkpointView is the machine-readable form of a resolver decision.
type checkpointView struct {
	checkpoint.Checkpoint `yaml:",inline"`

	Found bool                       `json:"found" yaml:"found"`
	Paths map[checkpoint.Kind]string `json:"paths,omitempty" yaml:"paths,omitempty"`
}

func newView(c checkpoint.Checkpoint) checkpointView {
	return checkpointView{Checkpoint: c, Found: c.Found(), Paths: c.Paths()}
}

// Printer writes results to an output stream in one format.
type Printer struct {
	w      io.Writer
	format string
	styles styles
}

// NewPrinter creates a Printer. Unknown formats fall back to text.
func NewPrinter(w io.Writer, format string, color bool) *Printer {
	switch format {
	case FormatJSON, FormatYAML:
	default:
		format = FormatText
	}
	return &Printer{w: w, format: format, styles: newStyles(w, color)}
}

// Checkpoint prints a single resolver decision.
func (p *Printer) Checkpoint(c checkpoint.Checkpoint) error {
	if p.format != FormatText {
		return p.encode(newView(c))
	}

	s := p.styles
	if !c.Found() {
		_, err := fmt.Fprintln(p.w, s.missing.Render("No checkpoint found"))
		return err
	}

	where := "run directory"
	if c.Task != "" {
		where = "task " + c.Task
	}
	marker := ""
	if c.Best {
		marker = " " + s.best.Render("(best)")
	}

	lines := []string{
		s.title.Render(fmt.Sprintf("Resume %s from %s", c.Phase, where)),
		fmt.Sprintf("  %s %s%s", s.label.Render("epoch: "), s.value.Render(strconv.Itoa(c.Epoch)), marker),
		fmt.Sprintf("  %s %s", s.label.Render("suffix:"), c.Suffix),
		fmt.Sprintf("  %s %s", s.label.Render("dir:   "), c.Dir),
		"  " + s.label.Render("files:"),
	}
	paths := c.Paths()
	for _, k := range checkpoint.AllKinds() {
		lines = append(lines, fmt.Sprintf("    %-9s %s", k, paths[k]))
	}
	return p.lines(lines)
}

// Checkpoints prints every complete checkpoint found in dir.
func (p *Printer) Checkpoints(dir string, cs []checkpoint.Checkpoint) error {
	if p.format != FormatText {
		views := make([]checkpointView, 0, len(cs))
		for _, c := range cs {
			views = append(views, newView(c))
		}
		return p.encode(views)
	}

	s := p.styles
	if len(cs) == 0 {
		_, err := fmt.Fprintln(p.w, s.missing.Render("No complete checkpoints in "+dir))
		return err
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.border).
		Headers("EPOCH", "BEST", "SUFFIX").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.header
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	for _, c := range cs {
		best := ""
		if c.Best {
			best = "yes"
		}
		t.Row(strconv.Itoa(c.Epoch), best, c.Suffix)
	}

	return p.lines([]string{
		s.title.Render(dir),
		t.String(),
		s.muted.Render(fmt.Sprintf("%d complete checkpoint(s)", len(cs))),
	})
}

// Path prints a single file path, e.g. the best model state.
func (p *Printer) Path(path string) error {
	if p.format != FormatText {
		return p.encode(map[string]string{"path": path})
	}
	_, err := fmt.Fprintln(p.w, path)
	return err
}

// Value prints an arbitrary value. Text output uses YAML, which reads well
// for nested configuration.
func (p *Printer) Value(v any) error {
	if p.format == FormatJSON {
		return p.encode(v)
	}
	return p.encodeYAML(v)
}

func (p *Printer) encode(v any) error {
	if p.format == FormatYAML {
		return p.encodeYAML(v)
	}
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func (p *Printer) encodeYAML(v any) error {
	enc := yaml.NewEncoder(p.w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return enc.Close()
}

func (p *Printer) lines(lines []string) error {
	for _, l := range lines {
		if _, err := fmt.Fprintln(p.w, l); err != nil {
			return err
		}
	}
	return nil
}
