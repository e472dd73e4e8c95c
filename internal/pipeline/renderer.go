package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/estatuto/internal/model"
)

// Renderer writes processed acts as JSON, Markdown and a terminal summary
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the act as indented JSON
func (r *Renderer) RenderJSON(act *model.StructuredAct, path string) error {
	data, err := json.MarshalIndent(act, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal act: %w", err)
	}
	return writeFile(path, data)
}

// RenderMarkdown writes the structured text followed by the validation report
func (r *Renderer) RenderMarkdown(act *model.StructuredAct, path string) error {
	return writeFile(path, []byte(r.Markdown(act)))
}

// Markdown renders the act: elements in order, then flagged verdicts
func (r *Renderer) Markdown(act *model.StructuredAct) string {
	var b strings.Builder

	title := act.Label
	if title == "" {
		title = "Ato sem identificação"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	if act.Ementa != "" {
		fmt.Fprintf(&b, "> %s\n\n", act.Ementa)
	}

	fmt.Fprintf(&b, "| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Status | %s |\n", act.Status)
	fmt.Fprintf(&b, "| Score | %d/100 (%s) |\n", act.Score.Index, act.Score.Confidence)
	fmt.Fprintf(&b, "| Approved | %v |\n", act.Summary.Approved)
	fmt.Fprintf(&b, "| Elements ok | %d/%d (%.1f%%) |\n", act.Summary.OK, act.Summary.Total, act.Summary.PercentOK*100)
	fmt.Fprintf(&b, "| Articles | %d of %d |\n", act.Completeness.ArticlesFound, act.Completeness.HighestNumber)
	fmt.Fprintf(&b, "| Correction | %s |\n", act.Correction)
	if act.SourceURL != "" {
		fmt.Fprintf(&b, "| Source | %s |\n", act.SourceURL)
	}
	b.WriteString("\n## Text\n\n")

	for _, e := range act.Elements {
		switch {
		case e.Kind == model.KindEmenta:
			// already quoted above
		case e.Kind.IsTitle():
			fmt.Fprintf(&b, "### %s\n\n", e.Text)
		case e.Kind == model.KindParagraph:
			fmt.Fprintf(&b, "%s\n\n", e.Text)
		case e.Kind == model.KindItem, e.Kind == model.KindClause:
			indent := "- "
			if e.Kind == model.KindClause {
				indent = "  - "
			}
			fmt.Fprintf(&b, "%s%s\n", indent, e.Text)
		default:
			fmt.Fprintf(&b, "%s\n\n", e.Text)
		}
	}

	var flagged []model.ValidationVerdict
	for _, v := range act.Verdicts {
		if v.Flagged() {
			flagged = append(flagged, v)
		}
	}
	if len(flagged) > 0 {
		b.WriteString("\n## Validation\n\n")
		b.WriteString("| # | Element | Status | Rule | Problem |\n|---|---|---|---|---|\n")
		for _, v := range flagged {
			fmt.Fprintf(&b, "| %d | %s %s | %s | %s | %s |\n",
				v.Order, v.Kind, v.Number, v.Status, v.Rule, strings.ReplaceAll(v.Problem, "|", "\\|"))
		}
	}

	if len(act.Conditions) > 0 {
		b.WriteString("\n## Conditions\n\n")
		for _, c := range act.Conditions {
			fmt.Fprintf(&b, "- **%s**: %s\n", c.Kind, c.Message)
		}
	}

	if r.includeFooter {
		b.WriteString("\n---\n\n")
		b.WriteString("_Structured by estatuto. Scores describe extraction quality, not legal validity; ")
		b.WriteString("consult the official text before relying on it._\n")
	}

	return b.String()
}

// RenderSummary prints the summary block
func (r *Renderer) RenderSummary(w io.Writer, act *model.StructuredAct) {
	mark := "✓"
	if !act.Summary.Approved {
		mark = "✗"
	}

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "  %s\n", act.Label)
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Status:       %s\n", act.Status)
	fmt.Fprintf(w, "  Score:        %d/100 (%s confidence)\n", act.Score.Index, act.Score.Confidence)
	fmt.Fprintf(w, "  Validation:   %s %d/%d ok, %d warnings, %d errors\n",
		mark, act.Summary.OK, act.Summary.Total, act.Summary.Warnings, act.Summary.Errors)
	fmt.Fprintf(w, "  Articles:     %d of %d (%d gaps)\n",
		act.Completeness.ArticlesFound, act.Completeness.HighestNumber, act.Completeness.Gaps)
	fmt.Fprintf(w, "  Correction:   %s\n", act.Correction)
	if act.Ementa == "" {
		fmt.Fprintf(w, "  Ementa:       pending\n")
	}
	if len(act.Conditions) > 0 {
		fmt.Fprintf(w, "\n")
		for _, c := range act.Conditions {
			fmt.Fprintf(w, "  ⚠ %s: %s\n", c.Kind, c.Message)
		}
	}
	fmt.Fprintf(w, "\n")
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
