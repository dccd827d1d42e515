package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Format selects the output encoding.
type Format string

const (
	// FormatJSONL emits one JSON object per line, one item per line.
	FormatJSONL Format = "jsonl"

	// FormatJSON emits the items as a single JSON array.
	FormatJSON Format = "json"

	// FormatMarkdown emits a human-readable markdown report.
	FormatMarkdown Format = "md"
)

// ParseFormat resolves a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "jsonl":
		return FormatJSONL, nil
	case "json":
		return FormatJSON, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown format %q (valid: jsonl, json, md)", s)
	}
}

// Renderer turns a result set into a string in its configured format.
type Renderer struct {
	Format Format

	// Pretty indents JSON output. Markdown ignores it.
	Pretty bool
}

// Render encodes the set in the renderer's format.
func (r Renderer) Render(set *ResultSet) (string, error) {
	switch r.Format {
	case FormatJSON:
		return r.renderJSON(set)
	case FormatMarkdown:
		return renderMarkdown(set), nil
	case FormatJSONL, "":
		return r.renderJSONL(set)
	default:
		return "", fmt.Errorf("unknown format %q", r.Format)
	}
}

// RenderTo writes the rendered set to w.
func (r Renderer) RenderTo(set *ResultSet, w io.Writer) error {
	out, err := r.Render(set)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

func (r Renderer) renderJSON(set *ResultSet) (string, error) {
	var (
		data []byte
		err  error
	)
	if r.Pretty {
		data, err = json.MarshalIndent(set.Items, "", "  ")
	} else {
		data, err = json.Marshal(set.Items)
	}
	if err != nil {
		return "", fmt.Errorf("encode results: %w", err)
	}
	return string(data), nil
}

func (r Renderer) renderJSONL(set *ResultSet) (string, error) {
	lines := make([]string, 0, len(set.Items))
	for i := range set.Items {
		var (
			data []byte
			err  error
		)
		if r.Pretty {
			data, err = json.MarshalIndent(&set.Items[i], "", "  ")
		} else {
			data, err = json.Marshal(&set.Items[i])
		}
		if err != nil {
			return "", fmt.Errorf("encode result item: %w", err)
		}
		lines = append(lines, string(data))
	}
	sep := "\n"
	if r.Pretty {
		sep = "\n\n"
	}
	return strings.Join(lines, sep), nil
}

func renderMarkdown(set *ResultSet) string {
	var b strings.Builder
	b.WriteString("# Results\n")

	for i := range set.Items {
		item := &set.Items[i]

		switch data := item.Data.(type) {
		case taskData:
			fmt.Fprintf(&b, "\n## %s\n\n", data.TaskID)
			fmt.Fprintf(&b, "- success: %t\n", data.Success)
			if data.ExitCode != nil {
				fmt.Fprintf(&b, "- exit code: %d\n", *data.ExitCode)
			}
			fmt.Fprintf(&b, "- duration: %dms\n", data.DurationMs)
			if item.Path != "" {
				fmt.Fprintf(&b, "- log: %s\n", item.Path)
			}
			if data.Error != "" {
				fmt.Fprintf(&b, "- error: %s\n", data.Error)
			}
			if item.Excerpt != "" {
				fmt.Fprintf(&b, "\n```\n%s\n```\n", strings.TrimRight(item.Excerpt, "\n"))
			}
		case summaryData:
			s := data.Summary
			b.WriteString("\n## Summary\n\n")
			fmt.Fprintf(&b, "- total: %d\n", s.Total)
			fmt.Fprintf(&b, "- succeeded: %d\n", s.Succeeded)
			fmt.Fprintf(&b, "- failed: %d\n", s.Failed)
			fmt.Fprintf(&b, "- skipped: %d\n", s.Skipped)
			fmt.Fprintf(&b, "- duration: %dms\n", s.TotalDurationMs)
			if s.OutputDir != "" {
				fmt.Fprintf(&b, "- output dir: %s\n", s.OutputDir)
			}
		default:
			for _, e := range item.Errors {
				fmt.Fprintf(&b, "\n## Error\n\n- %s: %s\n", e.Code, e.Message)
			}
		}
	}
	return b.String()
}
