package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	toon "github.com/toon-format/toon-go"
)

// Format represents an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatTOON     Format = "toon"
)

// ParseFormat converts a string to Format, defaulting to text.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON
	case "markdown", "md":
		return FormatMarkdown
	case "toon":
		return FormatTOON
	default:
		return FormatText
	}
}

// Structured reports whether the format is machine readable.
func (f Format) Structured() bool {
	return f == FormatJSON || f == FormatTOON
}

// Renderable is data that can render itself as text or markdown.
type Renderable interface {
	RenderText(w io.Writer, colored bool) error
	RenderMarkdown(w io.Writer) error
	// RenderData returns the value encoded for json and toon output.
	RenderData() any
}

// Formatter writes results to stdout or a file in one format.
type Formatter struct {
	format  Format
	writer  io.Writer
	file    *os.File
	colored bool
}

// NewFormatter creates a formatter. A non-empty output names a file to
// create; colors are disabled for files.
func NewFormatter(format Format, output string, colored bool) (*Formatter, error) {
	var writer io.Writer = os.Stdout
	var file *os.File

	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file: %w", err)
		}
		writer = f
		file = f
		colored = false
	}

	return &Formatter{
		format:  format,
		writer:  writer,
		file:    file,
		colored: colored,
	}, nil
}

// NewWriterFormatter creates a formatter over an existing writer.
func NewWriterFormatter(format Format, w io.Writer, colored bool) *Formatter {
	return &Formatter{format: format, writer: w, colored: colored}
}

// Close closes the output file, if any.
func (f *Formatter) Close() error {
	if f.file != nil {
		return f.file.Close()
	}
	return nil
}

func (f *Formatter) Writer() io.Writer { return f.writer }
func (f *Formatter) Format() Format    { return f.format }
func (f *Formatter) Colored() bool     { return f.colored }

// Output writes data in the configured format.
func (f *Formatter) Output(data any) error {
	if r, ok := data.(Renderable); ok {
		switch f.format {
		case FormatJSON:
			return f.writeJSON(r.RenderData())
		case FormatTOON:
			return f.writeTOON(r.RenderData())
		case FormatMarkdown:
			return r.RenderMarkdown(f.writer)
		default:
			return r.RenderText(f.writer, f.colored)
		}
	}

	switch f.format {
	case FormatTOON:
		return f.writeTOON(data)
	case FormatMarkdown:
		fmt.Fprintln(f.writer, "```json")
		if err := f.writeJSON(data); err != nil {
			return err
		}
		fmt.Fprintln(f.writer, "```")
		return nil
	default:
		return f.writeJSON(data)
	}
}

// Code writes Java source. Structured formats wrap it in an object so the
// output stays parseable.
func (f *Formatter) Code(path, code string) error {
	switch f.format {
	case FormatJSON, FormatTOON:
		return f.Output(struct {
			Path string `json:"path" toon:"path"`
			Code string `json:"code" toon:"code"`
		}{path, code})
	case FormatMarkdown:
		if path != "" {
			fmt.Fprintf(f.writer, "### %s\n\n", path)
		}
		fmt.Fprintf(f.writer, "```java\n%s\n```\n\n", code)
		return nil
	default:
		_, err := fmt.Fprintln(f.writer, code)
		return err
	}
}

func (f *Formatter) writeJSON(data any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// MarshalTOON encodes data as TOON with two-space indentation.
func MarshalTOON(data any) (string, error) {
	out, err := toon.Marshal(data, toon.WithIndent(2))
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (f *Formatter) writeTOON(data any) error {
	out, err := MarshalTOON(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(f.writer, out)
	return err
}

// Table is a Renderable table with headers, rows, and optional footer.
type Table struct {
	Title   string     `json:"-"`
	Headers []string   `json:"-"`
	Rows    [][]string `json:"-"`
	Footer  []string   `json:"-"`
	Data    any        `json:"data,omitempty"`
}

// NewTable creates a table that serializes as data in structured formats.
func NewTable(title string, headers []string, rows [][]string, footer []string, data any) *Table {
	return &Table{
		Title:   title,
		Headers: headers,
		Rows:    rows,
		Footer:  footer,
		Data:    data,
	}
}

func (t *Table) RenderData() any {
	if t.Data != nil {
		return t.Data
	}
	result := make([]map[string]string, len(t.Rows))
	for i, row := range t.Rows {
		m := make(map[string]string, len(t.Headers))
		for j, h := range t.Headers {
			if j < len(row) {
				m[h] = row[j]
			}
		}
		result[i] = m
	}
	return result
}

func (t *Table) RenderText(w io.Writer, colored bool) error {
	writeTitle(w, t.Title, colored, "=")

	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
			},
			Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignLeft}},
			Footer: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignLeft}},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.Border{Left: tw.Off, Right: tw.Off, Top: tw.Off, Bottom: tw.Off},
			Settings: tw.Settings{
				Separators: tw.Separators{BetweenColumns: tw.Off},
			},
		}),
	)

	table.Header(t.Headers)
	for _, row := range t.Rows {
		table.Append(row)
	}
	if len(t.Footer) > 0 {
		footer := make([]any, len(t.Footer))
		for i, cell := range t.Footer {
			footer[i] = cell
		}
		table.Footer(footer...)
	}
	table.Render()
	fmt.Fprintln(w)
	return nil
}

func (t *Table) RenderMarkdown(w io.Writer) error {
	if t.Title != "" {
		fmt.Fprintf(w, "## %s\n\n", t.Title)
	}

	fmt.Fprintf(w, "| %s |\n", strings.Join(t.Headers, " | "))
	seps := make([]string, len(t.Headers))
	for i := range seps {
		seps[i] = "---"
	}
	fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))
	for _, row := range t.Rows {
		fmt.Fprintf(w, "| %s |\n", strings.Join(row, " | "))
	}
	if len(t.Footer) > 0 {
		fmt.Fprintf(w, "| %s |\n", strings.Join(t.Footer, " | "))
	}

	fmt.Fprintln(w)
	return nil
}

// Section is a Renderable titled block of text with subsections.
type Section struct {
	Title    string    `json:"title,omitempty"`
	Content  string    `json:"content,omitempty"`
	Sections []Section `json:"sections,omitempty"`
	Data     any       `json:"data,omitempty"`
}

func (s *Section) RenderData() any {
	if s.Data != nil {
		return s.Data
	}
	return s
}

func (s *Section) RenderText(w io.Writer, colored bool) error {
	s.renderText(w, colored, 0)
	return nil
}

func (s *Section) renderText(w io.Writer, colored bool, level int) {
	underline := "="
	if level > 0 {
		underline = "-"
	}
	if s.Title != "" {
		if colored {
			color.New(color.Bold).Fprintln(w, s.Title)
		} else {
			fmt.Fprintln(w, s.Title)
		}
		fmt.Fprintln(w, strings.Repeat(underline, len(s.Title)))
	}
	if s.Content != "" {
		fmt.Fprintln(w, s.Content)
	}
	for _, sub := range s.Sections {
		fmt.Fprintln(w)
		sub.renderText(w, colored, level+1)
	}
}

func (s *Section) RenderMarkdown(w io.Writer) error {
	s.renderMarkdown(w, 2)
	return nil
}

func (s *Section) renderMarkdown(w io.Writer, level int) {
	if s.Title != "" {
		fmt.Fprintf(w, "%s %s\n\n", strings.Repeat("#", level), s.Title)
	}
	if s.Content != "" {
		fmt.Fprintln(w, s.Content)
		fmt.Fprintln(w)
	}
	for _, sub := range s.Sections {
		sub.renderMarkdown(w, level+1)
	}
}

func writeTitle(w io.Writer, title string, colored bool, underline string) {
	if title == "" {
		return
	}
	if colored {
		color.New(color.Bold).Fprintln(w, title)
	} else {
		fmt.Fprintln(w, title)
	}
	fmt.Fprintln(w, strings.Repeat(underline, len(title)))
	fmt.Fprintln(w)
}

// Message helpers for colored output

func (f *Formatter) Success(format string, args ...any) {
	if f.colored {
		color.New(color.FgGreen).Fprintf(f.writer, format+"\n", args...)
	} else {
		fmt.Fprintf(f.writer, format+"\n", args...)
	}
}

func (f *Formatter) Warning(format string, args ...any) {
	if f.colored {
		color.New(color.FgYellow).Fprintf(f.writer, format+"\n", args...)
	} else {
		fmt.Fprintf(f.writer, "WARNING: "+format+"\n", args...)
	}
}
