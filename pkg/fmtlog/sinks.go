package fmtlog

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// TerminalSink writes colored output to a terminal.
type TerminalSink struct {
	w io.Writer

	text   *color.Color
	header *color.Color
	code   *color.Color
}

// NewTerminalSink builds a colored sink writing to w.
func NewTerminalSink(w io.Writer) *TerminalSink {
	return &TerminalSink{
		w:      w,
		text:   color.New(color.FgCyan),
		header: color.New(color.FgGreen),
		code:   color.New(color.FgHiBlue),
	}
}

func (s *TerminalSink) Text(text string) {
	_, _ = s.text.Fprintln(s.w, text)
}

func (s *TerminalSink) Header(level int, text string) {
	_, _ = s.header.Fprintf(s.w, "%s %s\n", strings.Repeat("#", level), text)
}

func (s *TerminalSink) Code(code string) {
	_, _ = s.code.Fprintln(s.w, code)
}

// MarkdownSink appends markdown-formatted events to a writer, typically a
// timestamped .log.md file.
type MarkdownSink struct {
	w io.Writer
}

// NewMarkdownSink builds a markdown sink writing to w.
func NewMarkdownSink(w io.Writer) *MarkdownSink {
	return &MarkdownSink{w: w}
}

func (s *MarkdownSink) Text(text string) {
	_, _ = fmt.Fprintf(s.w, "%s\n\n", strings.TrimSpace(text))
}

func (s *MarkdownSink) Header(level int, text string) {
	_, _ = fmt.Fprintf(s.w, "%s %s\n\n", strings.Repeat("#", level), strings.TrimSpace(text))
}

func (s *MarkdownSink) Code(code string) {
	_, _ = fmt.Fprintf(s.w, "```\n%s\n```\n\n", strings.TrimRight(code, "\n"))
}
