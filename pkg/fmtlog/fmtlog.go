// Package fmtlog renders user-facing agent output to multiple sinks.
package fmtlog

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Sink receives formatted log events.
type Sink interface {
	Text(text string)
	Header(level int, text string)
	Code(code string)
}

// Log fans formatted events out to every registered sink.
type Log struct {
	sinks []Sink
}

// New returns a Log with the given sinks registered.
func New(sinks ...Sink) *Log {
	l := &Log{}
	for _, s := range sinks {
		l.Register(s)
	}
	return l
}

// Register adds a sink. Nil sinks are ignored.
func (l *Log) Register(s Sink) {
	if s == nil {
		return
	}
	l.sinks = append(l.sinks, s)
}

func (l *Log) Text(text string) {
	for _, s := range l.sinks {
		s.Text(text)
	}
}

func (l *Log) Textf(format string, args ...any) {
	l.Text(fmt.Sprintf(format, args...))
}

func (l *Log) Header(level int, text string) {
	for _, s := range l.sinks {
		s.Header(level, text)
	}
}

func (l *Log) Code(code string) {
	for _, s := range l.sinks {
		s.Code(code)
	}
}

// Dump renders a value as YAML for code blocks.
func Dump(v any) string {
	b, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return strings.TrimRight(string(b), "\n")
}
