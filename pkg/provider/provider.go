// Package provider abstracts the LLM backends that generate reply decisions.
package provider

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// ReplyData carries the action part of a decision. Absent data means the
// model chose not to act.
type ReplyData struct {
	ContentID string `json:"content_id" jsonschema:"required,description=The content id (t1_ or t3_ prefixed) to reply to"`
	ReplyText string `json:"reply_text" jsonschema:"required,description=The reply body to post"`
}

// ReplyDecision is the structured output the agent asks a provider for.
type ReplyDecision struct {
	NotesAndStrategy string     `json:"notes_and_strategy" jsonschema:"required,description=Summary of the event and the strategy behind the response"`
	Data             *ReplyData `json:"data,omitempty" jsonschema:"description=The reply to make; omit to take no action"`
}

// Provider generates a reply decision for an event described by the system
// prompt.
type Provider interface {
	Name() string
	GenerateReply(ctx context.Context, systemPrompt string) (*ReplyDecision, error)
}

// Known lists the provider names accepted on the command line.
func Known() []string {
	names := []string{"openai"}
	sort.Strings(names)
	return names
}

// ErrUnknown formats the error for an unrecognized provider argument.
func ErrUnknown(name string) error {
	return fmt.Errorf("unknown provider: %q (available providers: %s)", name, strings.Join(Known(), ", "))
}
