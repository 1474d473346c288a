package agent

import (
	"fmt"
	"strings"
)

var systemIntro = strings.Join([]string{
	"You are a Reddit AI agent.",
	"You use a set of commands to interact with Reddit users.",
	"There are commands for replying to comments, creating posts, and more to help you achieve your goals.",
	"For each action you take, you also need to provide a motivation behind the action, which can include any future steps you plan to take.",
	"This will help you keep track of your strategy and make sure you are working towards your goals.",
}, " ")

const notesInstructions = `You should also provide notes and strategy for the action.
It should include a summary of the event and your response to it. For example, "I replied to a comment about X with Y, with the goal of Z."
This will help you keep track of your strategy and make sure you are working towards your goals.`

// leadingSystemPrompt assembles the prompt sections that precede the event.
func (e *Env) leadingSystemPrompt() []string {
	var history []string
	if len(e.State.History) > 0 {
		for i, item := range e.State.History {
			history = append(history, fmt.Sprintf("History item %d: %s", i, item.NotesAndStrategy))
		}
	} else {
		history = append(history, "(No history yet)")
	}

	lines := []string{
		systemIntro,
		"",
		"You will be provided with:",
		"An event message that describes the last incoming event, which you can react to.",
		"A list of available commands to perform your actions.",
		"",
		"## Agent instructions:",
		e.Config.AgentInstructions,
		"",
		"## History (your notes on previous actions):",
	}
	lines = append(lines, history...)
	lines = append(lines,
		"",
		"## Current status:",
		fmt.Sprintf("Your username is '%s'.", e.Username),
		fmt.Sprintf("You are active on the following subreddits: %s", strings.Join(e.Config.ActiveOnSubreddits, ", ")),
	)
	return lines
}

// SystemPromptForEvent renders the full system prompt for one event message.
func (e *Env) SystemPromptForEvent(eventMessage string) string {
	sections := append(e.leadingSystemPrompt(), "",
		"## Event message:",
		eventMessage,
		"",
		notesInstructions,
	)
	return strings.Join(sections, "\n")
}
