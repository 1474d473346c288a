package agent

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// approve asks for confirmation in test mode and always consents otherwise.
func (e *Env) approve(prompt string) bool {
	if !e.TestMode {
		return true
	}
	return confirmYesNo(e.In, e.Out, prompt)
}

func confirmYesNo(in io.Reader, out io.Writer, prompt string) bool {
	reader := bufio.NewReader(in)
	for {
		_, _ = fmt.Fprintf(out, "%s [y/n] ", prompt)
		line, err := reader.ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(line))
		switch answer {
		case "y", "yes":
			return true
		case "n", "no":
			return false
		}
		if err != nil {
			return false
		}
	}
}

func confirmEnter(in io.Reader, out io.Writer) {
	_, _ = fmt.Fprint(out, "Press Enter to continue...")
	reader := bufio.NewReader(in)
	_, _ = reader.ReadString('\n')
}
