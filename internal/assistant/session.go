// internal/assistant/session.go
package assistant

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

const Banner = "Slipstream Data Virtual Assistant"

var exitCommands = map[string]struct{}{"exit": {}, "quit": {}, "q": {}}

// Session drives an Assistant from a line-oriented reader and writer.
type Session struct {
	assistant *Assistant
	in        io.Reader
	out       io.Writer
}

func NewSession(a *Assistant, in io.Reader, out io.Writer) *Session {
	return &Session{assistant: a, in: in, out: out}
}

// HandleLine processes one line of input. done is true when the line ends
// the session; an empty reply means nothing should be printed.
func (s *Session) HandleLine(ctx context.Context, line string) (reply string, done bool, err error) {
	text := strings.TrimSpace(line)
	if text == "" {
		return "", false, nil
	}

	command := strings.ToLower(text)
	if _, ok := exitCommands[command]; ok {
		return "Goodbye!", true, nil
	}
	if command == "clear" {
		s.assistant.Clear()
		return "Conversation history cleared.", false, nil
	}

	result, err := s.assistant.ProcessTurn(ctx, text)
	if err != nil {
		return "", false, err
	}
	return result.Reply(), false, nil
}

// Run reads lines until EOF, an exit command or context cancellation. Store
// failures are reported to the writer and the session continues.
func (s *Session) Run(ctx context.Context) error {
	fmt.Fprintf(s.out, "%s\n%s\n", Banner, strings.Repeat("=", len(Banner)))
	fmt.Fprintln(s.out, "Ask about meetings, workload or availability. Type 'clear' to reset, 'exit' to quit.")

	scanner := bufio.NewScanner(s.in)
	for {
		fmt.Fprint(s.out, "\nYou: ")
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		reply, done, err := s.HandleLine(ctx, scanner.Text())
		switch {
		case errors.Is(err, ErrQueryExecutionFailed):
			fmt.Fprintf(s.out, "Assistant: Sorry, I couldn't read the meeting data (%v).\n", err)
			continue
		case err != nil:
			return err
		}
		if reply != "" {
			fmt.Fprintf(s.out, "Assistant: %s\n", reply)
		}
		if done {
			return nil
		}
	}
}
