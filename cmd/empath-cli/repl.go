package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/antoniostano/empath/internal/chat"
)

// chatter runs one turn and reports reply fragments as they arrive.
type chatter interface {
	Turn(ctx context.Context, message string, onDelta func(string) error) error
}

func runREPL(ctx context.Context, in io.Reader, out io.Writer, c chatter) error {
	fmt.Fprintln(out, "Welcome to the chatbot! Type 'exit' to end the conversation.")
	fmt.Fprintf(out, "Chatbot: %s\n", chat.CLIGreeting)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for {
		if ctx.Err() != nil {
			break
		}
		fmt.Fprint(out, "\nYou: ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(line, "exit") {
			fmt.Fprintln(out, "Goodbye!")
			break
		}
		if line == "" {
			continue
		}

		fmt.Fprint(out, "\nChatbot: ")
		err := c.Turn(ctx, line, func(delta string) error {
			_, werr := io.WriteString(out, delta)
			return werr
		})
		if err != nil {
			fmt.Fprintf(out, "[error] %v", err)
		}
		fmt.Fprintln(out)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	fmt.Fprintln(out, "\nThank you for using the chatbot!")
	return nil
}
