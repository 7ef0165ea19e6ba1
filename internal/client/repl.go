package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

const Goodbye = "Keep moving forward! Goodbye!"

type ChatFunc func(ctx context.Context, message string) (*ChatReply, error)

// REPL reads lines from in until EOF or quit/exit and prints the bot's replies.
// A failed turn is reported and the loop carries on.
func REPL(ctx context.Context, in io.Reader, out io.Writer, chat ChatFunc) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "You: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		switch strings.ToLower(line) {
		case "quit", "exit":
			fmt.Fprintf(out, "\nBot: %s\n", Goodbye)
			return nil
		}

		reply, err := chat(ctx, line)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}
		printReply(out, reply)
	}
}

func printReply(out io.Writer, r *ChatReply) {
	fmt.Fprintf(out, "Bot: %s\n", r.Response)
	fmt.Fprintf(out, "     (emotion: %s, confidence: %.2f)\n", r.Emotion, r.Confidence)
	if rec := r.Recommendation; rec != nil {
		switch {
		case rec.URL != "":
			fmt.Fprintf(out, "     Try this: %s %s\n", rec.Title, rec.URL)
		default:
			fmt.Fprintf(out, "     Try this: %s. %s\n", rec.Title, rec.Action)
		}
	}
}
