package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Wh1teCaat/fitness-companion/internal/client"
	"github.com/Wh1teCaat/fitness-companion/internal/logging"
	"github.com/Wh1teCaat/fitness-companion/internal/responder"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

func main() {
	addr := pflag.String("addr", "http://localhost:5000", "server base URL")
	username := pflag.StringP("username", "u", "", "account username")
	password := pflag.StringP("password", "p", "", "account password (prompted when omitted)")
	verbose := pflag.BoolP("verbose", "v", false, "log token refreshes")
	pflag.Parse()

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger, err := logging.New(os.Stderr, level, "text")
	if err != nil {
		log.Fatalf("🚒 failed to create logger: %v", err)
	}

	stdin := bufio.NewReader(os.Stdin)
	if *username == "" {
		if *username, err = prompt(stdin, os.Stdout, "Username: "); err != nil {
			log.Fatalf("🚒 failed to read username: %v", err)
		}
	}
	if *password == "" {
		if *password, err = readPassword(stdin, os.Stdout, int(os.Stdin.Fd())); err != nil {
			log.Fatalf("🚒 failed to read password: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := client.New(*addr, 30*time.Second, logger)

	loginCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = c.Login(loginCtx, *username, *password)
	cancel()
	if err != nil {
		log.Fatalf("🚒 login failed: %v", err)
	}

	c.StartTokenRefresher(ctx)

	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("      FITNESS COMPANION BOT (EMOTION AWARE)")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println(responder.Disclaimer)
	fmt.Println("\nI'm here to support your fitness journey. How are you feeling today?")
	fmt.Println("(Type 'quit' or 'exit' to end the chat)")
	fmt.Println()

	if err := client.REPL(ctx, stdin, os.Stdout, c.Chat); err != nil {
		log.Fatalf("🚒 failed to read input: %v", err)
	}
}

func prompt(r *bufio.Reader, w io.Writer, label string) (string, error) {
	fmt.Fprint(w, label)
	line, err := r.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// readPassword hides the input on a terminal. Piped input goes through the same
// buffered reader as the rest of the session so no lines are lost.
func readPassword(r *bufio.Reader, w io.Writer, fd int) (string, error) {
	if !term.IsTerminal(fd) {
		return prompt(r, w, "Password: ")
	}

	fmt.Fprint(w, "Password: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
