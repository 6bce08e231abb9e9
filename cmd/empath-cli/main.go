package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/antoniostano/empath/internal/chat"
	"github.com/antoniostano/empath/internal/config"
	"github.com/antoniostano/empath/internal/llm"
	"github.com/antoniostano/empath/internal/session"
)

type options struct {
	mode      string
	serverURL string
	sessionID string
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "empath-cli: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "empath-cli: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("empath-cli", flag.ContinueOnError)
	fs.StringVar(&opts.mode, "mode", "direct", "direct calls the model in-process; remote talks to a running server")
	fs.StringVar(&opts.serverURL, "server", "http://127.0.0.1:8000", "server base URL for remote mode")
	fs.StringVar(&opts.sessionID, "session-id", "cli", "session id used for this conversation")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	opts.mode = strings.ToLower(strings.TrimSpace(opts.mode))
	opts.serverURL = strings.TrimRight(strings.TrimSpace(opts.serverURL), "/")
	opts.sessionID = strings.TrimSpace(opts.sessionID)
	switch opts.mode {
	case "direct":
	case "remote":
		if opts.serverURL == "" {
			return options{}, fmt.Errorf("server is required in remote mode")
		}
	default:
		return options{}, fmt.Errorf("invalid mode %q (expected direct|remote)", opts.mode)
	}
	if opts.sessionID == "" {
		opts.sessionID = "cli"
	}
	return opts, nil
}

func run(ctx context.Context, opts options) error {
	var c chatter
	switch opts.mode {
	case "remote":
		rc, err := dialRemote(ctx, opts.serverURL, opts.sessionID)
		if err != nil {
			return err
		}
		defer rc.Close()
		c = rc
	default:
		dc, err := newDirectChatter(ctx, opts.sessionID)
		if err != nil {
			return err
		}
		c = dc
	}
	return runREPL(ctx, os.Stdin, os.Stdout, c)
}

// directChatter keeps one process-scoped session and talks to the model
// without a server.
type directChatter struct {
	processor *chat.Processor
	sessionID string
}

func newDirectChatter(ctx context.Context, sessionID string) (*directChatter, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	model, err := llm.NewModel(ctx, llm.Config{
		Mode:      cfg.LLMProvider,
		APIKey:    cfg.GeminiAPIKey,
		ModelName: cfg.GeminiModel,
	})
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	return newDirectChatterWith(model, cfg.CLITemperature, sessionID), nil
}

func newDirectChatterWith(model llm.Model, temperature float64, sessionID string) *directChatter {
	processor := chat.NewProcessor(session.NewInMemoryStore(), model, nil, chat.Options{
		DefaultSessionID: sessionID,
		Temperature:      temperature,
		DisableSeed:      true,
	})
	return &directChatter{processor: processor, sessionID: sessionID}
}

func (d *directChatter) Turn(ctx context.Context, message string, onDelta func(string) error) error {
	_, err := d.processor.ChatStream(ctx, chat.Input{Message: message, SessionID: d.sessionID}, onDelta)
	return err
}
