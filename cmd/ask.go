package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/victoruno/victoruno/internal/log"
	"github.com/victoruno/victoruno/internal/router"
)

// runAsk handles a one-shot question, optionally with an attached document
// and an existing session to continue.
func runAsk(logger log.Logger) error {
	askFlags := flag.NewFlagSet("ask", flag.ContinueOnError)
	askFlags.SetOutput(os.Stderr)
	docPath := askFlags.String("doc", "", "Path to a document to attach")
	sessionFlag := askFlags.String("session", "", "Session UUID to continue")

	args := []string{}
	if len(os.Args) > 2 {
		args = os.Args[2:]
	}
	if err := askFlags.Parse(args); err != nil {
		return fmt.Errorf("parsing ask flags: %w", err)
	}

	utterance := strings.TrimSpace(strings.Join(askFlags.Args(), " "))
	if utterance == "" && *docPath == "" {
		return fmt.Errorf("usage: victoruno ask [-doc path] [-session uuid] <question>")
	}

	sessionID := uuid.New()
	if *sessionFlag != "" {
		parsed, err := uuid.Parse(*sessionFlag)
		if err != nil {
			return fmt.Errorf("invalid session id %q: %w", *sessionFlag, err)
		}
		sessionID = parsed
	}

	ctx := context.Background()
	rt, _, err := buildRouter(ctx, logger)
	if err != nil {
		return err
	}

	resp, err := rt.Handle(ctx, router.Request{
		SessionID:      sessionID,
		Utterance:      utterance,
		AttachmentPath: *docPath,
	})
	if err != nil {
		return err
	}

	fmt.Println(resp.Text)
	if resp.Degraded {
		fmt.Fprintf(os.Stderr, "(degraded: %s)\n", resp.DegradedReason)
	}
	for _, c := range resp.Citations {
		if c.URL != "" {
			fmt.Fprintf(os.Stderr, "[%s] %s\n", c.Title, c.URL)
		}
	}
	fmt.Fprintf(os.Stderr, "session: %s\n", sessionID)
	return nil
}
