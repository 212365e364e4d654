package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/victoruno/victoruno/internal/log"
	"github.com/victoruno/victoruno/internal/router"
)

// runChat starts the interactive REPL over a single session.
func runChat(logger log.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rt, cfg, err := buildRouter(ctx, logger)
	if err != nil {
		return err
	}

	sess := rt.Sessions().Create()
	fmt.Printf("%s ready (%s mode, model %s). Type /exit to quit.\n",
		cfg.AgentName, cfg.Mode, cfg.ModelName)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			fmt.Println()
			fmt.Println("Goodbye!")
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		switch {
		case input == "":
			continue
		case input == "/exit", input == "/quit":
			fmt.Println("Goodbye!")
			return nil
		case input == "/clear":
			if err := rt.Sessions().Reset(sess.ID); err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}
			fmt.Println("Conversation history cleared.")
			continue
		}

		resp, err := rt.Handle(ctx, router.Request{SessionID: sess.ID, Utterance: input})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			fmt.Printf("error: %v\n", err)
			continue
		}

		fmt.Printf("bot> %s\n", resp.Text)
		if resp.Degraded {
			fmt.Printf("     (degraded: %s)\n", resp.DegradedReason)
		}
		for _, c := range resp.Citations {
			if c.URL != "" {
				fmt.Printf("     [%s] %s\n", c.Title, c.URL)
			}
		}
		fmt.Println()
	}
}
