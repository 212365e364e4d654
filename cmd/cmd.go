// Package cmd provides the CLI commands for VictorUno.
//
// Commands:
//   - chat: interactive terminal chat over one session
//   - ask: one-shot question, optionally with an attached document
//   - serve: HTTP JSON API server
//
// Signal handling and graceful shutdown are implemented for serve via
// context cancellation.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/victoruno/victoruno/internal/log"
)

// Execute is the main entry point for the VictorUno CLI application.
func Execute() error {
	logger := log.New(log.Config{Level: logLevel()})

	if len(os.Args) < 2 {
		runHelp()
		return nil
	}

	switch os.Args[1] {
	case "chat":
		return runChat(logger)
	case "ask":
		return runAsk(logger)
	case "serve":
		return runServe(logger)
	case "version", "--version", "-v":
		runVersion()
		return nil
	case "help", "--help", "-h":
		runHelp()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

func logLevel() slog.Level {
	if os.Getenv("DEBUG") != "" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// runHelp displays the help message.
func runHelp() {
	fmt.Println("VictorUno - Your personal AI assistant")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  victoruno chat                 Start interactive chat mode")
	fmt.Println("  victoruno ask [flags] <text>   Ask a one-shot question")
	fmt.Println("  victoruno serve [addr]         Start HTTP API server (default: 127.0.0.1:8000)")
	fmt.Println("  victoruno --version            Show version information")
	fmt.Println("  victoruno --help               Show this help")
	fmt.Println()
	fmt.Println("Ask flags:")
	fmt.Println("  -doc <path>        Attach a document (txt, md, html, pdf, docx)")
	fmt.Println("  -session <uuid>    Continue an existing session")
	fmt.Println()
	fmt.Println("Chat commands (in interactive mode):")
	fmt.Println("  /clear             Clear conversation history")
	fmt.Println("  /exit, /quit       Exit VictorUno")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  GEMINI_API_KEY          Required in remote mode")
	fmt.Println("  OPENWEATHERMAP_API_KEY  Optional: enables weather lookups")
	fmt.Println("  VICTORUNO_MODE          local (Ollama) or remote (Gemini)")
	fmt.Println("  DEBUG                   Optional: enable debug logging")
}
