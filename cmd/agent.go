package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/referralgraph/referralgraph/internal/agent"
	"github.com/referralgraph/referralgraph/internal/dependency"
	"github.com/referralgraph/referralgraph/internal/schema"
)

var (
	agentQuestion string
	agentTools    bool
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Ask the referral network agent",
	RunE:  runAgent,
}

func init() {
	agentCmd.Flags().StringVarP(&agentQuestion, "question", "q", "", "Ask a single question and exit")
	agentCmd.Flags().BoolVar(&agentTools, "show-tools", false, "Print which tools each answer used")
}

var exitCommands = map[string]bool{
	"exit":  true,
	"quit":  true,
	"/exit": true,
	"/quit": true,
	":q":    true,
}

func runAgent(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	container, err := dependency.New(cfg)
	if err != nil {
		return err
	}
	if agentQuestion != "" {
		return runSingleQuestion(container.Agent(), agentQuestion)
	}
	return runInteractive(container)
}

// runSingleQuestion asks one question and prints the answer.
func runSingleQuestion(ag *agent.Agent, question string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	fmt.Fprintln(os.Stderr, "  ↳ thinking...")
	result, err := ag.Ask(ctx, question)
	if err != nil {
		return err
	}
	printAnswer(result)
	return nil
}

// runInteractive starts the REPL: each line is a new user turn on one
// running conversation, so follow-up questions keep their context. The
// 'test' command checks the graph connection without spending a model call.
func runInteractive(container *dependency.ServiceContainer) error {
	ag := container.Agent()
	fmt.Printf("%s Interactive mode (type 'exit' or Ctrl+C to quit, 'test' to check the graph)\n\n", logo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	listenForSignals(cancel)

	conversation := schema.NewMessages()
	conversation.AddSystem(agent.DefaultSettings().SystemPrompt)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")

		if !scanner.Scan() {
			fmt.Println("\nGoodbye!")
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if exitCommands[strings.ToLower(line)] {
			fmt.Println("Goodbye!")
			return nil
		}
		if strings.ToLower(line) == "test" {
			testConnection(ctx, container)
			continue
		}

		result, err := ag.Continue(ctx, &conversation, line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		printAnswer(result)
	}
}

// testConnection runs a vertex count against the graph and reports the
// outcome, mirroring the standalone status check.
func testConnection(ctx context.Context, container *dependency.ServiceContainer) {
	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	results, err := container.GraphStore().Submit(checkCtx, "g.V().count()", nil)
	if err != nil {
		fmt.Printf("Database connection FAILED: %v\n", err)
		return
	}
	if len(results) > 0 {
		fmt.Printf("Database connection: OK (%v vertices)\n", results[0])
		return
	}
	fmt.Println("Database connection: OK")
}

// listenForSignals cancels ctx on SIGINT or SIGTERM and exits.
func listenForSignals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nGoodbye!")
		cancel()
		os.Exit(0)
	}()
}

func printAnswer(result agent.Result) {
	fmt.Printf("\n%s referralgraph\n%s\n\n", logo, result.Content)
	if agentTools && len(result.ToolsUsed) > 0 {
		fmt.Printf("  (tools: %s)\n\n", strings.Join(result.ToolsUsed, ", "))
	}
}
