package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/actionengine"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/bootstrap"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/chains"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/events"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/execution"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/intent"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/models"
)

func main() {
	// Flags
	queryFlag := flag.String("q", "", "Parse a single intent and exit")
	modelFlag := flag.String("model", "", "Override LLM_MODEL")
	executeFlag := flag.Bool("execute", false, "Run the resolved actions against the mock execution boundary")
	flag.Parse()

	logger := bootstrap.NewLogger()

	cfg, err := bootstrap.LoadConfig(logger)
	if err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	if cfg.LLMAPIKey() == "" {
		logger.Fatalf("an API key for LLM provider %q is required. Set OPENROUTER_API_KEY or ANTHROPIC_API_KEY.", cfg.LLMProvider)
	}
	if *modelFlag != "" {
		cfg.LLMModel = *modelFlag
	}

	// Context + signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nShutting down intent REPL...")
		cancel()
	}()

	registryStore, err := bootstrap.OpenRegistry(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to open registry")
	}
	defer registryStore.Close()

	// chains live only for the lifetime of the process
	chainStore := chains.NewMemoryStore()
	orch, _, err := bootstrap.Orchestrator(cfg, registryStore, chainStore, events.Nop{}, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to create orchestrator")
	}

	a := &agent{
		orch:    orch,
		execute: *executeFlag,
		engine: actionengine.Deps{
			Boundary: execution.NewMockBoundary(0),
			Store:    chainStore,
			Logger:   logger,
			Timeout:  cfg.ExecutionTimeout,
		},
	}

	// Single-shot mode
	if *queryFlag != "" {
		if err := a.handle(ctx, *queryFlag); err != nil {
			logger.WithError(err).Fatal("intent failed")
		}
		return
	}

	// REPL mode
	a.repl(ctx)
}

type agent struct {
	orch    *intent.Orchestrator
	execute bool
	engine  actionengine.Deps
}

func (a *agent) handle(ctx context.Context, q string) error {
	res, err := a.orch.Orchestrate(ctx, q)
	if err != nil {
		return err
	}
	printResult(res)
	if !a.execute {
		return nil
	}
	return a.run(ctx, res)
}

// run executes the orchestrated actions in their execution mode, filling
// form defaults for fields the classifier left out.
func (a *agent) run(ctx context.Context, res *intent.Result) error {
	chain := &models.ActionChain{
		ID:            res.ChainID,
		ExecutionMode: res.ExecutionMode,
		Status:        models.ChainPending,
		Actions:       res.Actions,
	}
	runner, err := actionengine.NewRunner(chain, a.engine)
	if err != nil {
		return err
	}
	runErr := runner.Run(ctx, actionengine.DefaultForm)

	snap := runner.Chain()
	fmt.Println("Execution:")
	for _, act := range snap.Actions {
		fmt.Printf("  %d. %-10s %s", act.Order, act.Type, act.Status)
		if act.Error != "" {
			fmt.Printf(" (%s)", act.Error)
		}
		fmt.Println()
		if act.Result != nil && len(act.Result.Fields) > 0 {
			fields, _ := json.Marshal(act.Result.Fields)
			fmt.Printf("     result: %s\n", fields)
		}
	}
	fmt.Println()
	return runErr
}

func printResult(res *intent.Result) {
	fmt.Printf("Mode: %s", res.ExecutionMode)
	if res.ChainID != "" {
		fmt.Printf("  Chain: %s", res.ChainID)
	}
	fmt.Println()
	for _, a := range res.Actions {
		fmt.Printf("  %d. %-10s -> %s (confidence %.2f)\n", a.Order, a.Type, a.DAppName, a.Confidence)
		if a.DependsOn != nil {
			fmt.Printf("     depends on action %d\n", *a.DependsOn)
		}
		params, _ := json.Marshal(a.Parameters)
		fmt.Printf("     parameters: %s\n", params)
		if a.UISchema != nil {
			fmt.Printf("     form: %s (%d fields)\n", a.UISchema.Title, len(a.UISchema.Fields))
		}
	}
	fmt.Println()
}

func (a *agent) repl(ctx context.Context) {
	fmt.Println("Cardano intent parser (text -> dApp actions)")
	fmt.Println("Type an instruction and press Enter. Empty line to exit.")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Print("> ")
		q, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println("error reading input:", err)
			return
		}
		q = strings.TrimSpace(q)
		if q == "" {
			fmt.Println("bye")
			return
		}

		// Short cooldown to avoid hammering the LLM if user spams enter.
		time.Sleep(200 * time.Millisecond)

		if err := a.handle(ctx, q); err != nil {
			fmt.Println("error:", err)
		}
	}
}
