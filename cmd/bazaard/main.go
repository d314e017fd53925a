// Command bazaard runs the mobile bazaar against the in-memory host: it
// loads the data directory, selects an economy backend, starts the main
// loop and the periodic spawner, and serves an interactive console for the
// /bazaar command family.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/edenforge/bazaar/internal/bazaar"
	"github.com/edenforge/bazaar/internal/command"
	"github.com/edenforge/bazaar/internal/config"
	"github.com/edenforge/bazaar/internal/economy"
	"github.com/edenforge/bazaar/internal/effects"
	"github.com/edenforge/bazaar/internal/gui"
	"github.com/edenforge/bazaar/internal/host/inmem"
	"github.com/edenforge/bazaar/internal/loot"
	"github.com/edenforge/bazaar/internal/message"
)

func main() {
	dataDir := flag.String("data", "data", "data directory for config and ledger files")
	worldID := flag.String("world", "world", "id of the demo world")
	flag.Parse()

	if err := run(*dataDir, *worldID); err != nil && err != context.Canceled {
		slog.Error("bazaard exited with error", "error", err)
		os.Exit(1)
	}
}

func run(dataDir, worldID string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	worlds := inmem.NewRegistry()
	worlds.AddWorld(worldID)
	items := inmem.NewItemRegistry()
	server := inmem.NewServer()
	scheduler := inmem.NewScheduler()

	store := config.NewStore(dataDir, worlds, items)
	if err := store.Load(); err != nil {
		slog.Error("starting with default configuration", "error", err)
	}
	snap := store.Snapshot()
	setupLogging(snap.Debug)

	builtin, err := economy.NewBuiltin(
		filepath.Join(dataDir, "balances.txt"),
		snap.Economy.DefaultBalance,
		snap.Economy.CurrencySymbol,
	)
	if err != nil {
		return fmt.Errorf("opening built-in ledger: %w", err)
	}

	var ledger *economy.Postgres
	if dsn := snap.Economy.PostgresDSN; dsn != "" {
		ledger, err = economy.NewPostgres(ctx, dsn, snap.Economy.DefaultBalance, snap.Economy.CurrencySymbol)
		if err != nil {
			slog.Error("database ledger unavailable, falling back", "error", err)
		} else {
			defer ledger.Close()
			server.RegisterEconomyService(ledger)
		}
	}

	eco := economy.Setup(server, snap.Economy, builtin)

	fx := effects.NewRunner(scheduler, worlds, store.Snapshot)
	generator := loot.NewGenerator(items, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	controller := bazaar.NewController(store, worlds, server, scheduler, generator, fx, rng)
	purchaser := bazaar.NewPurchaser(controller, eco)
	windows := gui.NewService(store, controller, purchaser)
	handler := command.NewHandler(store, controller, items, windows)

	console := &consoleSender{}
	server.SetCommandHandler(func(line string) bool {
		fields := strings.Fields(line)
		if len(fields) == 0 || !strings.EqualFold(fields[0], "bazaar") {
			return false
		}
		return handler.Execute(console, fields[1:])
	})

	controller.StartScheduler()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return scheduler.Start(ctx) })
	g.Go(func() error { return builtin.Run(ctx) })
	g.Go(func() error { return readConsole(ctx, server) })
	g.Go(func() error {
		<-ctx.Done()
		scheduler.Run(controller.Shutdown)
		scheduler.Stop()
		builtin.Stop()
		return nil
	})

	slog.Info("bazaard running", "dataDir", dataDir, "world", worldID, "economy", eco.Kind())
	return g.Wait()
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// readConsole feeds stdin lines into the server command dispatch.
func readConsole(ctx context.Context, server *inmem.Server) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if !server.DispatchCommand(line) {
				fmt.Println("unknown command:", line)
			}
		}
	}
}

// consoleSender adapts the process console to the command sender surface.
// The console holds every permission.
type consoleSender struct{}

func (consoleSender) Name() string { return "console" }

func (consoleSender) SendMessage(msg string) {
	fmt.Println(message.Strip(msg))
}

func (consoleSender) HasPermission(string) bool { return true }
