package economy

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// flushInterval is how often the built-in ledger writes itself to disk.
const flushInterval = 5 * time.Minute

// Builtin is the file-backed fallback ledger: a concurrent balance map
// keyed by player id, persisted line-oriented as "playerId:balance".
// Unknown players read as the default balance.
type Builtin struct {
	path           string
	defaultBalance int64
	symbol         string

	mu       sync.RWMutex
	balances map[uuid.UUID]int64
	dirty    bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewBuiltin creates a ledger persisted at path and loads existing
// balances. A missing file is an empty ledger, not an error.
func NewBuiltin(path string, defaultBalance int64, symbol string) (*Builtin, error) {
	b := &Builtin{
		path:           path,
		defaultBalance: defaultBalance,
		symbol:         symbol,
		balances:       make(map[uuid.UUID]int64),
		stopCh:         make(chan struct{}),
	}
	if err := b.load(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Builtin) load() error {
	f, err := os.Open(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("opening balances file %s: %w", b.path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	loaded := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		id, balance, err := parseBalanceLine(line)
		if err != nil {
			slog.Warn("invalid balance entry, skipping", "line", line, "error", err)
			continue
		}
		b.balances[id] = balance
		loaded++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading balances file %s: %w", b.path, err)
	}

	slog.Info("player balances loaded", "count", loaded)
	return nil
}

func parseBalanceLine(line string) (uuid.UUID, int64, error) {
	id, rest, ok := strings.Cut(line, ":")
	if !ok {
		return uuid.Nil, 0, fmt.Errorf("missing separator")
	}
	playerID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, 0, fmt.Errorf("bad player id: %w", err)
	}
	balance, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return uuid.Nil, 0, fmt.Errorf("bad balance: %w", err)
	}
	return playerID, balance, nil
}

// Run flushes the ledger on a timer until the context is canceled or Stop
// is called, then writes a final flush.
func (b *Builtin) Run(ctx context.Context) error {
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	slog.Info("ledger flush loop started", "interval", flushInterval)
	for {
		select {
		case <-ctx.Done():
			b.flushFinal()
			return ctx.Err()
		case <-b.stopCh:
			b.flushFinal()
			return nil
		case <-ticker.C:
			if err := b.Flush(); err != nil {
				slog.Error("failed to flush balances", "error", err)
			}
		}
	}
}

// Stop stops the flush loop; Run performs the final flush.
func (b *Builtin) Stop() {
	b.stopOnce.Do(func() { close(b.stopCh) })
}

func (b *Builtin) flushFinal() {
	done := make(chan error, 1)
	go func() { done <- b.Flush() }()
	select {
	case err := <-done:
		if err != nil {
			slog.Error("final balance flush failed", "error", err)
		}
	case <-time.After(5 * time.Second):
		slog.Error("final balance flush timed out")
	}
}

// Flush writes all balances to disk if anything changed since the last
// flush. Holds no locks on callers while writing.
func (b *Builtin) Flush() error {
	b.mu.Lock()
	if !b.dirty {
		b.mu.Unlock()
		return nil
	}
	lines := make([]string, 0, len(b.balances))
	for id, balance := range b.balances {
		lines = append(lines, id.String()+":"+strconv.FormatInt(balance, 10))
	}
	b.dirty = false
	b.mu.Unlock()

	content := strings.Join(lines, "\n")
	if content != "" {
		content += "\n"
	}
	if err := os.WriteFile(b.path, []byte(content), 0o644); err != nil {
		b.mu.Lock()
		b.dirty = true
		b.mu.Unlock()
		return fmt.Errorf("writing balances file %s: %w", b.path, err)
	}
	slog.Debug("player balances flushed", "count", len(lines))
	return nil
}

func (b *Builtin) Has(player uuid.UUID, amount int64) (bool, error) {
	bal, _ := b.Balance(player)
	return bal >= amount, nil
}

func (b *Builtin) Withdraw(player uuid.UUID, amount int64) (bool, error) {
	if amount < 0 {
		return false, fmt.Errorf("negative withdrawal %d", amount)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	balance, ok := b.balances[player]
	if !ok {
		balance = b.defaultBalance
	}
	if balance < amount {
		return false, nil
	}
	b.balances[player] = balance - amount
	b.dirty = true
	return true, nil
}

func (b *Builtin) Deposit(player uuid.UUID, amount int64) (bool, error) {
	if amount < 0 {
		return false, fmt.Errorf("negative deposit %d", amount)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	balance, ok := b.balances[player]
	if !ok {
		balance = b.defaultBalance
	}
	b.balances[player] = balance + amount
	b.dirty = true
	return true, nil
}

func (b *Builtin) Balance(player uuid.UUID) (int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if balance, ok := b.balances[player]; ok {
		return balance, nil
	}
	return b.defaultBalance, nil
}

func (b *Builtin) Format(amount int64) string {
	return b.symbol + strconv.FormatInt(amount, 10)
}
