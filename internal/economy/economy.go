// Package economy presents one balance/debit/credit API over several
// backends: an external service-registry provider, a command-driven
// provider, and a built-in file-backed ledger. A "no economy" terminal
// state is permitted; in it every predicate and debit returns false.
package economy

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/edenforge/bazaar/internal/config"
	"github.com/edenforge/bazaar/internal/host"
)

// Kind identifies the selected backend variant.
type Kind int

const (
	KindNone Kind = iota
	KindExternal
	KindCommandDriven
	KindBuiltin
)

func (k Kind) String() string {
	switch k {
	case KindExternal:
		return "external"
	case KindCommandDriven:
		return "command-driven"
	case KindBuiltin:
		return "builtin"
	default:
		return "none"
	}
}

// commandEconomyPlugin is the host plugin whose presence enables the
// command-driven backend.
const commandEconomyPlugin = "CoinsEngine"

// Backend is one concrete economy implementation. Backends may fail;
// the Adapter absorbs errors into false results and logs.
type Backend interface {
	Has(player uuid.UUID, amount int64) (bool, error)
	Withdraw(player uuid.UUID, amount int64) (bool, error)
	Deposit(player uuid.UUID, amount int64) (bool, error)
	Balance(player uuid.UUID) (int64, error)
	Format(amount int64) string
}

// Adapter is the economy facade the purchase path talks to. Its predicate
// and debit calls never panic and never return errors; backend failures
// log and report false.
type Adapter struct {
	kind    Kind
	backend Backend
}

// Setup selects a backend in order: external service-registry provider,
// command-driven provider, built-in ledger. The built-in ledger is passed
// in constructed (it owns a file and a flush loop with its own lifecycle).
func Setup(server host.Server, settings config.EconomySettings, builtin *Builtin) *Adapter {
	if settings.PreferExternal {
		if svc, ok := server.EconomyService(); ok {
			slog.Info("economy: using external provider")
			return &Adapter{kind: KindExternal, backend: &external{svc: svc}}
		}
	}

	if server.HasPlugin(commandEconomyPlugin) {
		slog.Info("economy: using command-driven provider", "plugin", commandEconomyPlugin)
		return &Adapter{kind: KindCommandDriven, backend: newCommandBackend(server, settings)}
	}

	if builtin != nil {
		slog.Info("economy: using built-in ledger")
		slog.Warn("no external economy found, players start with the default balance",
			"defaultBalance", settings.DefaultBalance)
		return &Adapter{kind: KindBuiltin, backend: builtin}
	}

	slog.Warn("economy: no backend available, purchases are disabled")
	return &Adapter{kind: KindNone}
}

// NewAdapter wraps an explicit backend; used by tests to inject stubs.
func NewAdapter(kind Kind, backend Backend) *Adapter {
	return &Adapter{kind: kind, backend: backend}
}

// Kind returns the selected backend variant.
func (a *Adapter) Kind() Kind {
	return a.kind
}

// Has reports whether the player can afford amount. Never errors; a
// backend failure logs and reads as false.
func (a *Adapter) Has(player uuid.UUID, amount int64) bool {
	if a.backend == nil {
		slog.Warn("economy check with no backend", "player", player)
		return false
	}
	ok, err := a.backend.Has(player, amount)
	if err != nil {
		slog.Error("economy balance check failed", "player", player, "amount", amount, "error", err)
		return false
	}
	return ok
}

// Withdraw debits the player. Atomic with respect to the backend's own
// semantics; the command-driven backend is best-effort.
func (a *Adapter) Withdraw(player uuid.UUID, amount int64) bool {
	if a.backend == nil {
		slog.Warn("economy withdrawal with no backend", "player", player)
		return false
	}
	ok, err := a.backend.Withdraw(player, amount)
	if err != nil {
		slog.Error("economy withdrawal failed", "player", player, "amount", amount, "error", err)
		return false
	}
	return ok
}

// Deposit credits the player; required for purchase rollback.
func (a *Adapter) Deposit(player uuid.UUID, amount int64) bool {
	if a.backend == nil {
		return false
	}
	ok, err := a.backend.Deposit(player, amount)
	if err != nil {
		slog.Error("economy deposit failed", "player", player, "amount", amount, "error", err)
		return false
	}
	return ok
}

// Balance returns the player's balance, 0 when unavailable.
func (a *Adapter) Balance(player uuid.UUID) int64 {
	if a.backend == nil {
		return 0
	}
	bal, err := a.backend.Balance(player)
	if err != nil {
		slog.Error("economy balance read failed", "player", player, "error", err)
		return 0
	}
	return bal
}

// Format renders an amount for display.
func (a *Adapter) Format(amount int64) string {
	if a.backend == nil {
		return fmt.Sprintf("%d", amount)
	}
	return a.backend.Format(amount)
}

// Refund credits amount back after a failed delivery. When the backend
// cannot credit, this escalates to a manual-intervention log record with
// player id, amount and timestamp; there is no automatic compensation.
func (a *Adapter) Refund(player uuid.UUID, amount int64) bool {
	if a.Deposit(player, amount) {
		return true
	}
	slog.Error("MANUAL INTERVENTION REQUIRED: refund failed",
		"player", player,
		"amount", amount,
		"backend", a.kind.String(),
		"timestamp", time.Now().Format(time.RFC3339))
	return false
}

// external wraps a host service-registry economy provider.
type external struct {
	svc host.EconomyService
}

func (e *external) Has(player uuid.UUID, amount int64) (bool, error) {
	return e.svc.Has(player, amount)
}

func (e *external) Withdraw(player uuid.UUID, amount int64) (bool, error) {
	return e.svc.Withdraw(player, amount)
}

func (e *external) Deposit(player uuid.UUID, amount int64) (bool, error) {
	return e.svc.Deposit(player, amount)
}

func (e *external) Balance(player uuid.UUID) (int64, error) {
	return e.svc.Balance(player)
}

func (e *external) Format(amount int64) string {
	return e.svc.Format(amount)
}
