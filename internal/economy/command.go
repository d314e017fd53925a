package economy

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/edenforge/bazaar/internal/config"
	"github.com/edenforge/bazaar/internal/host"
)

// commandBackend drives an economy plugin through console commands. It
// cannot observe real balances or atomicity: Has is optimistic, Balance
// returns the configured default, and command results are best-effort.
type commandBackend struct {
	server   host.Server
	settings config.EconomySettings
}

func newCommandBackend(server host.Server, settings config.EconomySettings) *commandBackend {
	return &commandBackend{server: server, settings: settings}
}

func (c *commandBackend) Has(player uuid.UUID, amount int64) (bool, error) {
	// No balance query exists on the command surface; assume affordable
	// and let Withdraw be the arbiter.
	slog.Debug("command economy balance check is optimistic", "player", player, "amount", amount)
	return true, nil
}

func (c *commandBackend) Withdraw(player uuid.UUID, amount int64) (bool, error) {
	return c.run("take", player, amount)
}

func (c *commandBackend) Deposit(player uuid.UUID, amount int64) (bool, error) {
	return c.run("give", player, amount)
}

func (c *commandBackend) Balance(player uuid.UUID) (int64, error) {
	// Not observable over commands; report the configured default so
	// user-facing messages stay plausible.
	return c.settings.DefaultBalance, nil
}

func (c *commandBackend) Format(amount int64) string {
	return fmt.Sprintf("%d %s", amount, c.settings.CurrencyName)
}

func (c *commandBackend) run(action string, player uuid.UUID, amount int64) (bool, error) {
	name, ok := c.playerName(player)
	if !ok {
		return false, fmt.Errorf("player %s is not online", player)
	}
	line := fmt.Sprintf("et %s %s %d", action, name, amount)
	if !c.server.DispatchCommand(line) {
		return false, fmt.Errorf("command %q was rejected", line)
	}
	return true, nil
}

func (c *commandBackend) playerName(id uuid.UUID) (string, bool) {
	for _, p := range c.server.OnlinePlayers() {
		if p.ID() == id {
			return p.Name(), true
		}
	}
	return "", false
}
