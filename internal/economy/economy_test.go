package economy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edenforge/bazaar/internal/config"
	"github.com/edenforge/bazaar/internal/host"
	"github.com/edenforge/bazaar/internal/host/inmem"
)

// stubBackend counts calls and can be told to fail.
type stubBackend struct {
	balance   int64
	fail      bool
	withdraws int
	deposits  int
}

func (s *stubBackend) Has(player uuid.UUID, amount int64) (bool, error) {
	if s.fail {
		return false, fmt.Errorf("backend down")
	}
	return s.balance >= amount, nil
}

func (s *stubBackend) Withdraw(player uuid.UUID, amount int64) (bool, error) {
	if s.fail {
		return false, fmt.Errorf("backend down")
	}
	s.withdraws++
	if s.balance < amount {
		return false, nil
	}
	s.balance -= amount
	return true, nil
}

func (s *stubBackend) Deposit(player uuid.UUID, amount int64) (bool, error) {
	if s.fail {
		return false, fmt.Errorf("backend down")
	}
	s.deposits++
	s.balance += amount
	return true, nil
}

func (s *stubBackend) Balance(player uuid.UUID) (int64, error) {
	if s.fail {
		return 0, fmt.Errorf("backend down")
	}
	return s.balance, nil
}

func (s *stubBackend) Format(amount int64) string {
	return fmt.Sprintf("$%d", amount)
}

func TestAdapterAbsorbsBackendErrors(t *testing.T) {
	adapter := NewAdapter(KindExternal, &stubBackend{fail: true})
	player := uuid.New()

	assert.False(t, adapter.Has(player, 10))
	assert.False(t, adapter.Withdraw(player, 10))
	assert.False(t, adapter.Deposit(player, 10))
	assert.Equal(t, int64(0), adapter.Balance(player))
}

func TestAdapterNoBackendDeniesEverything(t *testing.T) {
	adapter := NewAdapter(KindNone, nil)
	player := uuid.New()

	assert.False(t, adapter.Has(player, 1))
	assert.False(t, adapter.Withdraw(player, 1))
	assert.Equal(t, int64(0), adapter.Balance(player))
	assert.Equal(t, "7", adapter.Format(7))
}

func TestRefundDeposits(t *testing.T) {
	backend := &stubBackend{balance: 100}
	adapter := NewAdapter(KindBuiltin, backend)
	player := uuid.New()

	require.True(t, adapter.Withdraw(player, 60))
	assert.True(t, adapter.Refund(player, 60))
	assert.Equal(t, int64(100), adapter.Balance(player))
}

func TestRefundFailureReportsFalse(t *testing.T) {
	backend := &stubBackend{balance: 100}
	adapter := NewAdapter(KindBuiltin, backend)
	player := uuid.New()

	require.True(t, adapter.Withdraw(player, 60))
	backend.fail = true
	assert.False(t, adapter.Refund(player, 60))
}

func TestSetupPrefersExternalProvider(t *testing.T) {
	server := inmem.NewServer()
	server.RegisterEconomyService(externalStub{})

	adapter := Setup(server, config.EconomySettings{PreferExternal: true}, nil)
	assert.Equal(t, KindExternal, adapter.Kind())
}

func TestSetupSkipsExternalWhenNotPreferred(t *testing.T) {
	server := inmem.NewServer()
	server.RegisterEconomyService(externalStub{})

	builtin := newTestBuiltin(t)
	adapter := Setup(server, config.EconomySettings{PreferExternal: false}, builtin)
	assert.Equal(t, KindBuiltin, adapter.Kind())
}

func TestSetupUsesCommandPluginWhenPresent(t *testing.T) {
	server := inmem.NewServer()
	server.AddPlugin("CoinsEngine")

	adapter := Setup(server, config.EconomySettings{PreferExternal: true}, nil)
	assert.Equal(t, KindCommandDriven, adapter.Kind())
}

func TestSetupFallsBackToNone(t *testing.T) {
	adapter := Setup(inmem.NewServer(), config.EconomySettings{PreferExternal: true}, nil)
	assert.Equal(t, KindNone, adapter.Kind())
	assert.False(t, adapter.Has(uuid.New(), 1))
}

// externalStub is a minimal service-registry provider.
type externalStub struct{}

func (externalStub) Has(uuid.UUID, int64) (bool, error)      { return true, nil }
func (externalStub) Withdraw(uuid.UUID, int64) (bool, error) { return true, nil }
func (externalStub) Deposit(uuid.UUID, int64) (bool, error)  { return true, nil }
func (externalStub) Balance(uuid.UUID) (int64, error)        { return 0, nil }
func (externalStub) Format(amount int64) string              { return fmt.Sprintf("%d", amount) }

var _ host.EconomyService = externalStub{}

func newTestBuiltin(t *testing.T) *Builtin {
	t.Helper()
	b, err := NewBuiltin(filepath.Join(t.TempDir(), "balances.txt"), 1000, "$")
	require.NoError(t, err)
	return b
}

func TestBuiltinDefaultBalance(t *testing.T) {
	b := newTestBuiltin(t)
	balance, err := b.Balance(uuid.New())
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balance)
}

func TestBuiltinWithdrawDeposit(t *testing.T) {
	b := newTestBuiltin(t)
	player := uuid.New()

	ok, err := b.Withdraw(player, 400)
	require.NoError(t, err)
	assert.True(t, ok)

	balance, _ := b.Balance(player)
	assert.Equal(t, int64(600), balance)

	ok, err = b.Withdraw(player, 700)
	require.NoError(t, err)
	assert.False(t, ok, "insufficient funds must decline without error")
	balance, _ = b.Balance(player)
	assert.Equal(t, int64(600), balance)

	ok, err = b.Deposit(player, 150)
	require.NoError(t, err)
	assert.True(t, ok)
	balance, _ = b.Balance(player)
	assert.Equal(t, int64(750), balance)
}

func TestBuiltinRejectsNegativeAmounts(t *testing.T) {
	b := newTestBuiltin(t)
	player := uuid.New()

	_, err := b.Withdraw(player, -5)
	assert.Error(t, err)
	_, err = b.Deposit(player, -5)
	assert.Error(t, err)
}

func TestBuiltinFlushAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balances.txt")
	b, err := NewBuiltin(path, 1000, "$")
	require.NoError(t, err)

	player := uuid.New()
	_, err = b.Withdraw(player, 250)
	require.NoError(t, err)
	require.NoError(t, b.Flush())

	reloaded, err := NewBuiltin(path, 1000, "$")
	require.NoError(t, err)
	balance, _ := reloaded.Balance(player)
	assert.Equal(t, int64(750), balance)
}

func TestBuiltinLoadSkipsInvalidLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "balances.txt")
	player := uuid.New()
	content := strings.Join([]string{
		"not-a-uuid:500",
		player.String() + ":321",
		player.String() + "-no-balance",
		"",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	b, err := NewBuiltin(path, 1000, "$")
	require.NoError(t, err)
	balance, _ := b.Balance(player)
	assert.Equal(t, int64(321), balance)
}

func TestBuiltinFormat(t *testing.T) {
	b := newTestBuiltin(t)
	assert.Equal(t, "$250", b.Format(250))
}

func TestCommandBackendDispatches(t *testing.T) {
	server := inmem.NewServer()
	player := inmem.NewPlayer("Steve")
	server.Join(player)
	server.SetCommandHandler(func(line string) bool { return true })

	backend := newCommandBackend(server, config.EconomySettings{DefaultBalance: 1000, CurrencyName: "coins"})

	ok, err := backend.Withdraw(player.ID(), 50)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = backend.Deposit(player.ID(), 25)
	require.NoError(t, err)
	assert.True(t, ok)

	cmds := server.DispatchedCommands()
	require.Len(t, cmds, 2)
	assert.Equal(t, "et take Steve 50", cmds[0])
	assert.Equal(t, "et give Steve 25", cmds[1])
}

func TestCommandBackendOfflinePlayer(t *testing.T) {
	server := inmem.NewServer()
	backend := newCommandBackend(server, config.EconomySettings{})

	_, err := backend.Withdraw(uuid.New(), 50)
	assert.Error(t, err)
	assert.Empty(t, server.DispatchedCommands())
}

func TestCommandBackendIsOptimistic(t *testing.T) {
	server := inmem.NewServer()
	backend := newCommandBackend(server, config.EconomySettings{DefaultBalance: 1234})

	ok, err := backend.Has(uuid.New(), 1_000_000)
	require.NoError(t, err)
	assert.True(t, ok)

	balance, err := backend.Balance(uuid.New())
	require.NoError(t, err)
	assert.Equal(t, int64(1234), balance)
}
