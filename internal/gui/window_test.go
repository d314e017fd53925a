package gui

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edenforge/bazaar/internal/bazaar"
	"github.com/edenforge/bazaar/internal/config"
	"github.com/edenforge/bazaar/internal/economy"
	"github.com/edenforge/bazaar/internal/effects"
	"github.com/edenforge/bazaar/internal/host/inmem"
	"github.com/edenforge/bazaar/internal/loot"
)

type walletStub struct {
	balance int64
}

func (w *walletStub) Has(player uuid.UUID, amount int64) (bool, error) {
	return w.balance >= amount, nil
}

func (w *walletStub) Withdraw(player uuid.UUID, amount int64) (bool, error) {
	if w.balance < amount {
		return false, nil
	}
	w.balance -= amount
	return true, nil
}

func (w *walletStub) Deposit(player uuid.UUID, amount int64) (bool, error) {
	w.balance += amount
	return true, nil
}

func (w *walletStub) Balance(player uuid.UUID) (int64, error) { return w.balance, nil }
func (w *walletStub) Format(amount int64) string              { return fmt.Sprintf("$%d", amount) }

type guiFixture struct {
	store      *config.Store
	world      *inmem.World
	server     *inmem.Server
	controller *bazaar.Controller
	wallet     *walletStub
	service    *Service
}

func newGuiFixture(t *testing.T) *guiFixture {
	t.Helper()

	dir := t.TempDir()
	worlds := inmem.NewRegistry()
	world := worlds.AddWorld("world")
	items := inmem.NewItemRegistry()
	server := inmem.NewServer()
	scheduler := inmem.NewScheduler()

	locations := `spawn_points:
  market:
    world: world
    x: 0
    y: 64
    z: 0
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.LocationsFile), []byte(locations), 0o644))

	store := config.NewStore(dir, worlds, items)
	require.NoError(t, store.Load())

	fx := effects.NewRunner(scheduler, worlds, store.Snapshot)
	generator := loot.NewGenerator(items, rand.New(rand.NewPCG(3, 3)))
	controller := bazaar.NewController(store, worlds, server, scheduler, generator, fx, rand.New(rand.NewPCG(5, 5)))
	t.Cleanup(controller.Shutdown)

	wallet := &walletStub{balance: 1_000_000}
	purchaser := bazaar.NewPurchaser(controller, economy.NewAdapter(economy.KindBuiltin, wallet))

	return &guiFixture{
		store:      store,
		world:      world,
		server:     server,
		controller: controller,
		wallet:     wallet,
		service:    NewService(store, controller, purchaser),
	}
}

func (f *guiFixture) joinPlayer(t *testing.T, name string) *inmem.Player {
	t.Helper()
	p := inmem.NewPlayer(name)
	p.Grant(usePermission)
	f.world.AddPlayer(p)
	f.server.Join(p)
	return p
}

func TestOpenRequiresPermission(t *testing.T) {
	f := newGuiFixture(t)
	require.NoError(t, f.controller.Spawn())

	p := inmem.NewPlayer("Steve")
	f.server.Join(p)
	f.service.Open(p)

	assert.Nil(t, p.Window())
	assert.Contains(t, p.LastMessage(), "permission")
}

func TestOpenWhenInactive(t *testing.T) {
	f := newGuiFixture(t)
	p := f.joinPlayer(t, "Steve")

	f.service.Open(p)

	assert.Nil(t, p.Window())
	assert.Contains(t, p.LastMessage(), "not here")
}

func TestOpenLaysOutWindow(t *testing.T) {
	f := newGuiFixture(t)
	p := f.joinPlayer(t, "Steve")
	require.NoError(t, f.controller.Spawn())

	f.service.Open(p)
	w := p.Window()
	require.NotNil(t, w)

	snap := f.store.Snapshot()
	assert.Equal(t, snap.GUI.Size, w.Size())
	assert.Contains(t, w.Title(), "Mobile Bazaar")

	catalog := f.controller.Catalog()
	require.NotEmpty(t, catalog)
	for i, slot := range snap.GUI.ItemSlots {
		if i >= len(catalog) {
			break
		}
		got, ok := w.Item(slot)
		require.True(t, ok)
		assert.Equal(t, catalog[i].Stack(), got)
	}

	info, ok := w.Item(snap.GUI.InfoSlot)
	require.True(t, ok)
	assert.Equal(t, snap.GUI.InfoMaterial, info.Material)

	closeItem, ok := w.Item(snap.GUI.CloseSlot)
	require.True(t, ok)
	assert.Equal(t, snap.GUI.CloseMaterial, closeItem.Material)

	background, ok := w.Item(0)
	require.True(t, ok)
	assert.Equal(t, snap.GUI.BackgroundMaterial, background.Material)
}

func TestClickCloseSlot(t *testing.T) {
	f := newGuiFixture(t)
	p := f.joinPlayer(t, "Steve")
	require.NoError(t, f.controller.Spawn())

	f.service.Open(p)
	w := p.Window()
	require.NotNil(t, w)

	w.Click(p, f.store.Snapshot().GUI.CloseSlot)
	assert.Nil(t, p.Window())
	assert.Equal(t, int64(1_000_000), f.wallet.balance, "closing must not charge")
}

func TestClickItemSlotBuysAndCloses(t *testing.T) {
	f := newGuiFixture(t)
	p := f.joinPlayer(t, "Steve")
	require.NoError(t, f.controller.Spawn())

	f.service.Open(p)
	w := p.Window()
	require.NotNil(t, w)

	slot := f.store.Snapshot().GUI.ItemSlots[0]
	item := f.controller.Catalog()[0]

	w.Click(p, slot)

	assert.Equal(t, 1_000_000-item.Price(), f.wallet.balance)
	assert.Equal(t, 1, p.Inventory().(*inmem.Inventory).Count(item.Stack().Material))
	assert.Nil(t, p.Window(), "a successful purchase closes the window")
}

func TestDoubleClickIsAbsorbed(t *testing.T) {
	f := newGuiFixture(t)
	p := f.joinPlayer(t, "Steve")
	require.NoError(t, f.controller.Spawn())

	f.service.Open(p)
	w := p.Window()
	require.NotNil(t, w)

	slot := f.store.Snapshot().GUI.ItemSlots[0]
	item := f.controller.Catalog()[0]

	w.Click(p, slot)
	w.Click(p, slot) // within the cooldown, must not buy again

	assert.Equal(t, 1_000_000-item.Price(), f.wallet.balance)
}

func TestClickBackgroundIsInert(t *testing.T) {
	f := newGuiFixture(t)
	p := f.joinPlayer(t, "Steve")
	require.NoError(t, f.controller.Spawn())

	f.service.Open(p)
	w := p.Window()
	require.NotNil(t, w)

	w.Click(p, 0)
	w.Click(p, 1)

	assert.NotNil(t, p.Window())
	assert.Equal(t, int64(1_000_000), f.wallet.balance)
}
