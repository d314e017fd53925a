package bazaar

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edenforge/bazaar/internal/economy"
	"github.com/edenforge/bazaar/internal/host"
	"github.com/edenforge/bazaar/internal/host/inmem"
	"github.com/edenforge/bazaar/internal/model"
)

// ledgerStub is a purchase-path economy backend with observable state.
type ledgerStub struct {
	balance      int64
	failDeposit  bool
	failWithdraw bool
}

func (l *ledgerStub) Has(player uuid.UUID, amount int64) (bool, error) {
	return l.balance >= amount, nil
}

func (l *ledgerStub) Withdraw(player uuid.UUID, amount int64) (bool, error) {
	if l.failWithdraw {
		return false, fmt.Errorf("ledger offline")
	}
	if l.balance < amount {
		return false, nil
	}
	l.balance -= amount
	return true, nil
}

func (l *ledgerStub) Deposit(player uuid.UUID, amount int64) (bool, error) {
	if l.failDeposit {
		return false, fmt.Errorf("ledger offline")
	}
	l.balance += amount
	return true, nil
}

func (l *ledgerStub) Balance(player uuid.UUID) (int64, error) {
	return l.balance, nil
}

func (l *ledgerStub) Format(amount int64) string {
	return fmt.Sprintf("$%d", amount)
}

func testShopItem(price int64) model.ShopItem {
	stack := model.ItemStack{
		Material:     "DIAMOND",
		Amount:       1,
		MaxStackSize: 64,
		DisplayName:  "Diamond (RARE)",
	}
	return model.NewShopItem(stack, price, model.TierRare)
}

func TestBuySuccess(t *testing.T) {
	f := newFixture(t)
	p := f.joinPlayer(t, "Steve")
	require.NoError(t, f.controller.Spawn())

	ledger := &ledgerStub{balance: 1000}
	purchaser := NewPurchaser(f.controller, economy.NewAdapter(economy.KindBuiltin, ledger))

	ok := purchaser.Buy(p, testShopItem(250))

	assert.True(t, ok)
	assert.Equal(t, int64(750), ledger.balance)
	assert.Equal(t, 1, p.Inventory().(*inmem.Inventory).Count("DIAMOND"))
	assert.Contains(t, p.LastMessage(), "purchased")
	assert.Contains(t, p.Sounds(), f.store.Snapshot().PurchaseSound)
}

func TestBuyWhenInactive(t *testing.T) {
	f := newFixture(t)
	p := f.joinPlayer(t, "Steve")

	ledger := &ledgerStub{balance: 1000}
	purchaser := NewPurchaser(f.controller, economy.NewAdapter(economy.KindBuiltin, ledger))

	ok := purchaser.Buy(p, testShopItem(250))

	assert.False(t, ok)
	assert.Equal(t, int64(1000), ledger.balance)
	assert.Contains(t, p.LastMessage(), "not here")
}

func TestBuyInsufficientFunds(t *testing.T) {
	f := newFixture(t)
	p := f.joinPlayer(t, "Steve")
	require.NoError(t, f.controller.Spawn())

	ledger := &ledgerStub{balance: 100}
	purchaser := NewPurchaser(f.controller, economy.NewAdapter(economy.KindBuiltin, ledger))

	ok := purchaser.Buy(p, testShopItem(250))

	assert.False(t, ok)
	assert.Equal(t, int64(100), ledger.balance, "no partial debit")
	assert.Equal(t, 0, p.Inventory().(*inmem.Inventory).Count("DIAMOND"))
	assert.Contains(t, p.LastMessage(), "enough money")
	assert.Contains(t, p.LastMessage(), "$250")
	assert.Contains(t, p.LastMessage(), "$100")
}

func TestBuyInventoryFull(t *testing.T) {
	f := newFixture(t)
	p := f.joinPlayer(t, "Steve")
	require.NoError(t, f.controller.Spawn())

	filler := model.ItemStack{Material: "COBBLESTONE", Amount: 64, MaxStackSize: 64}
	p.Inventory().(*inmem.Inventory).Fill(filler)

	ledger := &ledgerStub{balance: 1000}
	purchaser := NewPurchaser(f.controller, economy.NewAdapter(economy.KindBuiltin, ledger))

	ok := purchaser.Buy(p, testShopItem(250))

	assert.False(t, ok)
	assert.Equal(t, int64(1000), ledger.balance, "no debit when there is no room")
	assert.Contains(t, p.LastMessage(), "inventory is full")
}

func TestBuyPaymentFailure(t *testing.T) {
	f := newFixture(t)
	p := f.joinPlayer(t, "Steve")
	require.NoError(t, f.controller.Spawn())

	ledger := &ledgerStub{balance: 1000, failWithdraw: true}
	purchaser := NewPurchaser(f.controller, economy.NewAdapter(economy.KindBuiltin, ledger))

	ok := purchaser.Buy(p, testShopItem(250))

	assert.False(t, ok)
	assert.Equal(t, int64(1000), ledger.balance)
	assert.Equal(t, 0, p.Inventory().(*inmem.Inventory).Count("DIAMOND"))
	assert.Contains(t, p.LastMessage(), "Payment failed")
}

// rejectingInventory passes the free-slot check but rejects delivery,
// modelling an inventory that filled up between validation and delivery.
type rejectingInventory struct {
	host.PlayerInventory
}

func (rejectingInventory) FreeSlots() int { return 36 }

func (rejectingInventory) AddItem(stack model.ItemStack) int { return stack.Amount }

// rejectingPlayer wraps a player with the rejecting inventory.
type rejectingPlayer struct {
	host.Player
	inv rejectingInventory
}

func (p rejectingPlayer) Inventory() host.PlayerInventory { return p.inv }

func TestBuyDeliveryFailureRefunds(t *testing.T) {
	f := newFixture(t)
	base := f.joinPlayer(t, "Steve")
	require.NoError(t, f.controller.Spawn())

	ledger := &ledgerStub{balance: 1000}
	purchaser := NewPurchaser(f.controller, economy.NewAdapter(economy.KindBuiltin, ledger))

	p := rejectingPlayer{Player: base, inv: rejectingInventory{PlayerInventory: base.Inventory()}}
	ok := purchaser.Buy(p, testShopItem(250))

	assert.False(t, ok)
	assert.Equal(t, int64(1000), ledger.balance, "debit must be refunded")
	assert.Contains(t, base.LastMessage(), "Payment failed")
}

func TestBuyDeliveryFailureRefundFailure(t *testing.T) {
	f := newFixture(t)
	base := f.joinPlayer(t, "Steve")
	require.NoError(t, f.controller.Spawn())

	ledger := &ledgerStub{balance: 1000, failDeposit: true}
	purchaser := NewPurchaser(f.controller, economy.NewAdapter(economy.KindBuiltin, ledger))

	p := rejectingPlayer{Player: base, inv: rejectingInventory{PlayerInventory: base.Inventory()}}
	ok := purchaser.Buy(p, testShopItem(250))

	// The debit stands pending manual intervention; the player must not be
	// told they were not charged.
	assert.False(t, ok)
	assert.Equal(t, int64(750), ledger.balance)
	assert.Contains(t, base.LastMessage(), "refund did not go through")
	assert.NotContains(t, base.LastMessage(), "not been charged")
}
