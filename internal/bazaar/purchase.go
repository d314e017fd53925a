package bazaar

import (
	"log/slog"

	"github.com/edenforge/bazaar/internal/economy"
	"github.com/edenforge/bazaar/internal/host"
	"github.com/edenforge/bazaar/internal/model"
)

// Purchaser executes the buy flow for one catalog item: validate funds and
// inventory space, debit, deliver, and roll the debit back if delivery
// fails after payment.
type Purchaser struct {
	controller *Controller
	economy    *economy.Adapter
}

// NewPurchaser wires the purchase path.
func NewPurchaser(controller *Controller, eco *economy.Adapter) *Purchaser {
	return &Purchaser{controller: controller, economy: eco}
}

// Buy runs the purchase transaction for player and item. It returns true
// only when the item was paid for and fully delivered. Every failure mode
// messages the player; none of them panic.
func (p *Purchaser) Buy(player host.Player, item model.ShopItem) bool {
	store := p.controller.store
	price := item.Price()

	if !p.controller.Active() {
		player.SendMessage(store.Message("bazaar_not_active"))
		return false
	}

	if !p.economy.Has(player.ID(), price) {
		balance := p.economy.Balance(player.ID())
		player.SendMessage(store.Message("not_enough_money",
			"{price}", p.economy.Format(price),
			"{balance}", p.economy.Format(balance),
		))
		return false
	}

	needed := item.Stack().SlotsNeeded()
	if player.Inventory().FreeSlots() < needed {
		player.SendMessage(store.Message("inventory_full"))
		return false
	}

	if !p.economy.Withdraw(player.ID(), price) {
		player.SendMessage(store.Message("payment_failed"))
		return false
	}

	rejected := player.Inventory().AddItem(item.Stack())
	if rejected > 0 {
		// Paid but not delivered: credit the money back. A failed refund
		// escalates inside the adapter; the player must not be told they
		// were not charged when the debit still stands.
		slog.Error("purchase delivery failed after payment",
			"player", player.Name(),
			"item", item.Stack().Material,
			"rejected", rejected,
			"price", price)
		if p.economy.Refund(player.ID(), price) {
			player.SendMessage(store.Message("payment_failed"))
		} else {
			player.SendMessage(store.Message("refund_failed"))
		}
		return false
	}

	snap := store.Snapshot()
	player.SendMessage(store.Message("purchase_success",
		"{item}", item.Stack().DisplayName,
		"{price}", p.economy.Format(price),
	))
	player.PlaySound(snap.PurchaseSound)
	p.controller.effects.Burst(player.Location().Add(0, 1, 0), "HAPPY_VILLAGER", 10)

	slog.Info("purchase completed",
		"player", player.Name(),
		"item", item.Stack().Material,
		"amount", item.Stack().Amount,
		"price", price)
	return true
}
