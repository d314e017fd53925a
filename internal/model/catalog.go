package model

// ItemStack is a renderable stack of one material: what the vendor window
// shows and what delivery places into a player inventory.
type ItemStack struct {
	Material     string
	Amount       int
	MaxStackSize int
	DisplayName  string
	Lore         []string
}

// SlotsNeeded returns how many inventory slots the stack occupies,
// ceil(Amount / MaxStackSize).
func (s ItemStack) SlotsNeeded() int {
	size := s.MaxStackSize
	if size < 1 {
		size = 1
	}
	return (s.Amount + size - 1) / size
}

// ShopItem is one catalog slot: a rendered item with its sampled price and
// the tier it was drawn from.
type ShopItem struct {
	stack ItemStack
	price int64
	tier  Tier
}

// NewShopItem creates a catalog item.
func NewShopItem(stack ItemStack, price int64, tier Tier) ShopItem {
	return ShopItem{stack: stack, price: price, tier: tier}
}

// Stack returns the rendered item stack.
func (i ShopItem) Stack() ItemStack {
	return i.stack
}

// Price returns the sampled price.
func (i ShopItem) Price() int64 {
	return i.price
}

// Tier returns the tier the item was drawn from.
func (i ShopItem) Tier() Tier {
	return i.tier
}

// Catalog is the ordered, read-only list of items offered by one spawn.
type Catalog []ShopItem
