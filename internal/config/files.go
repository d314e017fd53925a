package config

// File names under the data directory. All five are human-editable YAML;
// missing files are created from these defaults on first load.
const (
	SettingsFile  = "settings.yaml"
	LocationsFile = "locations.yaml"
	LootFile      = "loot.yaml"
	GuiFile       = "gui.yaml"
	MessagesFile  = "messages.yaml"
)

// DefaultFiles maps file name to default content.
var DefaultFiles = map[string]string{
	SettingsFile:  defaultSettingsYAML,
	LocationsFile: defaultLocationsYAML,
	LootFile:      defaultLootYAML,
	GuiFile:       defaultGuiYAML,
	MessagesFile:  defaultMessagesYAML,
}

const defaultSettingsYAML = `settings:
  prefix: "<color:#ADB5BD>[Bazaar]</color> "
  debug: false
  spawn_interval: 43200 # seconds between automatic spawns
  despawn_time: 6 # hours the vendor stays
  max_shop_items: 5
  spawn_sound: BLOCK_NOTE_BLOCK_XYLOPHONE
  purchase_sound: ENTITY_EXPERIENCE_ORB_PICKUP
  particles:
    enabled: true
    type: END_ROD
    range: 100.0
    update_interval: 1 # seconds between particle ticks
    count: 16
    circle_radius: 0.5
    vertical_movement: 0.2
    show_trails: true
    trail_range: 50.0

economy:
  prefer_external: true
  currency_name: coins
  currency_symbol: "$"
  default_balance: 1000
  postgres_dsn: "" # when set, a database-backed ledger is offered as the external provider
`

const defaultLocationsYAML = `# Vendor spawn points. Names must be unique, 1-32 chars of [A-Za-z0-9_-].
spawn_points: {}
`

const defaultLootYAML = `# Tiered loot pools. Tiers: common, rare, epic, legendary, mythic.
loot_pools:
  common:
    iron_ingot:
      item: IRON_INGOT
      price_range: [10, 40]
      weight: 10
    gold_ingot:
      item: GOLD_INGOT
      price_range: [20, 60]
      weight: 8
    bread:
      item: BREAD
      price_range: [5, 15]
      weight: 10
  rare:
    diamond:
      item: DIAMOND
      price_range: [100, 300]
      weight: 5
    emerald:
      item: EMERALD
      price_range: [80, 250]
      weight: 5
  epic:
    enchanted_book:
      item: ENCHANTED_BOOK
      price_range: [400, 900]
      weight: 3
    golden_apple:
      item: GOLDEN_APPLE
      price_range: [300, 700]
      weight: 3
  legendary:
    netherite_ingot:
      item: NETHERITE_INGOT
      price_range: [1500, 3000]
      weight: 2
    totem_of_undying:
      item: TOTEM_OF_UNDYING
      price_range: [2000, 4000]
      weight: 1
  mythic:
    nether_star:
      item: NETHER_STAR
      price_range: [5000, 9000]
      weight: 1
`

const defaultGuiYAML = `gui:
  title: "<bold><color:#FFB3C6>Mobile Bazaar</color></bold>"
  size: 27 # must be a multiple of 9, at most 54
  item_slots: [10, 12, 14, 16, 22]
  info_slot: 4
  close_slot: 26
  background:
    material: GRAY_STAINED_GLASS_PANE

npc:
  type: VILLAGER
  name: "<bold><color:#FFB3C6>Mobile Bazaar</color></bold>"

items:
  name_format: "<white>{item}</white> <color:#ADB5BD>({tier})</color>"
  lore_template:
    - "<gray>Tier: <yellow>{tier}</yellow></gray>"
    - "<gray>Price: <gold>{price}</gold></gray>"
    - ""
    - "<green>Click to purchase!</green>"
  info_material: BOOK
  close_material: BARRIER
`

const defaultMessagesYAML = `messages:
  shop_spawned: "<bold><color:#9D4EDD>[MOBILE BAZAAR]</color></bold> <white>Has appeared at {location}! Gone in {duration} hours.</white>"
  shop_despawned: "<bold><color:#9D4EDD>[MOBILE BAZAAR]</color></bold> <white>Has vanished!</white>"
  purchase_success: "<color:#51CF66>Successfully purchased {item} for {price}!</color>"
  not_enough_money: "<color:#FF6B6B>You don't have enough money! {price} needed, you have {balance}.</color>"
  inventory_full: "<color:#FF6B6B>Your inventory is full!</color>"
  payment_failed: "<color:#FF6B6B>Payment failed! You have not been charged.</color>"
  refund_failed: "<color:#FF6B6B>Delivery failed and the refund did not go through. Contact an administrator.</color>"
  bazaar_not_active: "<color:#FF6B6B>The bazaar is not here right now.</color>"
  no_permission: "<color:#FF6B6B>You don't have permission!</color>"
`

// defaultMessages backfills message keys missing from messages.yaml. Kept in
// sync with defaultMessagesYAML.
var defaultMessages = map[string]string{
	"shop_spawned":      "<bold><color:#9D4EDD>[MOBILE BAZAAR]</color></bold> <white>Has appeared at {location}! Gone in {duration} hours.</white>",
	"shop_despawned":    "<bold><color:#9D4EDD>[MOBILE BAZAAR]</color></bold> <white>Has vanished!</white>",
	"purchase_success":  "<color:#51CF66>Successfully purchased {item} for {price}!</color>",
	"not_enough_money":  "<color:#FF6B6B>You don't have enough money! {price} needed, you have {balance}.</color>",
	"inventory_full":    "<color:#FF6B6B>Your inventory is full!</color>",
	"payment_failed":    "<color:#FF6B6B>Payment failed! You have not been charged.</color>",
	"refund_failed":     "<color:#FF6B6B>Delivery failed and the refund did not go through. Contact an administrator.</color>",
	"bazaar_not_active": "<color:#FF6B6B>The bazaar is not here right now.</color>",
	"no_permission":     "<color:#FF6B6B>You don't have permission!</color>",
}
