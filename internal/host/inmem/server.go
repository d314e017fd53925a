package inmem

import (
	"strings"
	"sync"

	"github.com/edenforge/bazaar/internal/host"
)

// Server is an in-memory host server facade: broadcast, online player list,
// console command dispatch and a one-slot economy service registry.
type Server struct {
	mu         sync.RWMutex
	players    []*Player
	broadcasts []string
	commands   []string
	dispatch   func(line string) bool
	economy    host.EconomyService
	plugins    map[string]bool
}

// NewServer creates an empty server.
func NewServer() *Server {
	return &Server{}
}

// Join registers a player as online.
func (s *Server) Join(p *Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players = append(s.players, p)
}

// Broadcast sends msg to every online player and records it.
func (s *Server) Broadcast(msg string) {
	s.mu.Lock()
	players := append([]*Player(nil), s.players...)
	s.broadcasts = append(s.broadcasts, msg)
	s.mu.Unlock()
	for _, p := range players {
		p.SendMessage(msg)
	}
}

// Broadcasts returns every message broadcast so far.
func (s *Server) Broadcasts() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.broadcasts...)
}

// OnlinePlayers returns all online players.
func (s *Server) OnlinePlayers() []host.Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]host.Player, len(s.players))
	for i, p := range s.players {
		out[i] = p
	}
	return out
}

// SetCommandHandler installs the console command handler.
func (s *Server) SetCommandHandler(fn func(line string) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dispatch = fn
}

// DispatchCommand runs a console command line.
func (s *Server) DispatchCommand(line string) bool {
	s.mu.RLock()
	fn := s.dispatch
	s.mu.RUnlock()
	s.mu.Lock()
	s.commands = append(s.commands, line)
	s.mu.Unlock()
	if fn == nil {
		return false
	}
	return fn(line)
}

// DispatchedCommands returns every console command line dispatched so far.
func (s *Server) DispatchedCommands() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.commands...)
}

// AddPlugin marks a plugin as installed.
func (s *Server) AddPlugin(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.plugins == nil {
		s.plugins = make(map[string]bool)
	}
	s.plugins[name] = true
}

// HasPlugin reports whether a plugin is installed.
func (s *Server) HasPlugin(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.plugins[name]
}

// RegisterEconomyService publishes an economy provider.
func (s *Server) RegisterEconomyService(svc host.EconomyService) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.economy = svc
}

// EconomyService looks up the published economy provider.
func (s *Server) EconomyService() (host.EconomyService, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.economy == nil {
		return nil, false
	}
	return s.economy, true
}

// ItemRegistry is an in-memory material registry.
type ItemRegistry struct {
	mu    sync.RWMutex
	types map[string]host.ItemType
}

// NewItemRegistry creates a registry preloaded with common materials.
func NewItemRegistry() *ItemRegistry {
	r := &ItemRegistry{types: make(map[string]host.ItemType)}
	for _, t := range defaultItemTypes {
		r.Register(t)
	}
	return r
}

// Register adds or replaces a material.
func (r *ItemRegistry) Register(t host.ItemType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[strings.ToUpper(t.Name)] = t
}

// Lookup resolves a material by name, case-insensitive.
func (r *ItemRegistry) Lookup(name string) (host.ItemType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[strings.ToUpper(name)]
	return t, ok
}

// defaultItemTypes covers the materials the default loot file references.
var defaultItemTypes = []host.ItemType{
	{Name: "DIAMOND", MaxStackSize: 64},
	{Name: "EMERALD", MaxStackSize: 64},
	{Name: "IRON_INGOT", MaxStackSize: 64},
	{Name: "GOLD_INGOT", MaxStackSize: 64},
	{Name: "NETHERITE_INGOT", MaxStackSize: 64},
	{Name: "ENCHANTED_BOOK", MaxStackSize: 1},
	{Name: "ENCHANTED_GOLDEN_APPLE", MaxStackSize: 64},
	{Name: "GOLDEN_APPLE", MaxStackSize: 64},
	{Name: "ELYTRA", MaxStackSize: 1},
	{Name: "NETHER_STAR", MaxStackSize: 64},
	{Name: "TOTEM_OF_UNDYING", MaxStackSize: 1},
	{Name: "GRAY_STAINED_GLASS_PANE", MaxStackSize: 64},
	{Name: "BARRIER", MaxStackSize: 64},
	{Name: "BOOK", MaxStackSize: 64},
	{Name: "ARROW", MaxStackSize: 64},
	{Name: "BREAD", MaxStackSize: 64},
	{Name: "COAL", MaxStackSize: 64},
	{Name: "STRING", MaxStackSize: 64},
}
