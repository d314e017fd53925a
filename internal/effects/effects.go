// Package effects runs the vendor's ambient particle task and one-shot
// particle bursts. The task reads config through the shared snapshot
// accessor and self-cancels when the shop goes inactive or its world
// disappears; it holds no reference back to the controller.
package effects

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/edenforge/bazaar/internal/config"
	"github.com/edenforge/bazaar/internal/host"
	"github.com/edenforge/bazaar/internal/model"
)

// trailMinDistance is how close a player can be before directional trails
// stop rendering for them.
const trailMinDistance = 10.0

// Runner manages the periodic particle task for the active shop location.
type Runner struct {
	scheduler host.Scheduler
	worlds    host.Worlds
	snapshot  func() *config.Snapshot

	mu   sync.Mutex
	task host.Task
}

// NewRunner creates a particle runner. snapshot is the shared config
// accessor.
func NewRunner(scheduler host.Scheduler, worlds host.Worlds, snapshot func() *config.Snapshot) *Runner {
	return &Runner{scheduler: scheduler, worlds: worlds, snapshot: snapshot}
}

// Start begins the periodic particle task around loc. active reports
// whether the shop is still up; the task cancels itself once it is not.
// Any previous task is stopped first.
func (r *Runner) Start(loc model.Location, active func() bool) {
	r.Stop()

	snap := r.snapshot()
	if !snap.Particles.Enabled {
		slog.Debug("particles disabled in configuration")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	start := time.Now()
	r.task = r.scheduler.RunTimer(0, snap.Particles.UpdateInterval, func() {
		r.tick(loc, active, time.Since(start))
	})
	slog.Debug("particle task started", "location", loc.String(), "range", snap.Particles.Range)
}

// Stop cancels the running particle task, if any.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.task != nil {
		r.task.Cancel()
		r.task = nil
		slog.Debug("particle task stopped")
	}
}

func (r *Runner) tick(loc model.Location, active func() bool, elapsed time.Duration) {
	if !active() {
		r.Stop()
		return
	}
	world, ok := r.worlds.World(loc.WorldID)
	if !ok {
		slog.Warn("particle task world is gone, stopping", "world", loc.WorldID)
		r.Stop()
		return
	}

	snap := r.snapshot()
	p := snap.Particles

	center := loc.Add(0, 2, 0)
	nearby := world.PlayersNear(loc, p.Range)
	if len(nearby) > 0 {
		// Circular ring above the vendor, bobbing with time.
		bob := math.Sin(float64(elapsed.Milliseconds())*0.001) * p.VerticalMovement
		for i := range p.Count {
			angle := float64(i) * 2 * math.Pi / float64(p.Count)
			at := center.Add(math.Cos(angle)*p.CircleRadius, bob, math.Sin(angle)*p.CircleRadius)
			for _, viewer := range nearby {
				viewer.SpawnParticle(p.Type, at, 1)
			}
		}
	}

	if p.ShowTrails {
		for _, viewer := range world.PlayersNear(loc, p.TrailRange) {
			if viewer.Location().InRange(loc, trailMinDistance) {
				continue
			}
			r.showTrail(viewer, loc)
		}
	}
}

// showTrail renders a short particle line from the player toward the shop.
func (r *Runner) showTrail(viewer host.Player, shopLoc model.Location) {
	from := viewer.Location()
	dx := shopLoc.X - from.X
	dy := shopLoc.Y - from.Y
	dz := shopLoc.Z - from.Z
	dist := math.Sqrt(dx*dx + dy*dy + dz*dz)
	if dist == 0 {
		return
	}
	// Unit direction scaled to three blocks per step.
	sx, sy, sz := dx/dist*3, dy/dist*3, dz/dist*3
	for i := 1; i <= 3; i++ {
		at := from.Add(sx*float64(i), sy*float64(i)+1.5, sz*float64(i))
		viewer.SpawnParticle("HAPPY_VILLAGER", at, 1)
	}
}

// Burst emits a one-shot particle burst at loc to players within the
// configured particle range. Used for spawn, despawn and purchases.
func (r *Runner) Burst(loc model.Location, particle string, count int) {
	snap := r.snapshot()
	if !snap.Particles.Enabled {
		return
	}
	world, ok := r.worlds.World(loc.WorldID)
	if !ok {
		return
	}
	for _, viewer := range world.PlayersNear(loc, snap.Particles.Range) {
		viewer.SpawnParticle(particle, loc, count)
	}
}
