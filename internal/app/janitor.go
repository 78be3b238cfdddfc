package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type JanitorConfig struct {
	Interval time.Duration
	RoomTTL  time.Duration
}

// Sweeper is any in-memory index that needs periodic pruning.
type Sweeper interface {
	Sweep() int
}

// Janitor periodically evicts rooms that stayed empty past their TTL.
type Janitor struct {
	rooms    *RoomManagerImpl
	config   JanitorConfig
	sweepers []Sweeper
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewJanitor(rooms *RoomManagerImpl, config JanitorConfig) *Janitor {
	return &Janitor{
		rooms:  rooms,
		config: config,
		stop:   make(chan struct{}),
	}
}

// Also registers s to be swept on every tick. Call before Start.
func (j *Janitor) Also(s Sweeper) {
	j.sweepers = append(j.sweepers, s)
}

func (j *Janitor) Start(ctx context.Context) {
	j.wg.Add(1)
	go j.run(ctx)
	log.Info().Str("module", "app.janitor").Dur("interval", j.config.Interval).Dur("ttl", j.config.RoomTTL).Msg("janitor started")
}

// Stop is safe to call more than once.
func (j *Janitor) Stop() {
	j.stopOnce.Do(func() {
		close(j.stop)
		j.wg.Wait()
		log.Info().Str("module", "app.janitor").Msg("janitor stopped")
	})
}

func (j *Janitor) run(ctx context.Context) {
	defer j.wg.Done()

	ticker := time.NewTicker(j.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-j.stop:
			return
		case <-ticker.C:
			if n := j.rooms.Sweep(ctx, j.config.RoomTTL); n > 0 {
				log.Info().Str("module", "app.janitor").Int("evicted", n).Msg("sweep done")
			}
			for _, s := range j.sweepers {
				s.Sweep()
			}
		}
	}
}
