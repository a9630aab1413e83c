package battlepass

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cardastika/battlepass/internal/kv"
	"github.com/go-co-op/gocron/v2"
)

const (
	// DefaultSyncInterval is how often earned diamonds are folded into progress.
	DefaultSyncInterval = 3 * time.Second
	// DefaultWatchInterval is how often the store is checked for writes made
	// by other processes.
	DefaultWatchInterval = time.Second
)

// Poller drives the ledger's background work: the periodic passive sync and,
// when the store can change underneath us, reloads on external writes. Both
// jobs run in singleton mode so a slow tick never overlaps the next one.
type Poller struct {
	ledger *Ledger
	store  kv.Refresher
	sched  gocron.Scheduler
}

// NewPoller schedules the jobs. store may be nil, in which case only the sync
// job runs. Non-positive intervals select the defaults.
func NewPoller(l *Ledger, store kv.Refresher, syncEvery, watchEvery time.Duration) (*Poller, error) {
	if syncEvery <= 0 {
		syncEvery = DefaultSyncInterval
	}
	if watchEvery <= 0 {
		watchEvery = DefaultWatchInterval
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("creating scheduler: %w", err)
	}
	p := &Poller{ledger: l, store: store, sched: sched}

	if _, err := sched.NewJob(
		gocron.DurationJob(syncEvery),
		gocron.NewTask(p.syncTick),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		return nil, fmt.Errorf("scheduling sync: %w", err)
	}

	if store != nil {
		if _, err := sched.NewJob(
			gocron.DurationJob(watchEvery),
			gocron.NewTask(p.watchTick),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		); err != nil {
			return nil, fmt.Errorf("scheduling watch: %w", err)
		}
	}
	return p, nil
}

// Run starts the scheduler and blocks until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	p.sched.Start()
	<-ctx.Done()
	return p.sched.Shutdown()
}

// Tick performs one watch check followed by a sync, synchronously. Front ends
// with their own timer loop call it instead of running the scheduler.
func (p *Poller) Tick() (SyncResult, error) {
	if p.store != nil {
		if res, reloaded, err := p.ledger.HandleChanges(p.store.Refresh()); reloaded {
			return res, err
		}
	}
	return p.ledger.Sync()
}

func (p *Poller) syncTick() {
	res, err := p.ledger.Sync()
	if err != nil {
		log.Printf("[poller] sync failed: %v", err)
		return
	}
	if res.RolledOver {
		log.Printf("[poller] season expired, new season started")
	}
	if res.Gained > 0 {
		log.Printf("[poller] +%d season progress from earned diamonds", res.Gained)
	}
}

func (p *Poller) watchTick() {
	keys := p.store.Refresh()
	if len(keys) == 0 {
		return
	}
	res, reloaded, err := p.ledger.HandleChanges(keys)
	if err != nil {
		log.Printf("[poller] reload failed: %v", err)
		return
	}
	if reloaded {
		log.Printf("[poller] external change to %v, reloaded (progress +%d)", keys, res.Gained)
	}
}
