package cli

import (
	"bufio"
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/verdantlabs/gardensync/internal/agent/cas"
	"github.com/verdantlabs/gardensync/internal/agent/config"
	"github.com/verdantlabs/gardensync/internal/agent/dedup"
	"github.com/verdantlabs/gardensync/internal/agent/events"
	"github.com/verdantlabs/gardensync/internal/agent/ledger"
	"github.com/verdantlabs/gardensync/internal/agent/models"
	"github.com/verdantlabs/gardensync/internal/agent/queue"
	"github.com/verdantlabs/gardensync/internal/agent/signer"
	"github.com/verdantlabs/gardensync/internal/agent/storage"
	"github.com/verdantlabs/gardensync/internal/logging"
	"github.com/verdantlabs/gardensync/internal/netx"

	_ "modernc.org/sqlite"
)

// App wires the agent together: repositories over the local database, the
// queue manager and its drainer, the connectivity watcher, the ledger
// clients, and the REPL on top.
type App struct {
	config  *config.Config
	log     logging.Logger
	repos   *storage.Repositories
	index   *dedup.Index
	bus     *events.Bus
	manager *queue.Manager
	drainer *queue.Drainer
	watcher *netx.Watcher
	ledger  ledger.Reader
	reader  *bufio.Reader

	mu      sync.RWMutex
	session *signer.Session
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stderr)

	repos, err := storage.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, err
	}

	store, err := cas.NewS3Storage(ctx, c.Storage)
	if err != nil {
		repos.DB.Close()
		return nil, err
	}

	app := &App{
		config: c,
		log:    logger,
		repos:  repos,
		index:  dedup.NewIndex(c.DedupWindow),
		bus:    events.NewBus(),
		ledger: ledger.NewIndexerReader(c.IndexerURL, ledger.DefaultQueryTimeout),
		reader: bufio.NewReader(os.Stdin),
	}

	app.manager = queue.NewManager(queue.Deps{
		Log:       logger,
		Jobs:      repos.Jobs,
		Media:     repos.Media,
		Hasher:    dedup.NewHasher(c.ChainID, c.IncludeMediaInHash),
		Index:     app.index,
		Bus:       app.bus,
		Submitter: ledger.NewRelayerSubmitter(c.RelayerURL),
		Storage:   store,
		Session:   app.currentSession,
		Atomic:    repos.Atomic,
	})

	app.watcher = netx.NewWatcher(c.RelayerURL+"/healthz", c.OnlineCheckInterval, func(online bool) {
		if online {
			app.bus.Emit(events.Event{Type: events.SyncOnline})
		} else {
			app.bus.Emit(events.Event{Type: events.SyncOffline})
		}
	})

	app.drainer = queue.NewDrainer(app.manager, logger, c.DrainInterval, c.RetentionWindow, app.watcher.Online)

	if err := app.seedDedupIndex(ctx); err != nil {
		repos.DB.Close()
		return nil, err
	}

	return app, nil
}

// seedDedupIndex repopulates the in-memory duplicate cache from persisted
// jobs, so a restart does not reopen the duplicate window for submissions
// already sitting in the queue.
func (a *App) seedDedupIndex(ctx context.Context) error {
	jobs, err := a.repos.Jobs.ListAll(ctx)
	if err != nil {
		return err
	}
	for _, job := range jobs {
		if job.Status == models.JobStatusCompleted {
			continue
		}
		a.index.Add(job.ContentHash, job.ID)
	}
	return nil
}

func (a *App) currentSession() *signer.Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session
}

func (a *App) setSession(s *signer.Session) {
	a.mu.Lock()
	a.session = s
	a.mu.Unlock()
}

func (a *App) isLoggedIn() bool {
	return a.currentSession().Valid(time.Now())
}

func (a *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run starts the background workers and hands the foreground to the REPL.
// It returns after the user exits or the context is cancelled, with all
// workers drained and the database closed.
func (a *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	a.log.Info(ctx, "starting agent", "db", a.config.DatabasePath, "relayer", a.config.RelayerURL)

	a.initSignalHandler(cancelFunc)
	a.index.Start()

	a.bus.On([]events.Type{events.SyncOnline, events.SyncOffline}, func(e events.Event) {
		if e.Type == events.SyncOnline {
			a.log.Info(ctx, "connectivity restored, draining queue")
			a.manager.Wake()
		} else {
			a.log.Warn(ctx, "connectivity lost, queueing locally")
		}
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		a.watcher.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		a.drainer.Run(ctx)
	}()

	a.runREPL(ctx)

	cancelFunc()
	wg.Wait()
	a.index.Stop()
	if err := a.repos.DB.Close(); err != nil {
		a.log.Error(ctx, "error closing database", "error", err)
	}
}
