package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrijs2005/subguard/internal/client/audit"
	"github.com/dmitrijs2005/subguard/internal/client/config"
	"github.com/dmitrijs2005/subguard/internal/client/controller"
	"github.com/dmitrijs2005/subguard/internal/client/metrics"
	"github.com/dmitrijs2005/subguard/internal/client/models"
	"github.com/dmitrijs2005/subguard/internal/client/notify"
	"github.com/dmitrijs2005/subguard/internal/client/services"
	"github.com/dmitrijs2005/subguard/internal/client/storage"
	"github.com/dmitrijs2005/subguard/internal/common"
	"github.com/dmitrijs2005/subguard/internal/logging"
)

type Mode string

const (
	ModeOffline  Mode = "offline"
	ModeOnline   Mode = "online"
	ModeDisabled Mode = "disabled"
)

type App struct {
	config   *config.Config
	log      logging.Logger
	ctrl     *controller.Controller
	board    *notify.Board
	repos    *storage.Repositories
	keys     services.KeyService
	backend  *backend
	registry *prometheus.Registry
	in       *bufio.Reader
	out      io.Writer
	ask      *prompter
	status   *sessionStatus
	closers  []func() error

	mu      sync.Mutex
	mode    Mode
	account string
	search  string
	page    int
}

// NewApp wires storage, the ledger and gateway collaborators and the
// controller according to c. It reads user input from stdin.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	return newApp(ctx, c, log, os.Stdin, os.Stdout)
}

func newApp(ctx context.Context, c *config.Config, log logging.Logger, in io.Reader, out io.Writer) (*App, error) {
	repos, err := storage.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	b, err := newBackend(ctx, c, log)
	if err != nil {
		_ = repos.Close()
		return nil, err
	}

	a := &App{
		config:   c,
		log:      log,
		board:    notify.NewBoard(c.SuccessTTL, c.ErrorTTL),
		repos:    repos,
		keys:     services.NewKeyService(repos.DB),
		backend:  b,
		registry: prometheus.NewRegistry(),
		in:       bufio.NewReader(in),
		out:      out,
		page:     1,
		closers:  append(b.closers, repos.Close),
	}
	a.ask = &prompter{in: a.in, out: out}

	auditOpts := []audit.Option{audit.WithLogger(log.With("component", "audit"))}
	if j, closeFn := newJournal(c, repos, b.namespace); j != nil {
		auditOpts = append(auditOpts, audit.WithJournal(j))
		if closeFn != nil {
			a.closers = append(a.closers, closeFn)
		}
	}

	opts := []controller.Option{
		controller.WithEncryptor(b.enc),
		controller.WithDecryptor(b.dec),
		controller.WithCache(services.NewSnapshotService(repos.DB, b.namespace)),
		controller.WithAuditLog(audit.NewLog(common.AuditCapacity, auditOpts...)),
		controller.WithNotifier(&printingNotifier{board: a.board, out: out}),
		controller.WithMetrics(metrics.New(a.registry)),
		controller.WithLogger(log.With("component", "controller")),
	}
	if b.writer != nil {
		opts = append(opts, controller.WithWriter(a.approving(b.writer)))
		a.account = b.writer.Address()
	}
	a.ctrl = controller.New(b.reader, opts...)
	a.followController()

	return a, nil
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()
	if changed {
		a.log.Info(context.Background(), "connectivity changed", "mode", mode)
		fmt.Fprintf(a.out, "Switched to %s mode\n", mode)
	}
}

// Run restores local state, refreshes from the ledger and blocks in the
// REPL until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fmt.Fprintln(a.out, "Welcome to SubGuard CLI (type 'help' for commands)")

	if a.config.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, a.config.MetricsAddr, a.registry); err != nil {
				a.log.Error(ctx, "metrics server stopped", "error", err)
			}
		}()
	}

	if err := a.ctrl.Start(ctx); err != nil {
		a.log.Warn(ctx, "cached snapshot not restored", "error", err)
	}
	a.offerUnlock(ctx)

	if err := a.ctrl.Reload(ctx); err != nil {
		a.setMode(ModeOffline)
	} else {
		a.setMode(ModeOnline)
	}
	_ = a.List(ctx)

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, a.in)
}

// Close releases every resource opened by NewApp.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn(context.Background(), "close failed", "error", err)
		}
	}
	a.closers = nil
}

// probe reports whether both the ledger and the gateway answer.
func (a *App) probe(ctx context.Context) error {
	ok, err := a.backend.reader.Probe(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrLedgerUnavailable
	}
	if a.backend.ping != nil {
		return a.backend.ping(ctx)
	}
	return nil
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := a.probe(ctx)
			cancel()

			if err != nil {
				a.setMode(ModeOffline)
			} else {
				a.setMode(ModeOnline)
			}

		case <-ctx.Done():
			return
		}
	}
}

func (a *App) getStatus() string {
	a.mu.Lock()
	s := string(a.mode)
	if a.account != "" {
		s += " " + shortAddress(a.account)
	} else {
		s += " read-only"
	}
	a.mu.Unlock()

	a.drainEvents()
	s += a.status.describe()
	if n, ok := a.board.Current(); ok {
		s += " | " + n.Message
	}
	return fmt.Sprintf("(%s)", s)
}

// printingNotifier shows every notification as it is raised and keeps the
// latest one on the board.
type printingNotifier struct {
	board *notify.Board
	out   io.Writer
	mu    sync.Mutex
}

func (p *printingNotifier) Notify(status models.Outcome, message string) {
	p.board.Notify(status, message)
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "[%s] %s\n", status, message)
}
