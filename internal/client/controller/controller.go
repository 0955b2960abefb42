// Package controller owns the canonical record set and drives the
// create and reveal state machines against the ledger and the relayer.
//
// The ledger is the source of truth: the local set is only ever replaced
// wholesale by a reload, never patched from what the client just sent.
// Every terminal outcome of an operation writes one audit entry and one
// notification, and every state change is published to subscribers.
package controller

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/subguard/internal/client/audit"
	"github.com/dmitrijs2005/subguard/internal/client/gateway"
	"github.com/dmitrijs2005/subguard/internal/client/ledger"
	"github.com/dmitrijs2005/subguard/internal/client/metrics"
	"github.com/dmitrijs2005/subguard/internal/client/models"
	"github.com/dmitrijs2005/subguard/internal/client/view"
	"github.com/dmitrijs2005/subguard/internal/common"
	"github.com/dmitrijs2005/subguard/internal/logging"
)

// Notifier receives user-facing status messages.
type Notifier interface {
	Notify(status models.Outcome, message string)
}

// Cache persists the last reconciled record set.
type Cache interface {
	Save(ctx context.Context, recs []models.Record, at time.Time) error
	Load(ctx context.Context) ([]models.Record, time.Time, error)
}

type nopNotifier struct{}

func (nopNotifier) Notify(models.Outcome, string) {}

// Flags is a snapshot of the controller's transient state.
type Flags struct {
	Syncing    bool
	Creating   bool
	Decrypting bool
	Connected  bool
	FromCache  bool
	SyncedAt   time.Time
}

type Controller struct {
	reader ledger.Reader
	enc    gateway.Encryptor
	dec    gateway.Decryptor
	cache  Cache

	audit    *audit.Log
	notifier Notifier
	metrics  *metrics.Metrics
	log      logging.Logger
	now      func() time.Time
	newID    func() string

	mu        sync.RWMutex
	writer    ledger.Writer
	records   []models.Record
	syncedAt  time.Time
	fromCache bool

	syncing    atomic.Bool
	creating   atomic.Bool
	decrypting atomic.Bool

	events eventHub
}

type Option func(*Controller)

func WithWriter(w ledger.Writer) Option { return func(c *Controller) { c.writer = w } }

func WithEncryptor(e gateway.Encryptor) Option { return func(c *Controller) { c.enc = e } }

func WithDecryptor(d gateway.Decryptor) Option { return func(c *Controller) { c.dec = d } }

func WithCache(cache Cache) Option { return func(c *Controller) { c.cache = cache } }

func WithAuditLog(l *audit.Log) Option { return func(c *Controller) { c.audit = l } }

func WithNotifier(n Notifier) Option { return func(c *Controller) { c.notifier = n } }

func WithMetrics(m *metrics.Metrics) Option { return func(c *Controller) { c.metrics = m } }

func WithLogger(l logging.Logger) Option { return func(c *Controller) { c.log = l } }

func WithClock(now func() time.Time) Option { return func(c *Controller) { c.now = now } }

// WithIDGenerator replaces the record id source.
func WithIDGenerator(f func() string) Option { return func(c *Controller) { c.newID = f } }

func New(reader ledger.Reader, opts ...Option) *Controller {
	c := &Controller{
		reader:   reader,
		notifier: nopNotifier{},
		log:      logging.Discard(),
		now:      time.Now,
		newID:    NewRecordID,
	}
	for _, o := range opts {
		o(c)
	}
	if c.audit == nil {
		c.audit = audit.NewLog(common.AuditCapacity, audit.WithClock(c.now), audit.WithLogger(c.log))
	}
	return c
}

// NewRecordID returns "sub-" followed by a time-ordered UUIDv7.
func NewRecordID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return common.RecordIDPrefix + uuid.NewString()
	}
	return common.RecordIDPrefix + id.String()
}

// Connect attaches a signer-bound ledger handle, enabling create and reveal.
func (c *Controller) Connect(w ledger.Writer) {
	c.mu.Lock()
	c.writer = w
	c.mu.Unlock()
	c.events.publish(Event{Kind: FlagsChanged})
}

func (c *Controller) Disconnect() { c.Connect(nil) }

func (c *Controller) currentWriter() ledger.Writer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.writer
}

// Start restores history from the audit journal and the cached snapshot,
// then marks the session as initialised. It does not contact the ledger.
func (c *Controller) Start(ctx context.Context) error {
	if n, err := c.audit.Restore(ctx); err != nil {
		c.log.Warn(ctx, "audit history not restored", "error", err)
	} else if n > 0 {
		c.log.Info(ctx, "audit history restored", "entries", n)
	}

	err := c.Restore(ctx)
	c.appendAudit(ctx, models.CategorySystem, "FHE system initialized successfully", models.OutcomeSuccess)
	return err
}

// Restore loads the cached snapshot into an empty canonical set. A set that
// already came from the ledger is never overwritten by the cache.
func (c *Controller) Restore(ctx context.Context) error {
	if c.cache == nil {
		return nil
	}
	recs, at, err := c.cache.Load(ctx)
	if err != nil {
		c.appendAudit(ctx, models.CategoryCache, "Failed to restore cached subscriptions", models.OutcomeError)
		return err
	}
	if len(recs) == 0 {
		return nil
	}

	c.mu.Lock()
	if len(c.records) > 0 || !c.syncedAt.IsZero() {
		c.mu.Unlock()
		return nil
	}
	c.records = recs
	c.syncedAt = at
	c.fromCache = true
	c.mu.Unlock()

	c.metrics.SetRecords(len(recs), countVerified(recs))
	c.events.publish(Event{Kind: RecordsChanged})
	c.appendAudit(ctx, models.CategoryCache, fmt.Sprintf("Restored %d cached subscriptions", len(recs)), models.OutcomeSuccess)
	return nil
}

// Records returns a copy of the canonical set.
func (c *Controller) Records() []models.Record {
	c.mu.RLock()
	recs := c.records
	c.mu.RUnlock()
	return cloneRecords(recs)
}

// AuditLog returns the operation history, most recent first.
func (c *Controller) AuditLog() []models.AuditEntry {
	return c.audit.Entries()
}

// View projects the canonical set. pageSize <= 0 selects the default.
func (c *Controller) View(search string, page, pageSize int) view.Page {
	if pageSize <= 0 {
		pageSize = common.DefaultPageSize
	}
	return view.Derive(c.Records(), search, page, pageSize)
}

func (c *Controller) Flags() Flags {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Flags{
		Syncing:    c.syncing.Load(),
		Creating:   c.creating.Load(),
		Decrypting: c.decrypting.Load(),
		Connected:  c.writer != nil,
		FromCache:  c.fromCache,
		SyncedAt:   c.syncedAt,
	}
}

// Subscribe returns a channel of change events and a function that stops
// delivery. Slow subscribers miss events rather than block the controller.
func (c *Controller) Subscribe() (<-chan Event, func()) {
	return c.events.subscribe()
}

// gate acquires a busy flag, returning a release func, or ErrBusy.
func (c *Controller) gate(flag *atomic.Bool) (func(), error) {
	if !flag.CompareAndSwap(false, true) {
		return nil, common.ErrBusy
	}
	c.events.publish(Event{Kind: FlagsChanged})
	return func() {
		flag.Store(false)
		c.events.publish(Event{Kind: FlagsChanged})
	}, nil
}

func (c *Controller) appendAudit(ctx context.Context, category, description string, outcome models.Outcome) {
	c.audit.Append(ctx, category, description, outcome)
	c.events.publish(Event{Kind: AuditAppended})
}

func (c *Controller) observe(op string, start time.Time, err error) {
	outcome := string(models.OutcomeSuccess)
	if err != nil {
		outcome = string(models.OutcomeError)
	}
	c.metrics.Observe(op, outcome, c.now().Sub(start))
}

func cloneRecords(recs []models.Record) []models.Record {
	out := make([]models.Record, len(recs))
	for i, r := range recs {
		if r.PlainAmount != nil {
			v := *r.PlainAmount
			r.PlainAmount = &v
		}
		out[i] = r
	}
	return out
}

func countVerified(recs []models.Record) int {
	n := 0
	for _, r := range recs {
		if r.IsVerified {
			n++
		}
	}
	return n
}
