// Package list is the public facade over the append and retrieval
// engines: the single type callers construct and call, wiring together
// configuration, the KV gateway, logging, and metrics the way the
// teacher's cmd/server.SimpleDB wires storage, transaction, and executor
// layers behind one type.
package list

import (
	"context"

	"go.uber.org/zap"

	"github.com/govetachun/pagelist/internal/appendengine"
	"github.com/govetachun/pagelist/internal/config"
	"github.com/govetachun/pagelist/internal/gateway"
	"github.com/govetachun/pagelist/internal/metrics"
	"github.com/govetachun/pagelist/internal/pagemodel"
	"github.com/govetachun/pagelist/internal/retrievalengine"
	"github.com/govetachun/pagelist/pkg/errs"
)

// Cursor re-exports retrievalengine.Cursor: the position a caller resumes
// a backward walk from (§4.4).
type Cursor = retrievalengine.Cursor

// Item re-exports retrievalengine.Item: one retrieved value decorated
// with its page_id, sequence_id, and resource_id_parent (§4.4).
type Item = retrievalengine.Item

// AppendResult re-exports appendengine.Result: the page and best-effort
// offset an AtomicAppend call landed at (§3 invariant 4).
type AppendResult = appendengine.Result

// Summary re-exports pagemodel.Summary.
type Summary = pagemodel.Summary

// List is the callable surface named in §6: ConfigureStore and
// ConfigureMaximumNumberOfElementPerPage are folded into New's options per
// the redesign note in §9 (no hidden writes to a package-level record
// after construction).
type List struct {
	cfg      *config.Config
	appendE  *appendengine.Engine
	retrieve *retrievalengine.Engine
}

// Option configures a List under construction.
type Option func(*options)

type options struct {
	cfgOpts []config.Option
	log     *zap.SugaredLogger
	metric  *metrics.Metrics
}

// WithStore configures the target region and table (§6 ConfigureStore).
func WithStore(region, table string) Option {
	return func(o *options) { o.cfgOpts = append(o.cfgOpts, config.WithStore(region, table)) }
}

// WithMaxElementPerPage configures the page capacity (§6
// ConfigureMaximumNumberOfElementPerPage).
func WithMaxElementPerPage(n int) Option {
	return func(o *options) { o.cfgOpts = append(o.cfgOpts, config.WithMaxElementPerPage(n)) }
}

// WithLogger supplies a logger used by the append and retrieval engines.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(o *options) { o.log = log }
}

// WithMetrics supplies a metrics bundle used by the append and retrieval
// engines.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metric = m }
}

// New builds a List bound to gw, a caller-supplied KV Gateway
// implementation (gateway.NewDynamoGateway for production,
// gateway.NewMemoryGateway for tests/local use).
func New(gw gateway.Gateway, opts ...Option) (*List, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	cfg, err := config.New(o.cfgOpts...)
	if err != nil {
		return nil, err
	}
	return &List{
		cfg:      cfg,
		appendE:  appendengine.New(gw, cfg, o.log, o.metric),
		retrieve: retrievalengine.New(gw, cfg, o.log, o.metric),
	}, nil
}

// IdempotentCreate creates the list's summary item if it does not already
// exist (§4.3). Safe to call repeatedly.
func (l *List) IdempotentCreate(ctx context.Context, listID string, metadata string) (Summary, error) {
	return l.appendE.IdempotentCreate(ctx, listID, metadata)
}

// AtomicAppend appends value to listID, rolling the page over when it
// fills (§4.3). Not idempotent: a retried call after a partial failure may
// duplicate the value.
func (l *List) AtomicAppend(ctx context.Context, listID, value string) (AppendResult, error) {
	return l.appendE.AtomicAppend(ctx, listID, value)
}

// AtomicBulkAppendBulk is reserved and unimplemented (§6).
func (l *List) AtomicBulkAppendBulk(ctx context.Context, listID string, values []string) ([]AppendResult, error) {
	return nil, errs.ErrNotImplemented
}

// GetCurrentPage returns listID's tail page number.
func (l *List) GetCurrentPage(ctx context.Context, listID string) (int, error) {
	return l.retrieve.GetCurrentPage(ctx, listID)
}

// GetPage reads one data page, matching the §6 callable surface name. It
// first checks that the list exists, returning ErrPageNotFound when its
// summary is missing; a missing data page of an existing list is returned
// as an empty page, as GetDataPage does.
func (l *List) GetPage(ctx context.Context, listID string, pageNumber int) (retrievalengine.PageData, error) {
	if _, err := l.retrieve.GetSummary(ctx, listID); err != nil {
		return retrievalengine.PageData{}, err
	}
	return l.retrieve.GetDataPage(ctx, listID, pageNumber)
}

// Retrieve dispatches to GetSummary or GetDataPage depending on pageID
// (§6, §9's first Open Question).
func (l *List) Retrieve(ctx context.Context, listID, pageID string) (retrievalengine.RetrieveResult, error) {
	return l.retrieve.Retrieve(ctx, listID, pageID)
}

// RetrieveLastMostRecent returns up to n of the most recently appended
// items.
func (l *List) RetrieveLastMostRecent(ctx context.Context, listID string, n int) ([]Item, error) {
	return l.retrieve.RetrieveLastMostRecent(ctx, listID, n)
}

// RetrieveNextMostRecent continues a backward walk from strictly before
// cursor.
func (l *List) RetrieveNextMostRecent(ctx context.Context, listID string, cursor Cursor, n int) ([]Item, error) {
	return l.retrieve.RetrieveNextMostRecent(ctx, listID, cursor, n)
}

// CursorFrom builds the Cursor a caller passes to RetrieveNextMostRecent
// to continue past item, the last item of a previous retrieval.
func CursorFrom(item Item) Cursor {
	return Cursor{PageID: item.PageID, SequenceID: item.SequenceID}
}

// GetConstants returns the label constants used to build or recognize
// keys (§6).
func (l *List) GetConstants() config.Constants {
	return l.cfg.GetConstants()
}

// GetCurrentConfiguration returns the live configuration (§6).
func (l *List) GetCurrentConfiguration() config.Config {
	return l.cfg.GetCurrentConfiguration()
}
