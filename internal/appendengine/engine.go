// Package appendengine implements the concurrent append/page-rollover
// protocol described in §4.3: IdempotentCreate, AtomicAppend, and the
// CreatePage helper. It is the hot path of the system — one read of the
// summary plus one atomic list append per call, with rollover kept off
// that path entirely except for the appender that actually crosses the
// page boundary.
package appendengine

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/govetachun/pagelist/internal/config"
	"github.com/govetachun/pagelist/internal/gateway"
	"github.com/govetachun/pagelist/internal/metrics"
	"github.com/govetachun/pagelist/internal/pagemodel"
	"github.com/govetachun/pagelist/pkg/errs"
)

// Result is returned by AtomicAppend: the page and best-effort offset the
// value landed at (§3 invariant 4 — sequence_id is a snapshot-local
// offset, not a stable rank under concurrent appenders).
type Result struct {
	PageID     string
	SequenceID int
}

// Engine implements the append protocol against a gateway.Gateway.
type Engine struct {
	gw     gateway.Gateway
	cfg    *config.Config
	log    *zap.SugaredLogger
	metric *metrics.Metrics
}

// New builds an append Engine. log and metric may be nil for no-ops.
func New(gw gateway.Gateway, cfg *config.Config, log *zap.SugaredLogger, metric *metrics.Metrics) *Engine {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if metric == nil {
		metric = metrics.NewNop()
	}
	return &Engine{gw: gw, cfg: cfg, log: log, metric: metric}
}

// IdempotentCreate creates the summary item for listID. If it already
// exists, AlreadyExists is treated as success: the caller only needs the
// list to be usable, not to know whether it created it, and the stored
// summary (with the first caller's metadata) is read back and returned.
// Repeated calls never touch data pages and never reset an existing
// currentPage.
func (e *Engine) IdempotentCreate(ctx context.Context, listID, metadata string) (pagemodel.Summary, error) {
	key := config.SummaryKey(listID)
	summary := pagemodel.NewSummary(key, metadata)
	item, err := summary.Item()
	if err != nil {
		return pagemodel.Summary{}, fmt.Errorf("appendengine: encode summary: %w", err)
	}

	err = e.gw.PutIfAbsent(ctx, e.cfg.TableName(), key, item)
	switch {
	case err == nil:
		return summary, nil
	case isAlreadyExists(err):
		e.log.Debugw("idempotent-create: summary already exists", "list_id", listID)
		return e.getSummary(ctx, listID)
	default:
		return pagemodel.Summary{}, err
	}
}

// CreatePage creates an empty data page p for listID. AlreadyExists is
// swallowed; any other error propagates.
func (e *Engine) CreatePage(ctx context.Context, listID string, p int) error {
	page := pagemodel.NewPage(config.PageKey(listID, p))
	item, err := page.Item()
	if err != nil {
		return fmt.Errorf("appendengine: encode page: %w", err)
	}

	err = e.gw.PutIfAbsent(ctx, e.cfg.TableName(), page.ID, item)
	if err == nil || isAlreadyExists(err) {
		return nil
	}
	return err
}

// AtomicAppend implements §4.3's five-step append/rollover dance.
//
// Not idempotent: a caller that retries a failed AtomicAppend after a
// partial success may append the value twice. De-duplication, if needed,
// belongs one layer up.
func (e *Engine) AtomicAppend(ctx context.Context, listID, value string) (Result, error) {
	summary, err := e.getSummary(ctx, listID)
	if err != nil {
		return Result{}, err
	}
	p := summary.CurrentPage

	n, err := e.appendWithRecovery(ctx, listID, p, value, false)
	if err != nil {
		return Result{}, err
	}

	result := Result{PageID: strconv.Itoa(p), SequenceID: n - 1}
	e.metric.Appends().Inc()

	if n >= e.cfg.MaxElementPerPage() {
		e.rollover(ctx, listID, p)
	}
	return result, nil
}

// appendWithRecovery performs step 2-3 of §4.3: attempt the append, and on
// ItemMissing create the page and retry exactly once. A second ItemMissing
// is the fatal createNewPageException.
func (e *Engine) appendWithRecovery(ctx context.Context, listID string, p int, value string, retried bool) (int, error) {
	key := config.PageKey(listID, p)
	n, err := e.gw.AppendToList(ctx, e.cfg.TableName(), key, pagemodel.FieldDataList, value)
	if err == nil {
		return n, nil
	}
	if !isItemMissing(err) {
		return 0, err
	}
	if retried {
		return 0, errs.CreateNewPage(listID, p)
	}

	e.metric.BlankPageRecoveries().Inc()
	e.log.Debugw("append: page missing, creating and retrying", "list_id", listID, "page", p)
	if cerr := e.CreatePage(ctx, listID, p); cerr != nil && !isAlreadyExists(cerr) {
		return 0, cerr
	}
	return e.appendWithRecovery(ctx, listID, p, value, true)
}

// rollover attempts the counter bump and successor-page creation for page
// boundary p -> p+1. Both PreconditionFailed (another appender already won
// the bump) and AlreadyExists on the successor page are expected races and
// are swallowed; any other error is logged but not returned, since the
// caller's append already succeeded and rollover is best-effort per §4.3
// step 4.
func (e *Engine) rollover(ctx context.Context, listID string, p int) {
	next, err := e.gw.IncrementIfAtLeast(ctx, e.cfg.TableName(), config.SummaryKey(listID), pagemodel.FieldCurrentPage, p)
	if err != nil {
		if !isPreconditionFailed(err) {
			e.log.Warnw("rollover: counter increment failed", "list_id", listID, "page", p, "error", err)
		}
		return
	}
	e.metric.Rollovers().Inc()
	if cerr := e.CreatePage(ctx, listID, next); cerr != nil && !isAlreadyExists(cerr) {
		e.log.Warnw("rollover: create successor page failed", "list_id", listID, "page", next, "error", cerr)
	}
}

func (e *Engine) getSummary(ctx context.Context, listID string) (pagemodel.Summary, error) {
	item, err := e.gw.Get(ctx, e.cfg.TableName(), config.SummaryKey(listID), nil)
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			return pagemodel.Summary{}, errs.PageNotFound(listID)
		}
		return pagemodel.Summary{}, err
	}
	return pagemodel.SummaryFromItem(item)
}

func isAlreadyExists(err error) bool      { return errors.Is(err, gateway.ErrAlreadyExists) }
func isItemMissing(err error) bool        { return errors.Is(err, gateway.ErrItemMissing) }
func isPreconditionFailed(err error) bool { return errors.Is(err, gateway.ErrPreconditionFailed) }
