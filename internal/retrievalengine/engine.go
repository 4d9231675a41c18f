// Package retrievalengine implements the reverse multi-page retrieval
// engine described in §4.4: GetCurrentPage, the GetSummary/GetDataPage
// split called for by one of SPEC_FULL.md's supplemented features,
// Retrieve (kept as a thin dispatcher over the two for the named surface
// in §6), RetrieveLastMostRecent, RetrieveNextMostRecent, and the
// retrieveNElement walk they both share.
package retrievalengine

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"

	"github.com/govetachun/pagelist/internal/config"
	"github.com/govetachun/pagelist/internal/gateway"
	"github.com/govetachun/pagelist/internal/metrics"
	"github.com/govetachun/pagelist/internal/pagemodel"
	"github.com/govetachun/pagelist/pkg/errs"
)

// Item is one value read back from a page, decorated with its address
// (§4.4). SequenceID is a snapshot-local offset: under concurrent
// appenders an over-full page can be observed at different lengths across
// reads, so two reads taken at different moments may assign the same
// SequenceID to different values. It is not a stable identifier.
type Item struct {
	Value            string
	PageID           string
	SequenceID       int
	ResourceIDParent string
}

// Cursor describes a position in a list for resuming a backward walk
// (§4.4, §8 scenario 6). SequenceID < 0 signals "missing" for the purpose
// of InvalidCursor validation, since every cursor produced by this package
// carries a SequenceID >= 0.
type Cursor struct {
	PageID     string
	SequenceID int
}

func (c Cursor) validate() error {
	if c.PageID == "" {
		return errs.InvalidCursor("missing page_id")
	}
	if c.SequenceID < 0 {
		return errs.InvalidCursor("missing sequence_id")
	}
	if _, err := strconv.Atoi(c.PageID); err != nil {
		return errs.InvalidCursor("page_id is not a page number")
	}
	return nil
}

// Engine implements the retrieval protocol against a gateway.Gateway.
type Engine struct {
	gw     gateway.Gateway
	cfg    *config.Config
	log    *zap.SugaredLogger
	metric *metrics.Metrics
}

// New builds a retrieval Engine. log and metric may be nil for no-ops.
func New(gw gateway.Gateway, cfg *config.Config, log *zap.SugaredLogger, metric *metrics.Metrics) *Engine {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if metric == nil {
		metric = metrics.NewNop()
	}
	return &Engine{gw: gw, cfg: cfg, log: log, metric: metric}
}

// GetSummary reads the summary item for listID. A missing summary is
// pageNotFound: the list itself was never created.
func (e *Engine) GetSummary(ctx context.Context, listID string) (pagemodel.Summary, error) {
	item, err := e.gw.Get(ctx, e.cfg.TableName(), config.SummaryKey(listID), nil)
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			return pagemodel.Summary{}, errs.PageNotFound(listID)
		}
		return pagemodel.Summary{}, err
	}
	return pagemodel.SummaryFromItem(item)
}

// GetCurrentPage returns the tail page number for listID.
func (e *Engine) GetCurrentPage(ctx context.Context, listID string) (int, error) {
	summary, err := e.GetSummary(ctx, listID)
	if err != nil {
		return 0, err
	}
	return summary.CurrentPage, nil
}

// PageData is one page's worth of retrieved items (§4.4's
// {page_id, data: [item...]}).
type PageData struct {
	PageID string
	Data   []Item
}

// GetDataPage reads page pageNumber of listID, projecting only data_list.
// A page that does not exist (a blank page, §3 invariant 2) is not an
// error: it is reported as an empty PageData.
func (e *Engine) GetDataPage(ctx context.Context, listID string, pageNumber int) (PageData, error) {
	key := config.PageKey(listID, pageNumber)
	item, err := e.gw.Get(ctx, e.cfg.TableName(), key, []string{pagemodel.FieldDataList})
	pageIDStr := strconv.Itoa(pageNumber)
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			return PageData{PageID: pageIDStr}, nil
		}
		return PageData{}, err
	}
	page, err := pagemodel.PageFromItem(item)
	if err != nil {
		return PageData{}, err
	}
	return PageData{PageID: pageIDStr, Data: decorate(listID, pageIDStr, page.DataList)}, nil
}

// RetrieveResult is Retrieve's return value. Exactly one of Summary or
// Page is set, resolving the Open Question in §9 about Retrieve's
// overloaded shape: the summary case and the data-page case are kept as
// genuinely distinct operations (GetSummary/GetDataPage) behind this one
// dispatcher, which exists only to satisfy the named surface in §6.
type RetrieveResult struct {
	Summary *pagemodel.Summary
	Page    *PageData
}

// SummaryPageID is the pageId value that routes Retrieve to GetSummary
// instead of GetDataPage.
const SummaryPageID = "summary"

// Retrieve dispatches to GetSummary or GetDataPage depending on pageID.
func (e *Engine) Retrieve(ctx context.Context, listID, pageID string) (RetrieveResult, error) {
	if pageID == SummaryPageID {
		summary, err := e.GetSummary(ctx, listID)
		if err != nil {
			return RetrieveResult{}, err
		}
		return RetrieveResult{Summary: &summary}, nil
	}
	pageNumber, err := strconv.Atoi(pageID)
	if err != nil {
		return RetrieveResult{}, errs.InvalidCursor("pageId is neither a page number nor \"summary\"")
	}
	page, err := e.GetDataPage(ctx, listID, pageNumber)
	if err != nil {
		return RetrieveResult{}, err
	}
	return RetrieveResult{Page: &page}, nil
}

// RetrieveLastMostRecent returns up to N of the most recently appended
// items, starting at currentPage with no in-page cut (§4.4).
func (e *Engine) RetrieveLastMostRecent(ctx context.Context, listID string, n int) ([]Item, error) {
	currentPage, err := e.GetCurrentPage(ctx, listID)
	if err != nil {
		return nil, err
	}
	return e.retrieveNElement(ctx, listID, currentPage, 0, false, n)
}

// RetrieveNextMostRecent continues a backward walk from strictly before
// cursor (§4.4, §8 scenario 6).
func (e *Engine) RetrieveNextMostRecent(ctx context.Context, listID string, cursor Cursor, n int) ([]Item, error) {
	if err := cursor.validate(); err != nil {
		return nil, err
	}
	cursorPage, _ := strconv.Atoi(cursor.PageID)

	if cursor.SequenceID <= 0 {
		fromPage := cursorPage - 1
		if fromPage < 0 {
			return e.retrieveNElement(ctx, listID, 0, 0, true, n)
		}
		return e.retrieveNElement(ctx, listID, fromPage, 0, false, n)
	}
	return e.retrieveNElement(ctx, listID, cursorPage, cursor.SequenceID, true, n)
}

// retrieveNElement is the core walk (§4.4): descend pages from fromPage to
// 0, reversing each page's contents and concatenating, until N items are
// collected or pages are exhausted. fromSequenceExclusive, when hasCut is
// set, truncates fromPage's contents to the prefix of that length before
// the first reversal, keeping only elements strictly older than the
// original cursor.
func (e *Engine) retrieveNElement(ctx context.Context, listID string, fromPage, fromSequenceExclusive int, hasCut bool, n int) ([]Item, error) {
	var acc []Item
	for p := fromPage; p >= 0 && len(acc) < n; p-- {
		page, err := e.GetDataPage(ctx, listID, p)
		if err != nil {
			return nil, err
		}
		items := page.Data
		if p == fromPage && hasCut {
			if fromSequenceExclusive < len(items) {
				items = items[:fromSequenceExclusive]
			}
		}
		acc = append(acc, reversed(items)...)
	}
	if len(acc) > n {
		acc = acc[:n]
	}
	return acc, nil
}

func decorate(listID, pageID string, values []string) []Item {
	items := make([]Item, len(values))
	for i, v := range values {
		items[i] = Item{
			Value:            v,
			PageID:           pageID,
			SequenceID:       i,
			ResourceIDParent: listID,
		}
	}
	return items
}

func reversed(items []Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		out[len(items)-1-i] = it
	}
	return out
}
