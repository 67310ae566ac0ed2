// Package manager orchestrates cache lookups, source fetches and ratio
// computation behind a single entry point.
package manager

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/findata-cli/internal/concept"
	"github.com/sells-group/findata-cli/internal/model"
	"github.com/sells-group/findata-cli/internal/ratio"
	"github.com/sells-group/findata-cli/internal/resilience"
	"github.com/sells-group/findata-cli/internal/source"
	"github.com/sells-group/findata-cli/internal/store"
	"github.com/sells-group/findata-cli/internal/verify"
)

const (
	// DefaultMaxAge is how long a cache entry is served without refetching.
	DefaultMaxAge = 7 * 24 * time.Hour
	// DefaultPeriods is how many recent fiscal periods a fetch retains.
	DefaultPeriods = 4
)

// Request identifies one financials lookup. An empty Period means the
// most recent cached or fetched period. Refresh bypasses freshness and
// forces a source fetch.
type Request struct {
	CompanyID  string
	FilingType model.FilingType
	Period     string
	Refresh    bool
}

type Options struct {
	MaxAge       time.Duration
	Periods      int
	TolerancePct float64
	// Now is overridable in tests.
	Now func() time.Time
}

// Manager is the facade report generators call. It owns the
// check-cache / fetch / verify / store / compute sequence and
// deduplicates concurrent fetches for the same company and filing type.
type Manager struct {
	store    store.Store
	source   source.Client
	resolver *concept.Resolver
	verifier *verify.Verifier
	calc     *ratio.Calculator

	maxAge  time.Duration
	periods int
	now     func() time.Time

	group singleflight.Group

	mu       sync.Mutex
	keyLocks map[string]*sync.Mutex
}

func New(st store.Store, src source.Client, resolver *concept.Resolver, opts Options) *Manager {
	if opts.MaxAge <= 0 {
		opts.MaxAge = DefaultMaxAge
	}
	if opts.Periods <= 0 {
		opts.Periods = DefaultPeriods
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{
		store:    st,
		source:   src,
		resolver: resolver,
		verifier: verify.New(resolver, opts.TolerancePct),
		calc:     ratio.New(resolver),
		maxAge:   opts.MaxAge,
		periods:  opts.Periods,
		now:      opts.Now,
		keyLocks: make(map[string]*sync.Mutex),
	}
}

type fetchResult struct {
	entries []*model.CacheEntry
	warning string
	noData  bool
	// refreshed means the source revalidated the cached entries as
	// unchanged; their freshness was bumped in place.
	refreshed bool
}

// GetFinancials returns statements, verification and ratios for the
// requested company and filing type.
//
// A fresh cache entry short-circuits the fetch. Cache read failures are
// logged and treated as misses; cache write failures surface as a
// warning on the result, not an error. When the source is unavailable
// and a stale entry exists, the stale entry is served and flagged.
func (m *Manager) GetFinancials(ctx context.Context, req Request) (*model.FinancialData, error) {
	if req.CompanyID == "" {
		return nil, eris.New("company id is required")
	}
	if req.FilingType == "" {
		req.FilingType = model.FilingAnnual
	}
	now := m.now()

	entry := m.lookup(ctx, req)
	if !req.Refresh && entry.IsFresh(now, m.maxAge) {
		return m.serveCached(ctx, req, entry, now, "")
	}

	key := req.CompanyID + "|" + string(req.FilingType)
	etag := ""
	if entry != nil {
		etag = entry.ETag
	}
	v, err, _ := m.group.Do(key, func() (any, error) {
		return m.fetchAndStore(ctx, req.CompanyID, req.FilingType, etag)
	})
	if err != nil {
		if source.IsUnknownCompany(err) {
			return nil, err
		}
		if resilience.IsTransient(err) && entry != nil && !entry.Empty {
			zap.L().Warn("source unavailable, serving stale cache entry",
				zap.String("company_id", req.CompanyID),
				zap.String("filing_type", string(req.FilingType)),
				zap.Duration("age", entry.Age(now)),
				zap.Error(err))
			return m.serveStale(ctx, req, entry, now)
		}
		return nil, eris.Wrapf(err, "fetching financials for %s", req.CompanyID)
	}
	res := v.(*fetchResult)

	if res.noData {
		return m.cacheEmpty(ctx, req, now)
	}

	if res.refreshed {
		// Revalidated unchanged; the stored entries got their
		// freshness bumped. Serve from cache.
		if fresh := m.lookup(ctx, req); fresh != nil {
			entry = fresh
		}
		if entry == nil {
			return m.cacheEmpty(ctx, req, now)
		}
		return m.serveCached(ctx, req, entry, now, "")
	}

	idx := pickEntry(res.entries, req.Period)
	if idx < 0 {
		// The source answered, but the requested period predates the
		// fetched window. That is not a confirmed absence: keep and
		// serve whatever the cache already holds for the period.
		if entry != nil && !entry.Empty {
			return m.serveStale(ctx, req, entry, now)
		}
		return &model.FinancialData{
			CompanyID: req.CompanyID,
			NoData:    true,
			CacheStatus: model.CacheStatus{
				FetchedAt:    now,
				Fresh:        true,
				StoreWarning: res.warning,
			},
		}, nil
	}
	picked := res.entries[idx]

	var prior *model.CacheEntry
	if idx+1 < len(res.entries) {
		prior = res.entries[idx+1]
	} else {
		prior = m.priorFromStore(ctx, req.CompanyID, req.FilingType, picked.Period)
	}

	status := model.CacheStatus{
		FetchedAt:    picked.FetchedAt,
		Fresh:        true,
		StoreWarning: res.warning,
	}
	return m.compute(req.CompanyID, picked, prior, status), nil
}

// Invalidate drops the cache entry for one key.
func (m *Manager) Invalidate(ctx context.Context, companyID string, filingType model.FilingType, period string) error {
	return m.store.Invalidate(ctx, companyID, filingType, period)
}

// CachedPeriods lists the fiscal periods currently cached for a key,
// most recent first.
func (m *Manager) CachedPeriods(ctx context.Context, companyID string, filingType model.FilingType) ([]string, error) {
	return m.store.ListPeriods(ctx, companyID, filingType)
}

// lookup finds the candidate cache entry for the request, resolving the
// latest period when none was given. Read errors fail open: the request
// proceeds as a cache miss.
func (m *Manager) lookup(ctx context.Context, req Request) *model.CacheEntry {
	period := req.Period
	if period == "" {
		periods, err := m.store.ListPeriods(ctx, req.CompanyID, req.FilingType)
		if err != nil {
			zap.L().Warn("cache period listing failed, treating as miss",
				zap.String("company_id", req.CompanyID), zap.Error(err))
			return nil
		}
		if len(periods) == 0 {
			return nil
		}
		period = periods[0]
	}
	entry, err := m.store.Get(ctx, req.CompanyID, req.FilingType, period)
	if err != nil {
		zap.L().Warn("cache read failed, treating as miss",
			zap.String("company_id", req.CompanyID),
			zap.String("period", period), zap.Error(err))
		return nil
	}
	return entry
}

func (m *Manager) fetchAndStore(ctx context.Context, companyID string, filingType model.FilingType, etag string) (*fetchResult, error) {
	var (
		snapshots []model.StatementSnapshot
		newETag   string
		err       error
	)
	// Sources that support revalidation get the cached ETag; with no
	// cached tag this is a plain download that captures the new one.
	if cc, ok := m.source.(source.ConditionalClient); ok {
		var changed bool
		snapshots, newETag, changed, err = cc.FetchStatementsIfChanged(ctx, companyID, []model.FilingType{filingType}, m.periods, etag)
		if err == nil && !changed {
			m.refreshEntries(ctx, companyID, filingType)
			m.recordFetch(ctx, companyID, "not_modified")
			return &fetchResult{refreshed: true}, nil
		}
	} else {
		snapshots, err = m.source.FetchStatements(ctx, companyID, []model.FilingType{filingType}, m.periods)
	}
	if err != nil {
		if source.IsNoData(err) {
			m.recordFetch(ctx, companyID, "no_data")
			return &fetchResult{noData: true}, nil
		}
		m.recordFetch(ctx, companyID, "error")
		return nil, err
	}

	entries := entriesFromSnapshots(snapshots, companyID, filingType, m.now(), newETag)

	lock := m.keyLock(companyID, filingType)
	lock.Lock()
	defer lock.Unlock()

	var warning string
	for _, e := range entries {
		if err := m.store.Put(ctx, e); err != nil {
			warning = "cache write failed: " + err.Error()
			zap.L().Warn("cache write failed",
				zap.String("company_id", companyID),
				zap.String("period", e.Period), zap.Error(err))
		}
	}
	m.recordFetch(ctx, companyID, "ok")
	return &fetchResult{entries: entries, warning: warning}, nil
}

// cacheEmpty records a confirmed no-data result so repeated requests do
// not hammer the source. Latest-period requests key the empty entry on
// the request date; it expires with normal freshness. An existing real
// snapshot for the period is never replaced by an empty marker.
func (m *Manager) cacheEmpty(ctx context.Context, req Request, now time.Time) (*model.FinancialData, error) {
	period := req.Period
	if period == "" {
		period = now.UTC().Format("2006-01-02")
	}
	empty := &model.CacheEntry{
		CompanyID:  req.CompanyID,
		FilingType: req.FilingType,
		Period:     period,
		Empty:      true,
		FetchedAt:  now,
	}

	lock := m.keyLock(req.CompanyID, req.FilingType)
	lock.Lock()
	var err error
	existing, gerr := m.store.Get(ctx, req.CompanyID, req.FilingType, period)
	if gerr != nil || existing == nil || existing.Empty {
		err = m.store.Put(ctx, empty)
	}
	lock.Unlock()

	var warning string
	if err != nil {
		warning = "cache write failed: " + err.Error()
		zap.L().Warn("cache write failed for empty entry",
			zap.String("company_id", req.CompanyID), zap.Error(err))
	}
	return &model.FinancialData{
		CompanyID: req.CompanyID,
		NoData:    true,
		CacheStatus: model.CacheStatus{
			FetchedAt:    now,
			Fresh:        true,
			StoreWarning: warning,
		},
	}, nil
}

func (m *Manager) serveCached(ctx context.Context, req Request, entry *model.CacheEntry, now time.Time, warning string) (*model.FinancialData, error) {
	status := model.CacheStatus{
		FromCache:    true,
		FetchedAt:    entry.FetchedAt,
		Age:          entry.Age(now),
		Fresh:        true,
		StoreWarning: warning,
	}
	prior := m.priorFromStore(ctx, req.CompanyID, req.FilingType, entry.Period)
	return m.compute(req.CompanyID, entry, prior, status), nil
}

func (m *Manager) serveStale(ctx context.Context, req Request, entry *model.CacheEntry, now time.Time) (*model.FinancialData, error) {
	status := model.CacheStatus{
		FromCache:   true,
		FetchedAt:   entry.FetchedAt,
		Age:         entry.Age(now),
		ServedStale: true,
	}
	prior := m.priorFromStore(ctx, req.CompanyID, req.FilingType, entry.Period)
	return m.compute(req.CompanyID, entry, prior, status), nil
}

func (m *Manager) compute(companyID string, entry, prior *model.CacheEntry, status model.CacheStatus) *model.FinancialData {
	if entry.Empty {
		return &model.FinancialData{CompanyID: companyID, NoData: true, CacheStatus: status}
	}

	verification := m.verifier.BalanceSheet(balanceSheetItems(entry.Snapshots))

	var priorItems []model.StatementLineItem
	priorPeriod := ""
	if prior != nil && !prior.Empty {
		priorItems = model.MergeItems(prior.Snapshots)
		priorPeriod = prior.Period
	}
	ratios := m.calc.Calculate(model.MergeItems(entry.Snapshots), priorItems, entry.Period, priorPeriod, &verification)

	return &model.FinancialData{
		CompanyID:    companyID,
		Statements:   entry.Snapshots,
		Ratios:       ratios,
		Verification: &verification,
		CacheStatus:  status,
	}
}

// priorFromStore finds the cached entry for the period immediately
// before the given one. Misses and read errors yield nil; growth is
// simply absent then.
func (m *Manager) priorFromStore(ctx context.Context, companyID string, filingType model.FilingType, period string) *model.CacheEntry {
	periods, err := m.store.ListPeriods(ctx, companyID, filingType)
	if err != nil {
		return nil
	}
	for _, p := range periods {
		if p >= period {
			continue
		}
		entry, err := m.store.Get(ctx, companyID, filingType, p)
		if err != nil || entry == nil || entry.Empty {
			return nil
		}
		return entry
	}
	return nil
}

func (m *Manager) keyLock(companyID string, filingType model.FilingType) *sync.Mutex {
	key := companyID + "|" + string(filingType)
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.keyLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		m.keyLocks[key] = lock
	}
	return lock
}

func (m *Manager) recordFetch(ctx context.Context, companyID, status string) {
	if err := m.store.RecordFetch(ctx, companyID, m.now(), status); err != nil {
		zap.L().Debug("fetch log write failed",
			zap.String("company_id", companyID), zap.Error(err))
	}
}

// refreshEntries bumps FetchedAt on the cached entries for a key after
// the source revalidated them as unchanged.
func (m *Manager) refreshEntries(ctx context.Context, companyID string, filingType model.FilingType) {
	lock := m.keyLock(companyID, filingType)
	lock.Lock()
	defer lock.Unlock()

	periods, err := m.store.ListPeriods(ctx, companyID, filingType)
	if err != nil {
		zap.L().Debug("period listing failed during revalidation",
			zap.String("company_id", companyID), zap.Error(err))
		return
	}
	now := m.now()
	for _, p := range periods {
		entry, err := m.store.Get(ctx, companyID, filingType, p)
		if err != nil || entry == nil {
			continue
		}
		entry.FetchedAt = now
		if err := m.store.Put(ctx, entry); err != nil {
			zap.L().Warn("cache write failed during revalidation",
				zap.String("company_id", companyID),
				zap.String("period", p), zap.Error(err))
		}
	}
}

// entriesFromSnapshots groups fetched snapshots by fiscal period into
// cache entries, most recent period first.
func entriesFromSnapshots(snapshots []model.StatementSnapshot, companyID string, filingType model.FilingType, fetchedAt time.Time, etag string) []*model.CacheEntry {
	byPeriod := make(map[string][]model.StatementSnapshot)
	for _, s := range snapshots {
		byPeriod[s.Period] = append(byPeriod[s.Period], s)
	}

	entries := make([]*model.CacheEntry, 0, len(byPeriod))
	for period, snaps := range byPeriod {
		entries = append(entries, &model.CacheEntry{
			CompanyID:  companyID,
			FilingType: filingType,
			Period:     period,
			Snapshots:  snaps,
			ETag:       etag,
			FetchedAt:  fetchedAt,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Period > entries[j].Period })
	return entries
}

func pickEntry(entries []*model.CacheEntry, period string) int {
	if len(entries) == 0 {
		return -1
	}
	if period == "" {
		return 0
	}
	for i, e := range entries {
		if e.Period == period {
			return i
		}
	}
	return -1
}

func balanceSheetItems(snapshots []model.StatementSnapshot) []model.StatementLineItem {
	var items []model.StatementLineItem
	for _, s := range snapshots {
		if s.StatementType == model.StatementBalanceSheet {
			items = append(items, s.Items...)
		}
	}
	return items
}
