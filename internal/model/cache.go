package model

import "time"

// CacheEntry wraps the statement snapshots for one (company, filing type,
// period) key. Entries are replaced atomically on refresh; a new entry
// supersedes the old one, never a partial merge.
type CacheEntry struct {
	ID         string              `json:"id"`
	CompanyID  string              `json:"company_id"`
	FilingType FilingType          `json:"filing_type"`
	Period     string              `json:"period"`
	Snapshots  []StatementSnapshot `json:"snapshots"`
	// Empty marks a confirmed "no statement exists for this period" result,
	// cached to avoid re-fetch storms.
	Empty     bool      `json:"empty,omitempty"`
	ETag      string    `json:"etag,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

// IsFresh reports whether the entry is within maxAge of now.
func (e *CacheEntry) IsFresh(now time.Time, maxAge time.Duration) bool {
	if e == nil {
		return false
	}
	return now.Sub(e.FetchedAt) <= maxAge
}

// Age returns how long ago the entry was fetched.
func (e *CacheEntry) Age(now time.Time) time.Duration {
	if e == nil {
		return 0
	}
	return now.Sub(e.FetchedAt)
}

// CacheStatus describes where a result came from and how trustworthy its
// age makes it.
type CacheStatus struct {
	FromCache bool          `json:"from_cache"`
	FetchedAt time.Time     `json:"fetched_at,omitzero"`
	Age       time.Duration `json:"age"`
	Fresh     bool          `json:"fresh"`
	// ServedStale is set when an entry past its freshness window was
	// served anyway: the refetch failed, or it did not cover the
	// requested period.
	ServedStale bool `json:"served_stale,omitempty"`
	// StoreWarning carries a non-fatal cache write failure.
	StoreWarning string `json:"store_warning,omitempty"`
}

// FinancialData is the result returned to report generators.
type FinancialData struct {
	CompanyID    string              `json:"company_id"`
	Statements   []StatementSnapshot `json:"statements"`
	Ratios       *RatioSet           `json:"ratios,omitempty"`
	Verification *VerificationResult `json:"verification,omitempty"`
	CacheStatus  CacheStatus         `json:"cache_status"`
	// NoData marks a confirmed empty result for the requested key.
	NoData bool `json:"no_data,omitempty"`
}
