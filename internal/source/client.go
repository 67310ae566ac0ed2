// Package source fetches raw filing data from the external filings source
// and converts it into statement snapshots.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/sells-group/findata-cli/internal/model"
)

// Client is the filing source boundary. Implementations must support
// cancellation via ctx and distinguish the three error kinds below.
type Client interface {
	// FetchStatements returns statement snapshots for the company across
	// the requested filing types, covering the most recent fiscal periods.
	FetchStatements(ctx context.Context, companyID string, filingTypes []model.FilingType, periods int) ([]model.StatementSnapshot, error)
}

// ConditionalClient is implemented by sources that support ETag
// revalidation, letting callers skip a full download when the upstream
// document has not changed.
type ConditionalClient interface {
	// FetchStatementsIfChanged behaves like Client.FetchStatements but
	// sends the given ETag. When the document is unchanged it returns
	// (nil, etag, false, nil) without downloading the body; otherwise it
	// returns the snapshots with the new ETag and changed=true.
	FetchStatementsIfChanged(ctx context.Context, companyID string, filingTypes []model.FilingType, periods int, etag string) ([]model.StatementSnapshot, string, bool, error)
}

// UnknownCompanyError means the company identifier does not exist at the
// source. Fatal for this key; retrying will not help.
type UnknownCompanyError struct {
	CompanyID string
}

func (e *UnknownCompanyError) Error() string {
	return fmt.Sprintf("unknown company identifier %q", e.CompanyID)
}

// NoDataError means the source confirms no statement exists for the
// requested key. Cached as an explicit empty result, distinct from a
// transient failure.
type NoDataError struct {
	CompanyID string
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("no statement data available for %q", e.CompanyID)
}

// IsUnknownCompany reports whether the error chain contains an
// UnknownCompanyError.
func IsUnknownCompany(err error) bool {
	var e *UnknownCompanyError
	return errors.As(err, &e)
}

// IsNoData reports whether the error chain contains a NoDataError.
func IsNoData(err error) bool {
	var e *NoDataError
	return errors.As(err, &e)
}
