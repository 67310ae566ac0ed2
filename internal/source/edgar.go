package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/findata-cli/internal/concept"
	"github.com/sells-group/findata-cli/internal/fetcher"
	"github.com/sells-group/findata-cli/internal/model"
	"github.com/sells-group/findata-cli/internal/xbrl"
)

// EDGARClient fetches company facts from the SEC EDGAR XBRL API. Company
// identifiers are CIK numbers; tickers are resolved via the public
// company-tickers mapping.
type EDGARClient struct {
	fetcher  fetcher.Fetcher
	registry *concept.Registry
	baseURL  string
	filesURL string

	mu      sync.Mutex
	tickers map[string]string // upper ticker → zero-padded CIK
}

// EDGAROptions configures the EDGAR client.
type EDGAROptions struct {
	// BaseURL overrides the XBRL API endpoint, for tests.
	BaseURL string
	// FilesURL overrides the ticker mapping endpoint, for tests.
	FilesURL string
}

// NewEDGARClient creates an EDGAR client over the given fetcher.
func NewEDGARClient(f fetcher.Fetcher, reg *concept.Registry, opts EDGAROptions) *EDGARClient {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://data.sec.gov"
	}
	if opts.FilesURL == "" {
		opts.FilesURL = "https://www.sec.gov"
	}
	return &EDGARClient{
		fetcher:  f,
		registry: reg,
		baseURL:  strings.TrimSuffix(opts.BaseURL, "/"),
		filesURL: strings.TrimSuffix(opts.FilesURL, "/"),
	}
}

// FetchStatements downloads the company facts document and flattens it
// into statement snapshots for the requested filing types.
func (c *EDGARClient) FetchStatements(ctx context.Context, companyID string, filingTypes []model.FilingType, periods int) ([]model.StatementSnapshot, error) {
	cik, err := c.resolveCIK(ctx, companyID)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/api/xbrl/companyfacts/CIK%s.json", c.baseURL, cik)
	body, err := c.fetcher.Download(ctx, url)
	if err != nil {
		if fetcher.StatusCode(err) == http.StatusNotFound {
			return nil, &UnknownCompanyError{CompanyID: companyID}
		}
		return nil, eris.Wrapf(err, "edgar: fetch company facts for %s", companyID)
	}
	defer body.Close() //nolint:errcheck

	facts, err := xbrl.ParseCompanyFacts(body)
	if err != nil {
		return nil, eris.Wrapf(err, "edgar: parse company facts for %s", companyID)
	}

	snapshots := xbrl.BuildSnapshots(facts, companyID, c.registry, filingTypes, periods)
	if len(snapshots) == 0 {
		return nil, &NoDataError{CompanyID: companyID}
	}

	zap.L().Debug("edgar: fetched statements",
		zap.String("company_id", companyID),
		zap.Int("snapshots", len(snapshots)),
	)
	return snapshots, nil
}

// FetchStatementsIfChanged revalidates the company facts document with
// an ETag conditional request. An unchanged document skips the download
// and parse entirely.
func (c *EDGARClient) FetchStatementsIfChanged(ctx context.Context, companyID string, filingTypes []model.FilingType, periods int, etag string) ([]model.StatementSnapshot, string, bool, error) {
	cik, err := c.resolveCIK(ctx, companyID)
	if err != nil {
		return nil, "", false, err
	}

	url := fmt.Sprintf("%s/api/xbrl/companyfacts/CIK%s.json", c.baseURL, cik)
	body, newETag, changed, err := c.fetcher.DownloadIfChanged(ctx, url, etag)
	if err != nil {
		if fetcher.StatusCode(err) == http.StatusNotFound {
			return nil, "", false, &UnknownCompanyError{CompanyID: companyID}
		}
		return nil, "", false, eris.Wrapf(err, "edgar: revalidate company facts for %s", companyID)
	}
	if !changed {
		zap.L().Debug("edgar: company facts unchanged",
			zap.String("company_id", companyID))
		return nil, newETag, false, nil
	}
	defer body.Close() //nolint:errcheck

	facts, err := xbrl.ParseCompanyFacts(body)
	if err != nil {
		return nil, "", false, eris.Wrapf(err, "edgar: parse company facts for %s", companyID)
	}

	snapshots := xbrl.BuildSnapshots(facts, companyID, c.registry, filingTypes, periods)
	if len(snapshots) == 0 {
		return nil, "", false, &NoDataError{CompanyID: companyID}
	}
	return snapshots, newETag, true, nil
}

// resolveCIK normalizes a company identifier into a zero-padded CIK.
// Numeric identifiers are taken as CIKs directly; anything else is looked
// up as a ticker.
func (c *EDGARClient) resolveCIK(ctx context.Context, companyID string) (string, error) {
	id := strings.TrimSpace(companyID)
	if id == "" {
		return "", &UnknownCompanyError{CompanyID: companyID}
	}
	if _, err := strconv.Atoi(id); err == nil {
		return fmt.Sprintf("%010s", id), nil
	}
	return c.lookupTicker(ctx, id)
}

// tickerEntry matches the SEC company-tickers JSON value shape.
type tickerEntry struct {
	CIK    int    `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

func (c *EDGARClient) lookupTicker(ctx context.Context, ticker string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tickers == nil {
		body, err := c.fetcher.Download(ctx, c.filesURL+"/files/company_tickers.json")
		if err != nil {
			return "", eris.Wrap(err, "edgar: fetch ticker mapping")
		}
		defer body.Close() //nolint:errcheck

		var entries map[string]tickerEntry
		if err := json.NewDecoder(body).Decode(&entries); err != nil {
			return "", eris.Wrap(err, "edgar: parse ticker mapping")
		}
		c.tickers = make(map[string]string, len(entries))
		for _, e := range entries {
			c.tickers[strings.ToUpper(e.Ticker)] = fmt.Sprintf("%010d", e.CIK)
		}
	}

	cik, ok := c.tickers[strings.ToUpper(ticker)]
	if !ok {
		return "", &UnknownCompanyError{CompanyID: ticker}
	}
	return cik, nil
}
