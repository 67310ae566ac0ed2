package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/findata-cli/internal/manager"
	"github.com/sells-group/findata-cli/internal/model"
	"github.com/sells-group/findata-cli/internal/source"
)

var (
	batchFile        string
	batchFilingType  string
	batchConcurrency int
	batchRefresh     bool
)

var batchCmd = &cobra.Command{
	Use:   "batch [companies...]",
	Short: "Warm the cache for many companies",
	Long: `Fetch and cache financials for a list of companies.

Companies come from arguments or from --file (one ticker or CIK per
line, # comments allowed). Unknown companies are reported and skipped;
they do not abort the run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := zap.L().With(zap.String("command", "batch"))

		companies, err := batchCompanies(args)
		if err != nil {
			return err
		}
		if len(companies) == 0 {
			return eris.New("no companies given")
		}

		m, st, err := newEngine(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		var (
			mu     sync.Mutex
			failed []string
		)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(batchConcurrency)
		for _, company := range companies {
			g.Go(func() error {
				data, err := m.GetFinancials(gctx, manager.Request{
					CompanyID:  company,
					FilingType: model.FilingType(batchFilingType),
					Refresh:    batchRefresh,
				})
				if err != nil {
					if source.IsUnknownCompany(err) {
						log.Warn("unknown company, skipping", zap.String("company", company))
						mu.Lock()
						failed = append(failed, company)
						mu.Unlock()
						return nil
					}
					return eris.Wrapf(err, "batch: %s", company)
				}
				log.Info("cached",
					zap.String("company", company),
					zap.Bool("from_cache", data.CacheStatus.FromCache),
					zap.Bool("no_data", data.NoData))
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		fmt.Printf("Processed %d companies (%d unknown)\n", len(companies), len(failed))
		if len(failed) > 0 {
			fmt.Printf("Unknown: %s\n", strings.Join(failed, ", "))
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "", "file with one company per line")
	batchCmd.Flags().StringVar(&batchFilingType, "type", "10-K", "filing type")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 4, "concurrent fetches")
	batchCmd.Flags().BoolVar(&batchRefresh, "refresh", false, "refetch even when fresh")
	rootCmd.AddCommand(batchCmd)
}

func batchCompanies(args []string) ([]string, error) {
	companies := append([]string(nil), args...)
	if batchFile == "" {
		return companies, nil
	}

	f, err := os.Open(batchFile)
	if err != nil {
		return nil, eris.Wrapf(err, "opening company list %s", batchFile)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		companies = append(companies, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrapf(err, "reading company list %s", batchFile)
	}
	return companies, nil
}
