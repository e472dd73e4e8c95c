package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/estatuto/internal/model"
	"github.com/ppiankov/estatuto/internal/pipeline"
	"github.com/ppiankov/estatuto/internal/worker"
)

var (
	discoverType    string
	discoverJSON    string
	discoverProcess bool
	discoverTimeout time.Duration
)

var discoverCmd = &cobra.Command{
	Use:   "discover <listing-url>...",
	Short: "Extract act records from listing pages",
	Long: `Discover reads one or more listing pages (the yearly indexes of laws,
decrees and so on), extracts one record per act and persists them.
Listings are fetched in parallel; records are deduplicated by act key.

With --process every discovered act is then structured like 'batch' does.

Example:
  estatuto discover https://www.planalto.gov.br/ccivil_03/leis/lcp/quadro_lcp.htm --type lcp
  estatuto discover https://www.planalto.gov.br/ccivil_03/leis/2000/ --json leis.json
  estatuto discover https://www.planalto.gov.br/ccivil_03/leis/lcp/quadro_lcp.htm --type lcp --process --output-dir ./lcp`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDiscover,
}

func init() {
	rootCmd.AddCommand(discoverCmd)

	discoverCmd.Flags().StringVar(&discoverType, "type", "lei", "act type listed by the pages (lei, lcp, emc, mpv, dec, del, pl, plp)")
	discoverCmd.Flags().StringVar(&discoverJSON, "json", "", "write discovered records to this JSON file")
	discoverCmd.Flags().BoolVar(&discoverProcess, "process", false, "process every discovered act")
	discoverCmd.Flags().StringVar(&outputDir, "output-dir", "./estatuto-atos", "output directory when --process is set")
	discoverCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent act workers with --process")
	discoverCmd.Flags().DurationVar(&discoverTimeout, "timeout", time.Hour, "total timeout")

	addFetchFlags(discoverCmd)
	addPipelineFlags(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	actType, ok := model.ParseActType(discoverType)
	if !ok {
		return fmt.Errorf("unknown act type %q", discoverType)
	}

	ctx, cancel := context.WithTimeout(context.Background(), discoverTimeout)
	defer cancel()

	cfg, err := configFor(cmd)
	if err != nil {
		return err
	}
	p, closeStore, err := buildPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	records, err := discoverListings(ctx, p, args, actType, cfg.Concurrency.DiscoverWorkers)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "✓ Discovered %d acts from %d listings\n", len(records), len(args))

	if st := p.Store(); st != nil {
		n, err := st.SaveRecords(ctx, records)
		if err != nil {
			return fmt.Errorf("save records: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Saved %d records\n", n)
	}

	if discoverJSON != "" {
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal records: %w", err)
		}
		if err := os.WriteFile(discoverJSON, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", discoverJSON, err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", discoverJSON)
		}
	}

	if !discoverProcess || len(records) == 0 {
		return nil
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	workers := workerCount(concurrency, cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "⚙️  Processing %d acts with %d workers...\n\n", len(records), workers)

	results := worker.NewBatchProcessor(p, workers).ProcessRecords(ctx, records)
	writeResults(p, results, outputDir)
	printBatchSummary(worker.Summarize(results), outputDir)
	return nil
}

// discoverListings fetches listings with at most limit in flight. A listing
// that cannot be fetched is logged and skipped; only a missing fetcher or a
// cancelled context fails the whole run.
func discoverListings(ctx context.Context, p *pipeline.Pipeline, listings []string, actType model.ActType, limit int) ([]model.ActRecord, error) {
	if limit <= 0 {
		limit = 4
	}

	var (
		mu   sync.Mutex
		seen = make(map[model.ActKey]model.ActRecord)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, listing := range listings {
		g.Go(func() error {
			res, err := p.DiscoverActs(gctx, listing, actType)
			if err != nil {
				return fmt.Errorf("discover %s: %w", listing, err)
			}
			for _, c := range res.Conditions {
				log.Warn().Str("listing", listing).Str("condition", string(c.Kind)).Msg(c.Message)
			}

			mu.Lock()
			defer mu.Unlock()
			for _, rec := range res.Value {
				if _, dup := seen[rec.Key()]; !dup {
					seen[rec.Key()] = rec
				}
			}
			log.Debug().Str("listing", listing).Int("records", len(res.Value)).Msg("Listing extracted")
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := make([]model.ActRecord, 0, len(seen))
	for _, rec := range seen {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Year != records[j].Year {
			return records[i].Year < records[j].Year
		}
		return records[i].ActNumber < records[j].ActNumber
	})
	return records, nil
}
