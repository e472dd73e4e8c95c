package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/estatuto/internal/model"
	"github.com/ppiankov/estatuto/internal/pipeline"
	"github.com/ppiankov/estatuto/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Process many acts from a file of URLs in parallel",
	Long: `Batch processes act pages concurrently:
- read URLs from the input file (one per line, # for comments)
- process each act on a bounded worker pool
- write a JSON and a Markdown rendering per act

Example:
  estatuto batch urls.txt
  estatuto batch urls.txt --concurrency 8 --output-dir ./atos
  estatuto batch urls.txt --timeout 30m --llm-provider openai`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: config, then CPU count)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./estatuto-atos", "output directory for renderings")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")

	addFetchFlags(batchCmd)
	addPipelineFlags(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := configFor(cmd)
	if err != nil {
		return err
	}
	workers := workerCount(concurrency, cfg.Concurrency.Workers)

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Estatuto Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Oracle:       %s\n", oracleLabel(cfg))
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p, closeStore, err := buildPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	results, err := processBatchFile(ctx, p, file, workers)
	if err != nil {
		return err
	}
	writeResults(p, results, outputDir)

	printBatchSummary(worker.Summarize(results), outputDir)
	return nil
}

// processBatchFile runs every URL listed in file through the pipeline
func processBatchFile(ctx context.Context, p *pipeline.Pipeline, file string, workers int) ([]*worker.ActResult, error) {
	results, err := worker.NewBatchProcessor(p, workers).ProcessFile(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("process file: %w", err)
	}
	fmt.Fprintf(os.Stderr, "✓ Processed %d URLs with %d workers\n\n", len(results), workers)
	return results, nil
}

// writeResults renders every processed act; failures are reported, not fatal
func writeResults(p *pipeline.Pipeline, results []*worker.ActResult, dir string) {
	renderer := pipeline.NewRenderer(p.Config().Output.IncludeFooter)
	for _, r := range results {
		if r.Act == nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.URL, r.Error)
			continue
		}

		base := filepath.Join(dir, actFilename(r.Act, r.Index))
		if err := renderer.RenderJSON(r.Act, base+".json"); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.URL, err)
			continue
		}
		if err := renderer.RenderMarkdown(r.Act, base+".md"); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.URL, err)
			continue
		}

		mark := "✓"
		if r.Act.Status != model.StageOK {
			mark = "…"
		}
		fmt.Fprintf(os.Stderr, "%s %s [%s] (index: %d/100, %s)\n",
			mark, displayName(r.Act), r.Act.Status, r.Act.Score.Index, r.Duration.Round(time.Millisecond))
	}
}

func printBatchSummary(s worker.BatchSummary, dir string) {
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d acts\n", s.Total)
	fmt.Fprintf(os.Stderr, "  Approved:  %d\n", s.Approved)
	fmt.Fprintf(os.Stderr, "  Deferred:  %d\n", s.Deferred)
	fmt.Fprintf(os.Stderr, "  Failed:    %d\n", s.Failed)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", dir)
	fmt.Fprintf(os.Stderr, "\n")
}

// workerCount picks the flag, then the config, then the CPU count
func workerCount(flag, configured int) int {
	switch {
	case flag > 0:
		return flag
	case configured > 0:
		return configured
	}
	return runtime.NumCPU()
}

func displayName(act *model.StructuredAct) string {
	if act.Label != "" {
		return act.Label
	}
	return act.SourceURL
}

// actFilename names an act's renderings after its key, e.g.
// "complementarylaw-101-2000". Unidentified acts fall back to their position
// in the batch.
func actFilename(act *model.StructuredAct, index int) string {
	if act.Key.Type == "" || act.Key.Number == "" {
		return fmt.Sprintf("ato-%04d", index+1)
	}
	name := fmt.Sprintf("%s-%s", act.Key.Type, act.Key.Number)
	if act.Key.Year > 0 {
		name = fmt.Sprintf("%s-%d", name, act.Key.Year)
	}
	return sanitizeFilename(name)
}

// sanitizeFilename keeps letters, digits and dashes, lowercased
func sanitizeFilename(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r == '.' || r == '/' || r == ' ' || r == '_':
			// "8.666" becomes "8666"
			if r != '.' {
				b.WriteRune('-')
			}
		}
	}
	out := b.String()
	if len(out) > 100 {
		out = out[:100]
	}
	return out
}
