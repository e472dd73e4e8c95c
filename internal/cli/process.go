package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/estatuto/internal/model"
	"github.com/ppiankov/estatuto/internal/pipeline"
)

var (
	outJSON        string
	outMD          string
	processTimeout time.Duration
	sourceURL      string
	listingEmenta  string
)

var processCmd = &cobra.Command{
	Use:   "process <url|file|->",
	Short: "Structure and validate a single act",
	Long: `Process runs the full cycle for one act:
- fetch the page (or read a local file, "-" for stdin)
- normalize and segment it into articles, paragraphs, items and clauses
- resolve the ementa
- validate every element and, when too much is missing, run the corrective pass
- persist the structured act and write JSON/Markdown renderings

Example:
  estatuto process https://www.planalto.gov.br/ccivil_03/leis/lcp/lcp101.htm
  estatuto process lei.html --source-url https://www.planalto.gov.br/ccivil_03/leis/l8666cons.htm
  estatuto process https://www.planalto.gov.br/ccivil_03/leis/l8666cons.htm --json act.json --md act.md`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVar(&outJSON, "json", "act.json", "output JSON path (empty to skip)")
	processCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	processCmd.Flags().DurationVar(&processTimeout, "timeout", 3*time.Minute, "overall timeout")
	processCmd.Flags().StringVar(&sourceURL, "source-url", "", "source URL of a local file, used to pick the cleaning adapter")
	processCmd.Flags().StringVar(&listingEmenta, "ementa", "", "ementa known from a listing, used when the page has none")

	addFetchFlags(processCmd)
	addPipelineFlags(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	target := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
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

	if verbose {
		fmt.Fprintf(os.Stderr, "Processing: %s\n", target)
		fmt.Fprintf(os.Stderr, "Cache: %v  Oracle: %s\n\n", cfg.Cache.Enabled, oracleLabel(cfg))
	}

	var act *model.StructuredAct
	if isRemote(target) {
		act, err = p.ProcessRecord(ctx, model.ActRecord{SourceURL: target, Abstract: listingEmenta})
	} else {
		var raw string
		raw, err = readSource(target)
		if err != nil {
			return err
		}
		act, err = p.Process(ctx, pipeline.Input{
			Raw:         raw,
			URL:         sourceURL,
			ContentType: contentTypeFor(target),
			Ementa:      listingEmenta,
		})
	}
	if act == nil {
		return fmt.Errorf("process failed: %w", err)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ %v\n", err)
	}

	if err := p.RenderAct(act, outJSON, outMD, verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	return nil
}

func isRemote(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}

func readSource(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".htm", ".html":
		return "text/html"
	case ".txt", ".md":
		return "text/plain"
	}
	return ""
}

func oracleLabel(cfg *model.Config) string {
	if cfg.LLM.Provider == "" {
		return "disabled"
	}
	if cfg.LLM.Model != "" {
		return cfg.LLM.Provider + "/" + cfg.LLM.Model
	}
	return cfg.LLM.Provider
}
