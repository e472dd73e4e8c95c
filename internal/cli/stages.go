package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/estatuto/internal/model"
	"github.com/ppiankov/estatuto/internal/pipeline"
)

// the stage commands run part of the cycle over a local file and print the
// stage result as JSON on stdout

var (
	stageSourceURL string
	stageLabel     string
	stageSpeech    bool
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize <file|->",
	Short: "Print the normalized text of a page",
	Args:  cobra.ExactArgs(1),
	RunE:  stageRunner(stageNormalize),
}

var segmentCmd = &cobra.Command{
	Use:   "segment <file|->",
	Short: "Split a page into articles, paragraphs, items and clauses",
	Args:  cobra.ExactArgs(1),
	RunE:  stageRunner(stageSegment),
}

var validateCmd = &cobra.Command{
	Use:   "validate <file|->",
	Short: "Validate every element of a page",
	Long: `Validate normalizes and segments a page, then checks each element for
numbering, duplicated markers, truncation and text integrity. The act is
approved when the share of ok elements reaches the configured threshold.`,
	Args: cobra.ExactArgs(1),
	RunE: stageRunner(stageValidate),
}

var ementaCmd = &cobra.Command{
	Use:   "ementa <file|->",
	Short: "Extract the ementa of a page",
	Args:  cobra.ExactArgs(1),
	RunE:  stageRunner(stageEmenta),
}

func init() {
	for _, c := range []*cobra.Command{normalizeCmd, segmentCmd, validateCmd, ementaCmd} {
		c.Flags().StringVar(&stageSourceURL, "source-url", "", "source URL of the file, used to pick the cleaning adapter")
		rootCmd.AddCommand(c)
	}
	normalizeCmd.Flags().BoolVar(&stageSpeech, "speech", false, "expand legal abbreviations for text read aloud")
	ementaCmd.Flags().StringVar(&stageLabel, "label", "", "act label given to the oracle, e.g. \"Lei nº 8.666/1993\"")
	ementaCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "oracle provider for the AI tier")
	ementaCmd.Flags().StringVar(&llmModel, "llm-model", "", "oracle model name")
}

type stageFunc func(ctx context.Context, p *pipeline.Pipeline, in pipeline.Input) (any, error)

func stageRunner(run stageFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		cfg, err := configFor(cmd)
		if err != nil {
			return err
		}
		// stage commands never persist
		cfg.Store = model.StoreConfig{}

		raw, err := readSource(args[0])
		if err != nil {
			return err
		}

		p, closeStore, err := buildPipeline(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		out, err := run(ctx, p, pipeline.Input{Raw: raw, URL: stageSourceURL, ContentType: contentTypeFor(args[0])})
		if err != nil {
			return err
		}
		return writeJSON(os.Stdout, out)
	}
}

func stageNormalize(_ context.Context, p *pipeline.Pipeline, in pipeline.Input) (any, error) {
	if stageSpeech {
		return p.SpeechStage(in)
	}
	return p.NormalizeStage(in)
}

func stageSegment(_ context.Context, p *pipeline.Pipeline, in pipeline.Input) (any, error) {
	text, err := p.NormalizeStage(in)
	if err != nil {
		return nil, err
	}
	return p.SegmentStage(text.Value), nil
}

func stageValidate(_ context.Context, p *pipeline.Pipeline, in pipeline.Input) (any, error) {
	elements, err := segmentedElements(p, in)
	if err != nil {
		return nil, err
	}
	return p.ValidateStage(elements), nil
}

func stageEmenta(ctx context.Context, p *pipeline.Pipeline, in pipeline.Input) (any, error) {
	elements, err := segmentedElements(p, in)
	if err != nil {
		return nil, err
	}
	return p.EmentaStage(ctx, in.Raw, stageLabel, elements), nil
}

func segmentedElements(p *pipeline.Pipeline, in pipeline.Input) ([]model.DocumentElement, error) {
	text, err := p.NormalizeStage(in)
	if err != nil {
		return nil, err
	}
	return p.SegmentStage(text.Value).Value.Elements, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
