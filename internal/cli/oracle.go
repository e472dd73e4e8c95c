package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/estatuto/internal/cache"
	"github.com/ppiankov/estatuto/internal/oracle"
)

var oracleCheckTimeout time.Duration

var oracleCmd = &cobra.Command{
	Use:   "oracle",
	Short: "Inspect the AI oracle used by the ementa and corrective tiers",
}

var oracleCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check every configured oracle credential",
	Long: `Check builds a provider for each credential of the pool, in fallback
order, and reports whether it answers. Fails when none does.

Example:
  estatuto oracle check --llm-provider openai
  OPENAI_API_KEY=sk-... OPENAI_API_KEY_2=sk-... estatuto oracle check --llm-provider openai`,
	Args: cobra.NoArgs,
	RunE: runOracleCheck,
}

func init() {
	rootCmd.AddCommand(oracleCmd)
	oracleCmd.AddCommand(oracleCheckCmd)

	oracleCheckCmd.Flags().DurationVar(&oracleCheckTimeout, "timeout", 20*time.Second, "overall timeout")
	oracleCheckCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "oracle provider (openai, anthropic, ollama)")
	oracleCheckCmd.Flags().StringVar(&llmModel, "llm-model", "", "oracle model name")
}

func runOracleCheck(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), oracleCheckTimeout)
	defer cancel()

	cfg, err := configFor(cmd)
	if err != nil {
		return err
	}

	pool := oracle.NewPoolFromConfig(cfg, cache.Noop{})
	if pool == nil {
		return fmt.Errorf("oracle disabled: set llm.provider and a credential")
	}

	statuses := pool.Check(ctx)
	available := printCredentialStatuses(statuses)
	if available == 0 {
		return fmt.Errorf("%w: none of %d credential(s) answered", oracle.ErrOracleUnavailable, len(statuses))
	}
	return nil
}

// printCredentialStatuses reports each credential on stderr and returns how
// many answered
func printCredentialStatuses(statuses []oracle.CredentialStatus) int {
	available := 0
	for _, st := range statuses {
		switch {
		case st.Err != nil:
			fmt.Fprintf(os.Stderr, "✗ #%d %s: %v\n", st.Index, st.Provider, st.Err)
		case st.Available:
			available++
			fmt.Fprintf(os.Stderr, "✓ #%d %s\n", st.Index, st.Provider)
		default:
			fmt.Fprintf(os.Stderr, "✗ #%d %s: not reachable\n", st.Index, st.Provider)
		}
	}
	return available
}
