package cli

import (
	"github.com/spf13/cobra"

	"github.com/flint-rules/flint/engine"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	FactsPath string
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{}

	cmd := &cobra.Command{
		Use:   "check <rules.yaml>",
		Short: "Evaluate rule conditions without executing actions",
		Long: `Evaluate every rule's condition against the facts and print the
outcomes. Conditions that fail report false. Actions never run and the
fact store is never modified.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.FactsPath, "facts", "", "YAML file with the facts (default: empty store)")

	return cmd
}

func runCheck(rootOpts *RootOptions, opts *CheckOptions, rulesPath string, cmd *cobra.Command) error {
	set, f, err := loadInputs(rulesPath, opts.FactsPath)
	if err != nil {
		return err
	}

	results, err := engine.NewSequential().CheckContext(cmd.Context(), set, f)
	if err != nil {
		return WrapExitError(ExitFailure, "check failed", err)
	}

	formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
	return formatter.Success(results)
}
