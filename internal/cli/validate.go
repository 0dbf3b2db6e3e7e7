package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flint-rules/flint/ruledef"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool   `json:"valid" yaml:"valid"`
	Rules int    `json:"rules" yaml:"rules"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <rules.yaml>",
		Short: "Validate a rule document without firing",
		Long: `Validate a YAML rule document: YAML shape, name uniqueness, and
condition/value expression syntax. Nothing is evaluated against facts.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(rootOpts *RootOptions, rulesPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}

	rules, err := ruledef.Load(rulesPath)
	if err != nil {
		if ferr := formatter.Success(ValidationResult{Valid: false, Error: err.Error()}); ferr != nil {
			return ferr
		}
		return WrapExitError(ExitFailure, "validation failed", err)
	}

	if rootOpts.Format == "text" {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %d rules valid\n", len(rules))
		return nil
	}
	return formatter.Success(ValidationResult{Valid: true, Rules: len(rules)})
}
