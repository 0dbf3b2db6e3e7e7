package cli

import (
	"github.com/spf13/cobra"

	"github.com/flint-rules/flint/engine"
	"github.com/flint-rules/flint/facts"
	"github.com/flint-rules/flint/rule"
	"github.com/flint-rules/flint/ruledef"
	"github.com/flint-rules/flint/trace"
)

// FireOptions holds flags for the fire command.
type FireOptions struct {
	FactsPath         string
	TracePath         string
	Chain             bool
	StopApplied       bool
	StopNonTriggered  bool
	StopFailed        bool
	PriorityThreshold int
	MaxPasses         int
}

// NewFireCommand creates the fire command.
func NewFireCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FireOptions{}

	cmd := &cobra.Command{
		Use:   "fire <rules.yaml>",
		Short: "Fire rules against facts and print the final fact store",
		Long: `Fire a YAML rule document against an initial fact store.

By default a single sequential pass runs; --chain switches to forward
chaining, which repeats passes over the candidate rules until no rule's
condition holds. --trace records every engine transition to a SQLite file.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFire(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.FactsPath, "facts", "", "YAML file with the initial facts (default: empty store)")
	cmd.Flags().StringVar(&opts.TracePath, "trace", "", "record the run to a SQLite trace file")
	cmd.Flags().BoolVar(&opts.Chain, "chain", false, "fire to fixpoint with the forward-chaining engine")
	cmd.Flags().BoolVar(&opts.StopApplied, "stop-on-applied", false, "stop a pass after the first applied rule")
	cmd.Flags().BoolVar(&opts.StopNonTriggered, "stop-on-non-triggered", false, "stop a pass after the first non-triggered rule")
	cmd.Flags().BoolVar(&opts.StopFailed, "stop-on-failed", false, "stop a pass after the first failed rule")
	cmd.Flags().IntVar(&opts.PriorityThreshold, "priority-threshold", 0, "skip rules with priority above this value (0 = no cutoff)")
	cmd.Flags().IntVar(&opts.MaxPasses, "max-passes", 0, "bound forward-chaining passes (0 = unbounded)")

	return cmd
}

func runFire(rootOpts *RootOptions, opts *FireOptions, rulesPath string, cmd *cobra.Command) error {
	set, initial, err := loadInputs(rulesPath, opts.FactsPath)
	if err != nil {
		return err
	}

	engineOpts := buildOptions(opts)

	if opts.TracePath != "" {
		rec, err := trace.OpenSQLite(opts.TracePath)
		if err != nil {
			return WrapExitError(ExitCommandError, "open trace file", err)
		}
		defer rec.Close()
		rh, runh := trace.Hooks(rec, trace.NewClock(), engine.UUIDv7Generator{})
		engineOpts = append(engineOpts, engine.WithRuleHooks(rh), engine.WithRunHooks(runh))
	}

	var final facts.Store
	if opts.Chain {
		final, err = engine.NewForwardChaining(engineOpts...).FireContext(cmd.Context(), set, initial)
	} else {
		final, err = engine.NewSequential(engineOpts...).FireContext(cmd.Context(), set, initial)
	}
	if err != nil {
		return WrapExitError(ExitFailure, "firing failed", err)
	}

	formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
	return formatter.Success(factsMap(final))
}

// loadInputs reads the rule document and optional facts file.
func loadInputs(rulesPath, factsPath string) (*rule.Set, facts.Store, error) {
	rules, err := ruledef.Load(rulesPath)
	if err != nil {
		return nil, facts.Store{}, WrapExitError(ExitCommandError, "load rules", err)
	}

	initial := facts.New()
	if factsPath != "" {
		initial, err = ruledef.LoadFacts(factsPath)
		if err != nil {
			return nil, facts.Store{}, WrapExitError(ExitCommandError, "load facts", err)
		}
	}
	return rule.NewSet(rules...), initial, nil
}

// buildOptions maps fire flags to engine options.
func buildOptions(opts *FireOptions) []engine.Option {
	var engineOpts []engine.Option
	if opts.StopApplied {
		engineOpts = append(engineOpts, engine.WithStopOnFirstApplied())
	}
	if opts.StopNonTriggered {
		engineOpts = append(engineOpts, engine.WithStopOnFirstNonTriggered())
	}
	if opts.StopFailed {
		engineOpts = append(engineOpts, engine.WithStopOnFirstFailed())
	}
	if opts.PriorityThreshold > 0 {
		engineOpts = append(engineOpts, engine.WithPriorityThreshold(opts.PriorityThreshold))
	}
	if opts.MaxPasses > 0 {
		engineOpts = append(engineOpts, engine.WithMaxPasses(opts.MaxPasses))
	}
	return engineOpts
}

// factsMap flattens a store for output encoding.
func factsMap(f facts.Store) map[string]any {
	m := make(map[string]any, f.Len())
	for k, v := range f.All() {
		m[k] = v
	}
	return m
}
