package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/psi-indicator-engine/internal/encounter"
	"github.com/psi-indicator-engine/internal/engine"
	"github.com/psi-indicator-engine/internal/indicator"
	"github.com/psi-indicator-engine/internal/reference"
	"github.com/psi-indicator-engine/internal/results"
)

type evaluateOptions struct {
	referenceFile string
	input         string
	output        string
	storePath     string
	workers       int
	summaryOnly   bool
}

type evaluateOutput struct {
	Result  *engine.Result            `json:"result"`
	Summary []engine.IndicatorSummary `json:"summary"`
}

func evaluateCmd(root *rootOptions) *cobra.Command {
	opts := &evaluateOptions{}

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a claim-template CSV against every indicator",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(cmd.Context(), cmd, root, opts)
		},
	}
	cmd.Flags().StringVar(&opts.referenceFile, "reference", "configs/reference/psi_2024.yaml", "reference bundle (YAML or JSON)")
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "claim CSV file, - for stdin")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the JSON result to this file instead of stdout")
	cmd.Flags().StringVar(&opts.storePath, "store", "", "also save the batch to this SQLite database")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "worker count, 0 for one per CPU")
	cmd.Flags().BoolVar(&opts.summaryOnly, "summary", false, "print a per-indicator table instead of JSON")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runEvaluate(ctx context.Context, cmd *cobra.Command, root *rootOptions, opts *evaluateOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := root.logger(cmd)

	registry := indicator.NewRegistry()
	holder := reference.NewHolder(logger, engine.ReferenceValidator(registry))
	if _, err := holder.Reload(ctx, reference.NewFileSource(opts.referenceFile)); err != nil {
		return err
	}

	rows, err := readRows(cmd.InOrStdin(), opts.input)
	if err != nil {
		return err
	}

	eng, err := engine.New(registry, holder, engine.WithWorkers(opts.workers), engine.WithLogger(logger))
	if err != nil {
		return err
	}

	result, err := eng.EvaluateRows(ctx, rows)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}
	logger.WithField("batch_id", result.BatchID).
		WithField("encounters", len(result.Encounters)).
		WithField("unevaluable", result.UnevaluableCount()).
		Info("Batch evaluated")

	if opts.storePath != "" {
		store, err := results.NewSQLiteStore(opts.storePath)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.SaveBatch(ctx, result); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if opts.summaryOnly {
		if err := writeSummary(out, result); err != nil {
			return err
		}
	} else {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(evaluateOutput{Result: result, Summary: result.Summary()}); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
	}

	// Configuration errors still produce a result, but the run fails
	return result.Err()
}

func readRows(stdin io.Reader, path string) ([]encounter.RawRow, error) {
	in := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open claim file: %w", err)
		}
		defer f.Close()
		in = f
	}

	reader, err := encounter.NewReader(in)
	if err != nil {
		return nil, err
	}
	return reader.ReadAll()
}

func writeSummary(w io.Writer, result *engine.Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "batch %s, %d encounters, %d unevaluable\n", result.BatchID, len(result.Encounters), result.UnevaluableCount())
	fmt.Fprintln(tw, "INDICATOR\tEVALUATED\tNOT IN POP\tEXCLUDED\tDENOMINATOR\tNUMERATOR\tUNEVALUABLE")
	for _, s := range result.Summary() {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
			s.Indicator, s.Evaluated, s.NotInPopulation, s.Excluded, s.Denominator, s.Numerator, s.Unevaluable)
	}
	return tw.Flush()
}

func indicatorsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "indicators",
		Short: "List the supported indicators",
		RunE: func(cmd *cobra.Command, args []string) error {
			type row struct {
				ID       string   `json:"id"`
				Name     string   `json:"name"`
				CodeSets []string `json:"code_sets"`
			}
			rules := indicator.NewRegistry().All()
			list := make([]row, len(rules))
			for i, r := range rules {
				list[i] = row{ID: string(r.ID()), Name: r.Name(), CodeSets: r.CodeSets()}
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, r := range list {
				fmt.Fprintf(tw, "%s\t%s\n", r.ID, r.Name)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON including code sets")
	return cmd
}
