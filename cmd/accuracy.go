package main

import (
	"context"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/firmlink/internal/ingest"
	"github.com/sells-group/firmlink/internal/model"
	"github.com/sells-group/firmlink/internal/report"
	"github.com/sells-group/firmlink/internal/validation"
)

type accuracyOptions struct {
	RunID       string
	Labels      string
	Format      string
	MinAccuracy float64
}

var accuracyOpts accuracyOptions

var accuracyCmd = &cobra.Command{
	Use:   "accuracy",
	Short: "Report measured accuracy of a labeled validation sample",
	Long:  "Computes accuracy with 95% Wilson intervals overall and per tier, method and confidence bucket. With both --run and --labels, the labeled sheet is imported into the stored run first.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !cmd.Flags().Changed("min-accuracy") {
			accuracyOpts.MinAccuracy = cfg.Validation.MinAccuracy
		}
		return runAccuracy(cmd.Context(), accuracyOpts, cmd.OutOrStdout())
	},
}

func init() {
	f := accuracyCmd.Flags()
	f.StringVar(&accuracyOpts.RunID, "run", "", "stored run whose sample to report")
	f.StringVar(&accuracyOpts.Labels, "labels", "", "labeled validation sheet (csv or xlsx)")
	f.StringVar(&accuracyOpts.Format, "format", "table", "output format: table or csv")
	f.Float64Var(&accuracyOpts.MinAccuracy, "min-accuracy", 0, "acceptance target (default validation.min_accuracy)")
	accuracyCmd.MarkFlagsOneRequired("run", "labels")
	rootCmd.AddCommand(accuracyCmd)
}

func runAccuracy(ctx context.Context, opts accuracyOptions, out io.Writer) error {
	if opts.Format != "table" && opts.Format != "csv" {
		return eris.Errorf("accuracy: unknown format %q", opts.Format)
	}

	var (
		records []model.ValidationRecord
		err     error
	)
	if opts.Labels != "" {
		if records, _, err = ingest.ReadValidation(ctx, opts.Labels); err != nil {
			return eris.Wrap(err, "accuracy: read labels")
		}
	}

	if opts.RunID != "" {
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if opts.Labels != "" {
			if err := st.SaveValidation(ctx, opts.RunID, records); err != nil {
				return eris.Wrap(err, "accuracy: import labels")
			}
		}
		if records, err = st.ListValidation(ctx, opts.RunID); err != nil {
			return eris.Wrap(err, "accuracy: list validation")
		}
	}

	rep := validation.ComputeAccuracy(records)
	if opts.Format == "csv" {
		return report.WriteAccuracyCSV(out, rep)
	}
	report.WriteAccuracy(out, rep, opts.MinAccuracy)
	return nil
}
