package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/firmlink/internal/ingest"
	"github.com/sells-group/firmlink/internal/model"
	"github.com/sells-group/firmlink/internal/report"
	"github.com/sells-group/firmlink/internal/validation"
)

type sampleOptions struct {
	RunID    string
	Matches  string
	Entities string
	Firms    string
	Out      string
	Size     int
	Seed     uint64
}

var sampleOpts sampleOptions

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Draw a reproducible validation sample from a match table",
	Long:  "Samples matched rows (stratified by tier, method and confidence bucket unless disabled) and writes a labeling sheet. Samples of stored runs are persisted for the labeling API.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !cmd.Flags().Changed("size") {
			sampleOpts.Size = cfg.Validation.SampleSize
		}
		if !cmd.Flags().Changed("seed") {
			sampleOpts.Seed = cfg.Validation.SampleSeed
		}
		return runSample(cmd.Context(), sampleOpts, cmd.OutOrStdout())
	},
}

func init() {
	f := sampleCmd.Flags()
	f.StringVar(&sampleOpts.RunID, "run", "", "stored run to sample")
	f.StringVar(&sampleOpts.Matches, "matches", "", "match table file to sample instead of a stored run")
	f.StringVar(&sampleOpts.Entities, "entities", "", "entity table, for display names on the sheet")
	f.StringVar(&sampleOpts.Firms, "firms", "", "firm table, for legal names on the sheet")
	f.StringVar(&sampleOpts.Out, "out", "", "write the validation sheet here (csv or xlsx)")
	f.IntVar(&sampleOpts.Size, "size", 0, "sample size (default validation.sample_size)")
	f.Uint64Var(&sampleOpts.Seed, "seed", 0, "sample seed (default validation.sample_seed)")
	sampleCmd.MarkFlagsMutuallyExclusive("run", "matches")
	sampleCmd.MarkFlagsOneRequired("run", "matches")
	rootCmd.AddCommand(sampleCmd)
}

func runSample(ctx context.Context, opts sampleOptions, out io.Writer) error {
	if err := cfg.Validate("sample"); err != nil {
		return err
	}
	if opts.Size <= 0 {
		return eris.New("sample: size must be > 0")
	}

	if opts.Matches != "" {
		matches, _, err := ingest.ReadMatches(ctx, opts.Matches)
		if err != nil {
			return eris.Wrap(err, "sample: read matches")
		}
		return writeSample(ctx, opts, draw(matches, opts), out)
	}

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	matches, err := st.ListMatches(ctx, opts.RunID)
	if err != nil {
		return eris.Wrap(err, "sample: list matches")
	}
	if len(matches) == 0 {
		return eris.Errorf("sample: run %s has no stored matches", opts.RunID)
	}
	records := draw(matches, opts)
	if err := st.SaveValidation(ctx, opts.RunID, records); err != nil {
		return eris.Wrap(err, "sample: save validation")
	}
	return writeSample(ctx, opts, records, out)
}

func draw(matches []model.Match, opts sampleOptions) []model.ValidationRecord {
	v := cfg.Validation
	return validation.NewSampler(v.Stratify, v.MinPerStratum).Sample(matches, opts.Size, opts.Seed)
}

func writeSample(ctx context.Context, opts sampleOptions, records []model.ValidationRecord, out io.Writer) error {
	if opts.Out != "" {
		names, err := loadNames(ctx, opts.Entities, opts.Firms)
		if err != nil {
			return err
		}
		if err := report.WriteSample(opts.Out, records, names); err != nil {
			return err
		}
	} else if err := report.WriteSampleCSV(out, records, nil); err != nil {
		return err
	}

	strata := make(map[string]int)
	for _, r := range records {
		strata[r.Stratum]++
	}
	_, _ = fmt.Fprintf(out, "Sampled %d rows across %d strata\n", len(records), len(strata))
	return nil
}

// loadNames reads the optional entity and firm tables for sheet labels.
func loadNames(ctx context.Context, entitiesPath, firmsPath string) (*report.Names, error) {
	if entitiesPath == "" && firmsPath == "" {
		return nil, nil
	}
	var (
		entities []model.Entity
		firms    []model.Firm
		err      error
	)
	norm := newNormalizer(cfg.Match)
	if entitiesPath != "" {
		if entities, _, err = ingest.ReadEntities(ctx, entitiesPath, norm); err != nil {
			return nil, eris.Wrap(err, "sample: read entities")
		}
	}
	if firmsPath != "" {
		if firms, _, err = ingest.ReadFirms(ctx, firmsPath, norm); err != nil {
			return nil, eris.Wrap(err, "sample: read firms")
		}
	}
	return report.NamesFrom(entities, firms), nil
}
