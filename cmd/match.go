package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/firmlink/internal/config"
	"github.com/sells-group/firmlink/internal/index"
	"github.com/sells-group/firmlink/internal/ingest"
	"github.com/sells-group/firmlink/internal/linker"
	"github.com/sells-group/firmlink/internal/model"
	"github.com/sells-group/firmlink/internal/normalize"
	"github.com/sells-group/firmlink/internal/report"
	"github.com/sells-group/firmlink/internal/store"
	"github.com/sells-group/firmlink/internal/validation"
)

// matchOptions are the match command's flags.
type matchOptions struct {
	Entities  string
	Firms     string
	Overrides string
	Out       string
	Sample    string
	Save      bool
	Disable   []string
}

var matchOpts matchOptions

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Link an entity table to a firm registry",
	Long:  "Runs the tiered linker over every entity and writes one match row per entity. Optionally persists the run and writes a validation sheet.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runMatch(ctx, matchOpts, cmd.OutOrStdout())
	},
}

func init() {
	f := matchCmd.Flags()
	f.StringVar(&matchOpts.Entities, "entities", "", "entity table (csv, tsv or xlsx)")
	f.StringVar(&matchOpts.Firms, "firms", "", "firm registry table (csv, tsv or xlsx)")
	f.StringVar(&matchOpts.Overrides, "overrides", "", "manual override table (csv or yaml)")
	f.StringVar(&matchOpts.Out, "out", "", "write the match table here (csv or xlsx)")
	f.StringVar(&matchOpts.Sample, "sample", "", "write a validation sheet here (csv or xlsx)")
	f.BoolVar(&matchOpts.Save, "save", false, "persist the run and its matches to the store")
	f.StringSliceVar(&matchOpts.Disable, "disable", nil, "strategies to disable in addition to match.disabled_strategies")
	_ = matchCmd.MarkFlagRequired("entities")
	_ = matchCmd.MarkFlagRequired("firms")
	rootCmd.AddCommand(matchCmd)
}

// newNormalizer builds the normalizer for the configured suffix set.
// Configured suffixes replace the default set.
func newNormalizer(m config.MatchConfig) *normalize.Normalizer {
	if len(m.LegalSuffixes) == 0 {
		return normalize.Default()
	}
	return normalize.New(m.LegalSuffixes)
}

func runMatch(ctx context.Context, opts matchOptions, out io.Writer) error {
	log := zap.L().With(zap.String("component", "cmd.match"))

	mcfg := cfg.Match
	mcfg.DisabledStrategies = append(append([]string(nil), mcfg.DisabledStrategies...), opts.Disable...)
	run := *cfg
	run.Match = mcfg
	if err := run.Validate("match"); err != nil {
		return err
	}

	norm := newNormalizer(mcfg)
	entities, _, err := ingest.ReadEntities(ctx, opts.Entities, norm)
	if err != nil {
		return eris.Wrap(err, "match: read entities")
	}
	firms, _, err := ingest.ReadFirms(ctx, opts.Firms, norm)
	if err != nil {
		return eris.Wrap(err, "match: read firms")
	}

	var linkOpts []linker.Option
	if opts.Overrides != "" {
		ovs, _, err := ingest.ReadOverrides(ctx, opts.Overrides)
		if err != nil {
			return eris.Wrap(err, "match: read overrides")
		}
		linkOpts = append(linkOpts, linker.WithOverrides(ovs))
	}

	lk, err := linker.New(index.Build(firms, norm), mcfg, linkOpts...)
	if err != nil {
		return err
	}

	var (
		st     store.Store
		record *model.Run
	)
	if opts.Save {
		if st, err = openStore(ctx); err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		snapshot, err := json.Marshal(mcfg)
		if err != nil {
			return eris.Wrap(err, "match: snapshot config")
		}
		if record, err = st.CreateRun(ctx, snapshot); err != nil {
			return eris.Wrap(err, "match: create run")
		}
		log = log.With(zap.String("run_id", record.ID))
	}

	res, err := lk.Run(ctx, entities)
	if err != nil {
		if record != nil {
			record.Status = model.RunStatusFailed
			if uErr := st.UpdateRun(context.WithoutCancel(ctx), record); uErr != nil {
				log.Warn("failed to mark run failed", zap.Error(uErr))
			}
		}
		return eris.Wrap(err, "match: link")
	}

	if opts.Out != "" {
		if err := report.WriteMatches(opts.Out, res.Matches); err != nil {
			return err
		}
		log.Info("match table written", zap.String("path", opts.Out), zap.Int("rows", len(res.Matches)))
	}

	if record != nil {
		if _, err := st.SaveMatches(ctx, record.ID, res.Matches); err != nil {
			return eris.Wrap(err, "match: save matches")
		}
		store.Summarize(record, res.Matches)
		record.Status = model.RunStatusComplete
		if err := st.UpdateRun(ctx, record); err != nil {
			return eris.Wrap(err, "match: update run")
		}
	}

	if opts.Sample != "" {
		v := cfg.Validation
		records := validation.NewSampler(v.Stratify, v.MinPerStratum).Sample(res.Matches, v.SampleSize, v.SampleSeed)
		if err := report.WriteSample(opts.Sample, records, report.NamesFrom(entities, firms)); err != nil {
			return err
		}
		if record != nil {
			if err := st.SaveValidation(ctx, record.ID, records); err != nil {
				return eris.Wrap(err, "match: save validation sample")
			}
		}
		log.Info("validation sheet written", zap.String("path", opts.Sample), zap.Int("rows", len(records)))
	}

	report.WriteStats(out, res.Stats)
	if record != nil {
		_, _ = fmt.Fprintf(out, "\nRun: %s\n", record.ID)
	}
	return nil
}
