package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mind-engage/motorskill/internal/assessment"
	"github.com/mind-engage/motorskill/internal/eventlog"
	"github.com/mind-engage/motorskill/internal/sheet"
)

func newImportCommand() *cobra.Command {
	var defaultSex, defaultBirth, evaluator string
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "Import assessments from a workbook (legacy Ad/Soyad/Tarih sheets included)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			opts := sheet.ImportOptions{Evaluator: evaluator}
			if defaultSex != "" {
				if opts.DefaultSex, err = assessment.ParseSex(defaultSex); err != nil {
					return err
				}
			}
			if defaultBirth != "" {
				if opts.DefaultBirthDate, err = assessment.ParseDate(defaultBirth); err != nil {
					return err
				}
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			recs, sum, err := sheet.Import(f, a.builder, opts)
			if err != nil {
				return err
			}

			var created, updated int
			var saveErr error
			if !dryRun {
				created, updated, saveErr = a.store.UpsertMany(ctx, recs)
				if saveErr == nil {
					a.events.Record(ctx, eventlog.TypeRecordsImported, args[0], "cli", map[string]interface{}{
						"summary": sum, "created": created, "updated": updated,
					})
				}
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "rows: %d  imported: %d  created: %d  updated: %d  skipped (no name): %d  invalid: %d\n",
				sum.Rows, sum.Imported, created, updated, sum.NoName, sum.Invalid)
			for _, e := range sum.Errors {
				fmt.Fprintf(out, "  row %d: %s\n", e.Row, e.Err)
			}
			if saveErr != nil {
				return fmt.Errorf("import rolled back, nothing saved: %w", saveErr)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&defaultSex, "default-sex", "", "sex for rows without one (F|M)")
	cmd.Flags().StringVar(&defaultBirth, "default-birth-date", "", "birth date for rows without one (YYYY-MM-DD)")
	cmd.Flags().StringVar(&evaluator, "evaluator", "", "evaluator recorded on imported rows")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse and report without saving")
	return cmd
}

func newExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file.xlsx>",
		Short: "Export every assessment to a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			recs, err := a.store.All(ctx)
			if err != nil {
				return err
			}
			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			if err := sheet.Export(f, a.protocol, recs); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			logger.Info("exported", zap.String("file", args[0]), zap.Int("records", len(recs)))
			return nil
		},
	}
}

func newResetCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every assessment record",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				fmt.Fprint(cmd.OutOrStdout(), "Delete ALL assessment records? type 'yes': ")
				line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if strings.TrimSpace(line) != "yes" {
					return fmt.Errorf("aborted")
				}
			}
			ctx := cmd.Context()
			a, err := openApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()
			n, err := a.store.Reset(ctx)
			if err != nil {
				return err
			}
			a.events.Record(ctx, eventlog.TypeRecordsReset, "*", "cli", map[string]int{"deleted": n})
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d records\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}
