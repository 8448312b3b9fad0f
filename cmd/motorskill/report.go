package main

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mind-engage/motorskill/internal/assessment"
	"github.com/mind-engage/motorskill/internal/report"
	"github.com/mind-engage/motorskill/internal/storage"
)

func newReportCommand() *cobra.Command {
	var pdfOut string
	var archive bool
	cmd := &cobra.Command{
		Use:   "report <subjectID> <YYYY-MM-DD>",
		Short: "Print the normative report of one evaluation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			date, err := assessment.ParseDate(args[1])
			if err != nil {
				return err
			}
			a, err := openApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			rep, err := a.norms.ReportFor(ctx, args[0], date, nil)
			if err != nil {
				return fmt.Errorf("report %s %s: %w", args[0], args[1], err)
			}
			report.WriteTable(cmd.OutOrStdout(), rep)
			if pdfOut == "" && !archive {
				return nil
			}

			hist, err := a.norms.History(ctx, args[0])
			if err != nil {
				logger.Warn("history unavailable", zap.Error(err))
			}
			data, err := report.PDF(report.Input{
				Protocol: a.protocol,
				Record:   rep.Target,
				Report:   rep,
				History:  hist,
				Now:      time.Now(),
				Log:      logger,
			})
			if err != nil {
				return err
			}
			if pdfOut != "" {
				if err := os.WriteFile(pdfOut, data, 0o644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "pdf written to %s\n", pdfOut)
			}
			if archive {
				key, err := a.blobs.Put(storage.ReportKey(rep.Target.SubjectID, rep.Target.Date()), bytes.NewReader(data))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "archived as %s\n", key)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&pdfOut, "pdf", "", "also write the PDF report to this file")
	cmd.Flags().BoolVar(&archive, "archive", false, "store the PDF in the blob store")
	return cmd
}
