package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"go-lab-sample-tracker/internal/connectors/store"
	"go-lab-sample-tracker/internal/tracking"
)

var (
	reportOutput string
	samplePrefix string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create missing tables and indexes in the configured database",
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := store.NewStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		logger.Info("schema up to date", zap.String("driver", string(st.Dialect())))
		return nil
	},
}

var reportCmd = &cobra.Command{
	Use:   "report [shift|fibre-id|lead-coc] [shift-id]",
	Short: "Render a shift document to a PDF file",
	Long: `Renders one of the shift documents without running the server.

Example:
  labtracker report shift 3f0c2a8e-... -o reports/
  labtracker report lead-coc 3f0c2a8e-... -o coc.pdf`,
	Args: cobra.ExactArgs(2),
	RunE: runReport,
}

var nextSampleCmd = &cobra.Command{
	Use:   "next-sample [project-id]",
	Short: "Preview the next sample ID for a project and prefix",
	Args:  cobra.ExactArgs(1),
	RunE:  runNextSample,
}

func init() {
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", ".", "output file, or directory for the default file name")
	nextSampleCmd.Flags().StringVar(&samplePrefix, "prefix", "AM", "sample ID prefix")
}

func openService() (*tracking.Service, func(), error) {
	st, err := store.NewStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	svc := tracking.NewService(st, settings, cfg.AllocationRetries, logger.Named("tracking"))
	return svc, func() { _ = st.Close() }, nil
}

func runReport(cmd *cobra.Command, args []string) error {
	kind, err := tracking.ParseReportKind(args[0])
	if err != nil {
		return err
	}
	svc, closeFn, err := openService()
	if err != nil {
		return err
	}
	defer closeFn()

	rendered, err := svc.RenderReport(cmd.Context(), kind, args[1])
	if err != nil {
		return err
	}

	path := reportOutput
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, rendered.Filename)
	}
	if err := os.WriteFile(path, rendered.Data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func runNextSample(cmd *cobra.Command, args []string) error {
	svc, closeFn, err := openService()
	if err != nil {
		return err
	}
	defer closeFn()

	next, err := svc.NextSampleNumber(cmd.Context(), args[0], samplePrefix)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), next.FullSampleID)
	return nil
}
