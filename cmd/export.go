package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/referralgraph/referralgraph/internal/dependency"
)

var (
	exportOutDir    string
	exportScheduled bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the graph as Power BI datasets",
	Long: `Export the referral network graph to CSV and JSON datasets for
Power BI. Runs once by default; --scheduled keeps running on the cron
schedule from the config.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutDir, "out", "o", "", "Output directory (overrides config)")
	exportCmd.Flags().BoolVar(&exportScheduled, "scheduled", false, "Run on the configured cron schedule")
}

func runExport(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if exportOutDir != "" {
		cfg.Export.OutputDir = exportOutDir
	}

	container, err := dependency.New(cfg)
	if err != nil {
		return err
	}
	exporter := container.Exporter()

	if exportScheduled {
		if cfg.Export.Schedule == "" {
			return fmt.Errorf("no export schedule configured (set export.schedule or EXPORT_SCHEDULE)")
		}
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		fmt.Printf("%s Scheduled export (%s), Ctrl+C to stop\n", logo, cfg.Export.Schedule)
		if err := exporter.Schedule(ctx, cfg.Export.Schedule); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}

	summary, err := exporter.Run(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("%s Export complete: %s\n\n", logo, summary.OutputDir)
	for name, count := range summary.Counts {
		fmt.Printf("  %-20s %d rows\n", name, count)
	}
	return nil
}
