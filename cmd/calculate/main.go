// Command calculate runs one allowance calculation from spreadsheets and
// exports the report without the review step.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/garyjia/basket-allowance/internal/config"
	"github.com/garyjia/basket-allowance/internal/container"
	"github.com/garyjia/basket-allowance/internal/models"
	"github.com/garyjia/basket-allowance/internal/review"
	"github.com/garyjia/basket-allowance/pkg/utils"
	"go.uber.org/zap"
)

type options struct {
	employees  string
	absences   string
	categories string
	cutoff     time.Time
	dryRun     bool
}

func main() {
	var (
		configPath     = flag.String("config", "configs/config.yaml", "path to the configuration file")
		employeesPath  = flag.String("employees", "", "employees workbook (required)")
		absencesPath   = flag.String("absences", "", "absences workbook (required)")
		cutoffText     = flag.String("cutoff", "", "admission cutoff date, dd/mm/yyyy (required)")
		categoriesPath = flag.String("categories", "", "known-category workbook to load before the run")
		dryRun         = flag.Bool("dry-run", false, "print the summary without exporting")
	)
	flag.Parse()

	if *employeesPath == "" || *absencesPath == "" || *cutoffText == "" {
		flag.Usage()
		os.Exit(2)
	}
	cutoff, err := utils.ParseCutoffDate(*cutoffText)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the summary
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: "stderr",
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := options{
		employees:  *employeesPath,
		absences:   *absencesPath,
		categories: *categoriesPath,
		cutoff:     cutoff,
		dryRun:     *dryRun,
	}
	if err := run(ctx, cfg, logger, opts, os.Stdout); err != nil {
		logger.Error("Calculation failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts options, out io.Writer) error {
	c, err := container.NewContainer(cfg, logger)
	if err != nil {
		return err
	}
	if err := c.Start(ctx); err != nil {
		return err
	}
	defer c.Close()
	services := c.Services()

	if opts.categories != "" {
		f, err := os.Open(opts.categories)
		if err != nil {
			return fmt.Errorf("failed to open categories: %w", err)
		}
		categories, warnings, err := services.Category.Upload(ctx, f)
		f.Close()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Known categories loaded: %d (%d rows skipped)\n", len(categories), len(warnings))
	}

	employees, err := os.Open(opts.employees)
	if err != nil {
		return fmt.Errorf("failed to open employees: %w", err)
	}
	defer employees.Close()

	absences, err := os.Open(opts.absences)
	if err != nil {
		return fmt.Errorf("failed to open absences: %w", err)
	}
	defer absences.Close()

	sess, err := services.Calculation.StartSession(ctx, employees, absences, opts.cutoff)
	if err != nil {
		return err
	}
	printSummary(out, sess)

	if opts.dryRun {
		return nil
	}

	result, err := services.Export.Export(ctx, sess.ID)
	if err != nil {
		return err
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
	fmt.Fprintf(out, "Report %s written to %s\n", result.Export.ReportNumber, result.Export.FilePath)
	return nil
}

func printSummary(out io.Writer, sess *review.Session) {
	sum := review.Summarize(sess.Store.EffectiveAll())

	fmt.Fprintf(out, "Cutoff: %s\n", sess.Cutoff.Format(utils.CutoffLayout))
	fmt.Fprintf(out, "Employees: %d (excluded %d)\n", sum.Shown, len(sess.Excluded))
	for _, st := range models.AllStatuses {
		fmt.Fprintf(out, "  %-17s %d\n", st.Label()+":", sum.ByStatus[st])
	}
	fmt.Fprintf(out, "Total amount: R$ %s\n", sum.TotalAmount.StringFixed(2))

	for _, e := range sess.Excluded {
		fmt.Fprintf(out, "excluded %d %s: %s\n", e.Employee.ID, e.Employee.Name, e.Reason)
	}
	if n := len(sess.RowWarnings); n > 0 {
		fmt.Fprintf(out, "Row warnings: %d\n", n)
	}
	if n := len(sess.UnknownCategories); n > 0 {
		fmt.Fprintf(out, "Rows with unknown categories: %d\n", n)
	}
}
