package main

import (
	"context"
	"coop-loans/internal/batch"
	"coop-loans/internal/config"
	"coop-loans/internal/domain/loan"
	"coop-loans/internal/domain/penalty"
	"coop-loans/internal/event"
	"coop-loans/internal/infrastructure/database/postgres"
	"coop-loans/internal/infrastructure/logging"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var configPath string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "coopctl",
		Short:         "Cooperative loans admin tool",
		Long:          `Operational commands for the cooperative loans service: migrations, penalty sweeps, schedule previews and audit event tailing.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".", "Directory containing config.yml")

	rootCmd.AddCommand(migrateCmd(), penaltiesCmd(), scheduleCmd(), eventsCmd())
	return rootCmd
}

func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, logging.NewLogger(cfg.Logger), nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			return postgres.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath, logger)
		},
	}, &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			return postgres.RunMigrationsDown(cfg.Database.URL, cfg.Database.MigrationsPath, logger)
		},
	})
	return cmd
}

func penaltiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "penalties",
		Short: "Penalty operations",
	}

	var asOf string
	sweep := &cobra.Command{
		Use:   "sweep",
		Short: "Mark overdue installments and apply late-payment penalties once",
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseAsOf(asOf, time.Now())
			if err != nil {
				return err
			}
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			pool, err := postgres.NewConnectionPool(ctx, cfg.Database, logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := penalty.NewService(
				postgres.NewPenaltyRepository(pool, logger),
				event.NewNopPublisher(logger),
				cfg.Loan.LatePenalty(),
				cfg.Batch.Workers,
				logger,
			)
			job := batch.NewPenaltySweepJob(svc, cfg.Batch.PenaltySweepTimeout, logger)
			if err := job.RunAsOf(ctx, day); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Penalty sweep completed as of %s\n", day.Format(time.DateOnly))
			return nil
		},
	}
	sweep.Flags().StringVar(&asOf, "as-of", "", "Sweep date (YYYY-MM-DD), defaults to today in UTC")

	cmd.AddCommand(sweep)
	return cmd
}

func parseAsOf(value string, now time.Time) (time.Time, error) {
	if value == "" {
		y, m, d := now.UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	day, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--as-of must be YYYY-MM-DD: %w", err)
	}
	return day, nil
}

func eventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Audit event tools",
	}

	var queue string
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Print loan and penalty events from the broker as JSON lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if !cfg.RabbitMQ.Enabled {
				return fmt.Errorf("rabbitmq is disabled in configuration")
			}

			conn, err := event.Dial(cfg.RabbitMQ, logger)
			if err != nil {
				return err
			}
			defer conn.Close()

			handler := event.NewAuditHandler(event.NewJSONLineSink(cmd.OutOrStdout()), logger)
			consumer, err := event.NewConsumer(conn, cfg.RabbitMQ.ExchangeName, queue, "coopctl-tail", event.AuditBindings, handler.HandleDelivery, logger)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := consumer.Start(ctx); err != nil {
				return err
			}
			select {
			case <-ctx.Done():
			case <-consumer.Done():
			}
			consumer.Stop()
			return nil
		},
	}
	tail.Flags().StringVar(&queue, "queue", "", "Durable queue to consume from; a temporary queue is used when empty")

	cmd.AddCommand(tail)
	return cmd
}

func scheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Repayment schedule tools",
	}

	var amount, rate, savings, firstDue string
	var tenure int
	preview := &cobra.Command{
		Use:   "preview",
		Short: "Print the repayment schedule for the given terms",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := scheduleInput(amount, rate, savings, firstDue, tenure)
			if err != nil {
				return err
			}
			schedule, err := loan.GenerateSchedule(in)
			if err != nil {
				return err
			}
			return printSchedule(cmd.OutOrStdout(), schedule)
		},
	}
	preview.Flags().StringVar(&amount, "amount", "", "Principal amount")
	preview.Flags().StringVar(&rate, "rate", "", "Annual interest rate in percent")
	preview.Flags().IntVar(&tenure, "tenure", 0, "Tenure in months")
	preview.Flags().StringVar(&savings, "savings", "0", "Fixed monthly savings")
	preview.Flags().StringVar(&firstDue, "first-due", "", "First due date (YYYY-MM-DD)")
	_ = preview.MarkFlagRequired("amount")
	_ = preview.MarkFlagRequired("rate")
	_ = preview.MarkFlagRequired("tenure")
	_ = preview.MarkFlagRequired("first-due")

	cmd.AddCommand(preview)
	return cmd
}

func scheduleInput(amount, rate, savings, firstDue string, tenure int) (loan.ScheduleInput, error) {
	a, err := decimal.NewFromString(amount)
	if err != nil {
		return loan.ScheduleInput{}, fmt.Errorf("--amount: %w", err)
	}
	r, err := decimal.NewFromString(rate)
	if err != nil {
		return loan.ScheduleInput{}, fmt.Errorf("--rate: %w", err)
	}
	s, err := decimal.NewFromString(savings)
	if err != nil {
		return loan.ScheduleInput{}, fmt.Errorf("--savings: %w", err)
	}
	due, err := time.Parse(time.DateOnly, firstDue)
	if err != nil {
		return loan.ScheduleInput{}, fmt.Errorf("--first-due must be YYYY-MM-DD: %w", err)
	}
	return loan.ScheduleInput{
		Amount:         a,
		AnnualRate:     r,
		TenureMonths:   tenure,
		MonthlySavings: s,
		FirstDueDate:   due,
	}, nil
}

func printSchedule(out io.Writer, schedule []loan.Installment) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "#\tDue\tOpening\tPrincipal\tInterest\tSavings\tTotal\tClosing\t")
	total := decimal.Zero
	for _, inst := range schedule {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			inst.InstallmentNumber,
			inst.DueDate.Format(time.DateOnly),
			inst.OpeningBalance.StringFixed(2),
			inst.PrincipalAmount.StringFixed(2),
			inst.InterestAmount.StringFixed(2),
			inst.SavingsAmount.StringFixed(2),
			inst.TotalInstallment.StringFixed(2),
			inst.ClosingBalance.StringFixed(2),
		)
		total = total.Add(inst.TotalInstallment)
	}
	fmt.Fprintf(w, "\t\t\t\t\t\t%s\t\t\n", total.StringFixed(2))
	return w.Flush()
}
