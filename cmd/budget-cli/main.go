package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/GiGurra/boa/pkg/boa"

	"budgetdash/internal/amqp"
	"budgetdash/internal/cli"
	"budgetdash/internal/config"
	"budgetdash/internal/core"
	"budgetdash/internal/dashboard"
	"budgetdash/internal/log"
)

type Params struct {
	Month  string `descr:"Month to show as YYYY-MM (default: current month)" optional:"true"`
	Format string `descr:"Output format" alts:"table,json,yaml" strict:"true" default:"table"`
	APIURL string `descr:"Budget API base URL (overrides BUDGET_API_URL)" name:"api-url" optional:"true"`
	Watch  bool   `descr:"Keep running and reprint on every dashboard event (needs AMQP_URL)" optional:"true"`
}

func main() {
	boa.NewCmdT[Params]("budget-cli").
		WithShort("Print a monthly budget snapshot").
		WithLong("Loads a month from the budget API the same way the web dashboard does and prints the overview, categories, transactions, week and trends as a table, JSON or YAML.").
		WithRunFunc(func(params *Params) {
			if err := run(params); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}).
		Run()
}

func run(params *Params) error {
	cli.LoadEnvFile()
	cfg := config.Load()
	if params.APIURL != "" {
		cfg.BudgetAPIURL = params.APIURL
	}
	// Logs go to stderr so that json and yaml output stay parseable.
	logger := cli.SetupLogger(cfg, os.Stderr)
	if err := cfg.Validate(); err != nil {
		return err
	}

	var month core.MonthKey
	if params.Month != "" {
		m, err := core.ParseMonthKey(params.Month)
		if err != nil {
			return err
		}
		month = m
	}

	client, err := cli.NewBudgetClient(cfg, logger)
	if err != nil {
		return err
	}

	opts := dashboard.OptionsFromConfig(cfg)
	opts.Logger = logger
	runner := cli.NewRunner(client, month, params.Format, os.Stdout, opts)

	ctx, cancel := cli.ShutdownContext(logger, nil)
	defer cancel()

	err = runner.Snapshot(ctx)
	if !params.Watch {
		return err
	}
	if err != nil && !errors.Is(err, cli.ErrIncomplete) {
		return err
	}

	if !cfg.EventsEnabled() {
		return errors.New("--watch needs AMQP_URL to be set")
	}
	events, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey, logger)
	if err != nil {
		return fmt.Errorf("connect to AMQP: %w", err)
	}
	defer events.Close()

	logger.Info("Watching dashboard events", log.FieldMonth, runner.Month().String())
	if err := runner.Watch(ctx, events); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
