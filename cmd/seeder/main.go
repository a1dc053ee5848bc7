package main

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/fkhayef/pantryledger/internal/config"
	"github.com/fkhayef/pantryledger/internal/database"
	"github.com/fkhayef/pantryledger/internal/expense"
	"github.com/fkhayef/pantryledger/internal/expense/split"
	"github.com/fkhayef/pantryledger/internal/household"
	"github.com/fkhayef/pantryledger/internal/money"
	"github.com/fkhayef/pantryledger/internal/notification"
)

func main() {
	householdID := pflag.String("household", "demo", "household to seed")
	memberList := pflag.StringSlice("member", []string{"ana:Ana", "ben:Ben", "cleo:Cleo"}, "member as id:name, repeatable")
	sampleTotal := pflag.String("sample-total", "", "create one equal-split expense for this amount (e.g. 42.10), paid by the first member")
	note := pflag.String("note", "weekly groceries", "note for the sample expense")
	pflag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Error("unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	if cfg.RunMigrations {
		if err := database.Migrate(ctx, db, cfg.DatabaseURL, logger); err != nil {
			logger.Error("migrations failed", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("seeding household", "household_id", *householdID)

	members := household.NewService(household.NewRepository(db))
	var ids []string
	for _, raw := range *memberList {
		id, name, _ := strings.Cut(raw, ":")
		id = strings.TrimSpace(id)
		if name == "" {
			name = id
		}
		if err := members.UpsertMember(ctx, *householdID, id, name); err != nil {
			logger.Error("member upsert failed", "member_id", id, "error", err)
			os.Exit(1)
		}
		ids = append(ids, id)
	}
	logger.Info("members seeded", "count", len(ids))

	if *sampleTotal == "" || len(ids) == 0 {
		return
	}

	total, err := money.Parse(*sampleTotal)
	if err != nil {
		logger.Error("invalid sample total", "value", *sampleTotal, "error", err)
		os.Exit(1)
	}

	expenses := expense.NewService(expense.NewRepository(db), split.NewSplitStrategyFactory(),
		members, notification.Discard{}, cfg.DefaultCurrency, logger)
	e, err := expenses.CreateExpense(ctx, *householdID, ids[0], &expense.CreateExpenseRequest{
		PayerID:      ids[0],
		TotalCents:   total,
		Participants: ids,
		Note:         *note,
	})
	if err != nil {
		logger.Error("sample expense failed", "error", err)
		os.Exit(1)
	}

	logger.Info("sample expense created", "expense_id", e.ID, "total", e.TotalCents.Format(e.Currency))
}
