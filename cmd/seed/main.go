package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/opsdesk/shift-backend/internal/config"
	"github.com/opsdesk/shift-backend/internal/domain"
	"github.com/opsdesk/shift-backend/internal/scheduler"
	"github.com/opsdesk/shift-backend/internal/seed"
	"github.com/opsdesk/shift-backend/internal/storage"
	"github.com/opsdesk/shift-backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	var op int
	var n int
	var from string
	var file string

	flag.IntVar(&op, "op", 0, "operation (1: insert random employees, 2: insert a random week of shifts for every employee, 3: import shifts from a CSV file)")
	flag.IntVar(&n, "n", 5, "number of employees to insert")
	flag.StringVar(&from, "from", time.Now().Format(domain.DateLayout), "first day of the seeded week")
	flag.StringVar(&file, "file", "./shifts.csv", "CSV file to import")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	st, closeStore, err := storage.Open(cfg, logger)
	if err != nil {
		logger.Error("failed to open record store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	ctx := context.Background()
	sched := scheduler.New(st, scheduler.WithAtomicWrites(cfg.Shift.AtomicWrites), scheduler.WithLogger(logger))

	switch op {
	case 0:
		logger.Error("no operation given")
	case 1:
		if n <= 0 {
			logger.Error("the number of employees must be positive")
			return
		}

		cnt := 0
		for i := 0; i < n; i++ {
			user, err := utils.GenerateRandomEmployee(cfg.Seed.User.Password, cfg.Email.UserDomain)
			if err != nil {
				logger.Error("failed to generate employee", slog.String("error", err.Error()))
				continue
			}

			if err := st.CreateUser(ctx, user); err != nil {
				logger.Error("failed to insert employee", slog.String("error", err.Error()))
				continue
			}

			cnt++
		}

		logger.Info("employees inserted", slog.Int("count", cnt))
	case 2:
		start, err := utils.ParseDate("from", from)
		if err != nil {
			logger.Error("invalid start day", slog.String("error", err.Error()))
			return
		}

		users, err := st.GetAllUsers(ctx)
		if err != nil {
			logger.Error("failed to load users", slog.String("error", err.Error()))
			return
		}

		cnt := 0
		for _, user := range users {
			if user.Role != domain.RoleEmployee {
				continue
			}

			shifts, err := sched.Create(ctx, utils.GenerateRandomWeekIntent(user.ID, start))
			if err != nil {
				logger.Error("failed to seed shifts", "employee", user.Username, slog.String("error", err.Error()))
				continue
			}

			cnt += len(shifts)
		}

		logger.Info("shifts inserted", slog.Int("count", cnt))
	case 3:
		f, err := os.Open(file)
		if err != nil {
			logger.Error("failed to open import file", slog.String("error", err.Error()))
			return
		}
		defer f.Close()

		passwordHash, err := bcrypt.GenerateFromPassword([]byte(cfg.Seed.User.Password), bcrypt.DefaultCost)
		if err != nil {
			logger.Error("failed to hash seed password", slog.String("error", err.Error()))
			return
		}

		importer := &seed.Importer{
			Users:        st,
			Scheduler:    sched,
			PasswordHash: string(passwordHash),
			EmailDomain:  cfg.Email.UserDomain,
			Logger:       logger,
		}
		if _, err := importer.ImportCSV(ctx, f); err != nil {
			logger.Error("import failed", slog.String("error", err.Error()))
		}
	default:
		logger.Error("unknown operation", slog.Int("op", op))
	}
}
