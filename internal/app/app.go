package app

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"time"

	"github.com/andy/billbook/internal/builder"
	"github.com/andy/billbook/internal/config"
	"github.com/andy/billbook/internal/crypto"
	"github.com/andy/billbook/internal/db"
	"github.com/andy/billbook/internal/logging"
	"github.com/andy/billbook/internal/render"
	"github.com/andy/billbook/internal/repository"
	"github.com/andy/billbook/internal/service"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// App is the dependency injection container for all application components
type App struct {
	Config *config.Config
	DB     *db.DB
	Logger *zap.Logger

	// Repositories
	ClientRepo  repository.ClientRepository
	InvoiceRepo repository.InvoiceRepository
	ExpenseRepo repository.ExpenseRepository

	// Services
	InvoiceService service.InvoiceService
	SummaryService service.SummaryService

	syncLog func() error
}

// New creates a new App instance, initializing all dependencies
// It handles:
// 1. Loading config
// 2. Starting the logger
// 3. Getting encryption key from keyring
// 4. Opening database and running migrations
// 5. Creating repositories and services
func New(ctx context.Context) (*App, error) {
	cfg, err := config.LoadDefault()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return NewWithConfig(ctx, cfg)
}

// NewWithConfig creates an App with a provided config (useful for testing)
func NewWithConfig(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	logger, syncLog, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to start logger: %w", err)
	}

	keyring := crypto.NewKeyring()

	password, err := keyring.GetKey()
	if err != nil {
		if !errors.Is(err, crypto.ErrKeyNotFound) {
			logger.Warn("keyring lookup failed", zap.Error(err))
		}
		fmt.Println("Setting up database encryption for the first time...")
		password, err = promptForPassword()
		if err != nil {
			_ = syncLog()
			return nil, fmt.Errorf("failed to set password: %w", err)
		}

		if err := keyring.SetKey(password); err != nil {
			_ = syncLog()
			return nil, fmt.Errorf("failed to store encryption key: %w", err)
		}
		logger.Info("database key stored in keyring")
	}

	return newWithPassword(cfg, password, logger, syncLog)
}

// NewWithPassword skips the keyring. Tests and scripted runs use it with a
// throwaway database.
func NewWithPassword(cfg *config.Config, password string, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}
	return newWithPassword(cfg, password, logger, func() error { return nil })
}

func newWithPassword(cfg *config.Config, password string, logger *zap.Logger, syncLog func() error) (*App, error) {
	database, err := db.Open(cfg.Database.Path, password)
	if err != nil {
		_ = syncLog()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := database.RunMigrations(); err != nil {
		database.Close()
		_ = syncLog()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if v, err := database.SchemaVersion(); err == nil {
		logger.Debug("database ready", zap.String("path", cfg.Database.Path), zap.Int("schema_version", v))
	}

	clientRepo := repository.NewClientRepo(database)
	invoiceRepo := repository.NewInvoiceRepo(database)
	expenseRepo := repository.NewExpenseRepo(database)

	invoiceService := service.NewInvoiceService(invoiceRepo, clientRepo, invoiceSettings(cfg), logger)
	summaryService := service.NewSummaryService(invoiceRepo, expenseRepo)

	return &App{
		Config:         cfg,
		DB:             database,
		Logger:         logger,
		ClientRepo:     clientRepo,
		InvoiceRepo:    invoiceRepo,
		ExpenseRepo:    expenseRepo,
		InvoiceService: invoiceService,
		SummaryService: summaryService,
		syncLog:        syncLog,
	}, nil
}

func invoiceSettings(cfg *config.Config) service.InvoiceSettings {
	return service.InvoiceSettings{
		NumberPrefix: cfg.Invoice.NumberPrefix,
		DueDays:      cfg.Invoice.DefaultDueDays,
		OutputDir:    cfg.Invoice.OutputDir,
		From: render.Party{
			Name:    cfg.User.Name,
			Email:   cfg.User.Email,
			Address: cfg.User.Address,
			Phone:   cfg.User.Phone,
		},
		LogoPath:      cfg.Invoice.LogoPath,
		SignaturePath: cfg.Invoice.SignaturePath,
	}
}

// BuilderOptions returns the builder options implied by the config
func (a *App) BuilderOptions() []builder.Option {
	return []builder.Option{
		builder.WithTaxRate(a.Config.TaxRate()),
		builder.WithStepCount(a.Config.Invoice.StepCount),
		builder.WithMinLineItems(a.Config.Invoice.MinLineItems),
		builder.WithDueDays(a.Config.Invoice.DefaultDueDays),
		builder.WithLogger(a.Logger.Named("builder")),
	}
}

// NewDraft returns a blank draft using the configured template and the next
// free invoice number
func (a *App) NewDraft(ctx context.Context, now time.Time) builder.Draft {
	d := builder.BlankDraft(now, a.Config.Invoice.DefaultDueDays)
	if a.Config.Invoice.DefaultTemplate != "" {
		d.TemplateID = a.Config.Invoice.DefaultTemplate
	}
	number, err := a.InvoiceService.NextInvoiceNumber(ctx, now)
	if err != nil {
		a.Logger.Warn("could not reserve invoice number", zap.Error(err))
	} else {
		d.InvoiceNumber = number
	}
	return d
}

// NewBuilder opens a builder on draft with the configured options. Extra
// options are applied last.
func (a *App) NewBuilder(draft builder.Draft, extra ...builder.Option) *builder.Builder {
	opts := append(a.BuilderOptions(), builder.WithInitialDraft(draft))
	return builder.New(append(opts, extra...)...)
}

// Close cleanly shuts down the application
func (a *App) Close() error {
	var err error
	if a.DB != nil {
		err = a.DB.Close()
	}
	if a.syncLog != nil {
		_ = a.syncLog()
	}
	return err
}

// promptForPassword prompts user for a new database password (first run)
// This should be called when keyring has no stored key
func promptForPassword() (string, error) {
	fmt.Println()
	fmt.Println("Your invoices and expenses will be encrypted with a password.")
	fmt.Println("This password will be stored securely in your system keyring.")
	fmt.Println()
	fmt.Print("Enter a password for database encryption: ")

	// Read password securely (no echo)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	if len(password) == 0 {
		return "", crypto.ErrEmptyKey
	}

	fmt.Print("Confirm password: ")
	confirm, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation: %w", err)
	}

	if string(password) != string(confirm) {
		return "", fmt.Errorf("passwords do not match")
	}

	fmt.Println()
	fmt.Println("✓ Database encryption configured successfully")
	fmt.Println()

	return string(password), nil
}

// CheckOverdue flags invoices whose due date has passed. Called on startup.
func (a *App) CheckOverdue(ctx context.Context) error {
	_, err := a.InvoiceService.CheckOverdue(ctx, time.Now())
	return err
}

// SaveConfig saves the current configuration to disk
func (a *App) SaveConfig() error {
	return a.Config.Save(config.DefaultConfigPath())
}
