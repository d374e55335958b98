package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-resty/resty/v2"

	"OpinionScanner/internal/config"
	"OpinionScanner/internal/infrastructure/images"
	"OpinionScanner/internal/infrastructure/static"
	"OpinionScanner/internal/infrastructure/translate"
	"OpinionScanner/internal/infrastructure/webdriver"
	"OpinionScanner/internal/logging"
	"OpinionScanner/internal/ports"
	"OpinionScanner/internal/report"
	"OpinionScanner/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg         config.Config
	coordinator *usecase.Coordinator
	out         io.Writer
	logger      *slog.Logger
}

// New builds the application for the configured backend. A nil out writes the report to stdout.
func New(cfg config.Config, baseLogger *slog.Logger, out io.Writer) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	if out == nil {
		out = os.Stdout
	}

	browser, err := newBrowser(cfg, baseLogger)
	if err != nil {
		return nil, err
	}

	registry := cfg.LocatorRegistry()
	translator := translate.NewGoogleClient(cfg.Translation, cfg.Timeouts.Translate)
	store := images.NewDownloader(cfg.Images.Dir, cfg.Timeouts.Download)

	extractor := usecase.NewExtractor(usecase.ExtractorDeps{
		Locators:   registry,
		Translator: translator,
		Images:     store,
		SourceLang: cfg.Translation.Source,
		TargetLang: cfg.Translation.Target,
		Logger:     baseLogger.With("component", "extractor"),
	})

	runner := usecase.NewSessionRunner(usecase.SessionDeps{
		Browser:      browser,
		Locators:     registry,
		Consent:      usecase.NewConsentHandler(registry, cfg.Timeouts.ConsentDismiss, baseLogger.With("component", "consent")),
		Discovery:    usecase.NewDiscovery(registry, baseLogger.With("component", "discovery")),
		Extractor:    extractor,
		ListingURL:   cfg.Site.ListingURL,
		ArticleLimit: cfg.Site.ArticleLimit,
		Logger:       baseLogger.With("component", "session"),
	})

	coordinator := usecase.NewCoordinator(runner, cfg.WorkerCount(), baseLogger.With("component", "coordinator"))

	return &Application{
		cfg:         cfg,
		coordinator: coordinator,
		out:         out,
		logger:      baseLogger.With("component", "app"),
	}, nil
}

func newBrowser(cfg config.Config, logger *slog.Logger) (ports.Browser, error) {
	switch cfg.Backend {
	case config.BackendRemote:
		return webdriver.NewGrid(cfg.Grid, cfg.Timeouts.PageLoad, logger.With("component", "webdriver")), nil
	case config.BackendStatic:
		client := resty.New().SetTimeout(cfg.Timeouts.PageLoad)
		return static.NewBrowser(client, logger.With("component", "static")), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// Run executes every session once and prints the word-frequency report.
func (a *Application) Run(ctx context.Context) error {
	if err := images.EnsureDir(a.cfg.Images.Dir); err != nil {
		return err
	}

	profiles := a.cfg.EnvironmentProfiles()
	outcome := a.coordinator.Run(ctx, profiles)

	failed := 0
	for _, s := range outcome.Sessions {
		if s.Err != nil {
			failed++
		}
	}
	a.logger.Info("all sessions finished",
		"sessions", len(outcome.Sessions), "failed", failed, "titles", len(outcome.Titles))

	threshold := a.cfg.Report.Threshold
	if threshold <= 0 {
		threshold = report.DefaultThreshold
	}
	if err := report.Render(a.out, outcome.Titles, report.Analyze(outcome.Titles, threshold)); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return ctx.Err()
}
