package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"OpinionScanner/internal/domain"
	"OpinionScanner/internal/locator"
	"OpinionScanner/internal/ports"
)

// ErrListingLost is returned when the listing page cannot be restored after an article.
var ErrListingLost = errors.New("listing page lost")

const statusReportTimeout = 10 * time.Second

// SessionDeps wires one environment pass.
type SessionDeps struct {
	Browser      ports.Browser
	Locators     Locators
	Consent      *ConsentHandler
	Discovery    *Discovery
	Extractor    *Extractor
	ListingURL   string
	ArticleLimit int
	Logger       *slog.Logger
}

// SessionRunner performs the full scrape for one environment profile.
type SessionRunner struct {
	browser      ports.Browser
	locators     Locators
	consent      *ConsentHandler
	discovery    *Discovery
	extractor    *Extractor
	listingURL   string
	articleLimit int
	logger       *slog.Logger
}

// NewSessionRunner constructs the runner.
func NewSessionRunner(deps SessionDeps) *SessionRunner {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionRunner{
		browser:      deps.Browser,
		locators:     deps.Locators,
		consent:      deps.Consent,
		discovery:    deps.Discovery,
		extractor:    deps.Extractor,
		listingURL:   deps.ListingURL,
		articleLimit: deps.ArticleLimit,
		logger:       logger,
	}
}

// Run opens a session for profile, scrapes, and always releases the session.
// On a session-fatal error the titles are dropped and Err is set.
func (r *SessionRunner) Run(ctx context.Context, profile domain.EnvironmentProfile) (result domain.SessionResult) {
	label := profile.Label()
	logger := r.logger.With("session", label)
	result = domain.SessionResult{Profile: profile, Status: domain.StatusFailed}

	ctx, span := tracer.Start(ctx, "session:Run")
	defer span.End()
	span.SetAttributes(attribute.String("session", label), attribute.String("backend", r.browser.Name()))

	logger.InfoContext(ctx, "starting session", "backend", r.browser.Name())
	sess, err := r.browser.Open(ctx, profile)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open failed")
		logger.ErrorContext(ctx, "session could not be opened", "error", err)
		result.Err = fmt.Errorf("open session: %w", err)
		return result
	}
	defer func() {
		if err := sess.Close(); err != nil {
			logger.WarnContext(ctx, "session close failed", "error", err)
			return
		}
		logger.InfoContext(ctx, "session closed")
	}()
	// Runs before Close so the backend still sees the failed status.
	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("session panic: %v", p)
			span.RecordError(err)
			span.SetStatus(codes.Error, "panic")
			logger.ErrorContext(ctx, "session failed", "error", err)
			result.Status = domain.StatusFailed
			result.Titles = nil
			result.Err = err
			r.report(ctx, sess, domain.StatusFailed, err.Error(), logger)
		}
	}()

	titles, err := r.scrape(ctx, sess, label, logger, &result)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session failed")
		logger.ErrorContext(ctx, "session failed", "error", err)
		result.Err = err
		r.report(ctx, sess, domain.StatusFailed, err.Error(), logger)
		return result
	}

	result.Titles = titles
	result.Status = domain.StatusPassed
	r.report(ctx, sess, domain.StatusPassed, fmt.Sprintf("scraped %d articles", len(result.Articles)), logger)
	logger.InfoContext(ctx, "session finished", "articles", len(result.Articles), "translated", len(titles))
	return result
}

func (r *SessionRunner) scrape(ctx context.Context, sess ports.Session, label string, logger *slog.Logger, result *domain.SessionResult) ([]string, error) {
	logger.InfoContext(ctx, "navigating to listing", "url", r.listingURL)
	if err := sess.Navigate(ctx, r.listingURL); err != nil {
		return nil, fmt.Errorf("open listing: %w", err)
	}

	if r.consent != nil {
		r.consent.Handle(ctx, sess, logger)
	}

	report, err := r.discovery.Discover(ctx, sess, r.articleLimit)
	result.Discovery = report
	if err != nil {
		return nil, fmt.Errorf("discover articles: %w", err)
	}
	if shortfall := report.Shortfall(); shortfall != domain.ShortfallNone {
		logger.WarnContext(ctx, "fewer articles than requested",
			"found", len(report.Refs), "limit", report.Limit, "reason", string(shortfall),
			"scanned", report.Scanned, "misses", report.Misses, "duplicates", report.Duplicates)
	}
	logger.InfoContext(ctx, "articles discovered", "count", len(report.Refs))

	containers, err := r.locators.Resolve(locator.ArticleContainer)
	if err != nil {
		return nil, err
	}

	var titles []string
	for _, ref := range report.Refs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		logger.InfoContext(ctx, "processing article", "ordinal", ref.Ordinal, "of", len(report.Refs))

		article := r.extractor.Extract(ctx, sess, ref, label, logger)
		result.Articles = append(result.Articles, article)
		if article.TranslatedTitle.Ok() {
			titles = append(titles, article.TranslatedTitle.Value)
		}

		if !article.Visited {
			continue
		}
		if err := sess.Back(ctx); err != nil {
			return nil, fmt.Errorf("%w: navigate back: %w", ErrListingLost, err)
		}
		if _, err := containers.First(ctx, sess); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrListingLost, err)
		}
	}

	return titles, nil
}

// report annotates the backend session; failures are only logged.
func (r *SessionRunner) report(ctx context.Context, sess ports.Session, status domain.SessionStatus, reason string, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statusReportTimeout)
	defer cancel()
	if err := sess.ReportStatus(ctx, status, reason); err != nil {
		logger.WarnContext(ctx, "session status not reported", "status", string(status), "error", err)
	}
}
