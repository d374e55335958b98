package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"OpinionScanner/internal/domain"
	"OpinionScanner/internal/locator"
	"OpinionScanner/internal/ports"
)

// DefaultArticleLimit is the number of articles collected per session.
const DefaultArticleLimit = 5

// ErrNoArticles is returned when the listing page never shows an article container.
var ErrNoArticles = errors.New("no article containers on listing page")

// Discovery picks article links off the loaded listing page.
type Discovery struct {
	locators Locators
	logger   *slog.Logger
}

// NewDiscovery constructs the listing scanner.
func NewDiscovery(locators Locators, logger *slog.Logger) *Discovery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discovery{locators: locators, logger: logger}
}

// Discover returns up to limit unique article refs in container order.
// Fewer refs is a valid outcome; the report says why.
func (d *Discovery) Discover(ctx context.Context, page ports.Finder, limit int) (domain.DiscoveryReport, error) {
	if limit <= 0 {
		limit = DefaultArticleLimit
	}
	report := domain.DiscoveryReport{Limit: limit}

	containers, err := d.locators.Resolve(locator.ArticleContainer)
	if err != nil {
		return report, err
	}
	links, err := d.locators.Resolve(locator.ArticleLink)
	if err != nil {
		return report, err
	}

	found, err := containers.All(ctx, page)
	if err != nil {
		return report, fmt.Errorf("%w: %w", ErrNoArticles, err)
	}

	seen := make(map[string]struct{}, limit)
	for _, container := range found {
		if len(report.Refs) == limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Scanned++

		link, err := links.First(ctx, container.Element)
		if err != nil {
			report.Misses++
			d.logger.DebugContext(ctx, "container without article link", "index", report.Scanned, "error", err)
			continue
		}
		if _, dup := seen[link.Value]; dup {
			report.Duplicates++
			continue
		}
		seen[link.Value] = struct{}{}
		report.Refs = append(report.Refs, domain.ArticleRef{URL: link.Value, Ordinal: len(report.Refs) + 1})
	}

	return report, nil
}
