package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"OpinionScanner/internal/domain"
	"OpinionScanner/internal/locator"
	"OpinionScanner/internal/ports"
)

var tracer = otel.Tracer("opinionscanner/usecase")

const previewLength = 500

// ErrNotAbsolute marks cover image URLs that are never downloaded.
var ErrNotAbsolute = errors.New("cover image url is not absolute")

// ExtractorDeps wires the driven adapters used per article.
type ExtractorDeps struct {
	Locators   Locators
	Translator ports.Translator
	Images     ports.ImageStore
	SourceLang string
	TargetLang string
	Logger     *slog.Logger
}

// Extractor visits one article and fills in whatever fields it can.
type Extractor struct {
	locators   Locators
	translator ports.Translator
	images     ports.ImageStore
	sourceLang string
	targetLang string
	logger     *slog.Logger
}

// NewExtractor constructs the per-article extraction step.
func NewExtractor(deps ExtractorDeps) *Extractor {
	e := &Extractor{
		locators:   deps.Locators,
		translator: deps.Translator,
		images:     deps.Images,
		sourceLang: deps.SourceLang,
		targetLang: deps.TargetLang,
		logger:     deps.Logger,
	}
	if e.sourceLang == "" {
		e.sourceLang = "auto"
	}
	if e.targetLang == "" {
		e.targetLang = "en"
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Extract never fails: every step is contained and recorded on the result.
func (e *Extractor) Extract(ctx context.Context, sess ports.Session, ref domain.ArticleRef, label string, logger *slog.Logger) (res domain.ArticleResult) {
	if logger == nil {
		logger = e.logger
	}
	logger = logger.With("article", ref.Ordinal)

	ctx, span := tracer.Start(ctx, "extractor:Extract")
	defer span.End()
	span.SetAttributes(attribute.String("url", ref.URL), attribute.Int("ordinal", ref.Ordinal))

	res = domain.NewArticleResult(ref)
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("extract panic: %v", r)
			span.RecordError(err)
			span.SetStatus(codes.Error, "panic")
			logger.ErrorContext(ctx, "article extraction aborted", "error", err)
		}
	}()

	logger.InfoContext(ctx, "navigating to article", "url", ref.URL)
	if err := sess.Navigate(ctx, ref.URL); err != nil {
		span.RecordError(err)
		logger.WarnContext(ctx, "article navigation failed", "error", err)
		res.Title = domain.Absent(err)
		return res
	}
	res.Visited = true

	heading, err := e.first(ctx, locator.Title, sess)
	if err != nil {
		span.RecordError(err)
		logger.WarnContext(ctx, "article heading never appeared", "error", err)
		res.Title = domain.Absent(err)
		return res
	}
	res.Navigated = true

	res.Title = contain("title", func() domain.Field { return e.title(ctx, sess, heading) })
	if res.Title.Ok() {
		logger.InfoContext(ctx, "original title", "title", res.Title.Value)
	} else {
		logger.WarnContext(ctx, "title not found", "error", res.Title.Err)
	}

	res.Body = contain("body", func() domain.Field { return e.body(ctx, sess) })
	if res.Body.Ok() {
		logger.InfoContext(ctx, "content preview", "content", preview(res.Body.Value))
	} else {
		logger.WarnContext(ctx, "content not found", "error", res.Body.Err)
	}

	res.TranslatedTitle = contain("translate", func() domain.Field { return e.translate(ctx, res.Title) })
	switch res.TranslatedTitle.State {
	case domain.FieldPresent:
		logger.InfoContext(ctx, "translated title", "title", res.TranslatedTitle.Value)
	case domain.FieldFailed:
		logger.WarnContext(ctx, "translation failed", "title", res.Title.Value, "error", res.TranslatedTitle.Err)
	default:
		logger.InfoContext(ctx, "translation skipped, no title")
	}

	res.ImagePath = contain("image", func() domain.Field { return e.image(ctx, sess, ref, label) })
	switch res.ImagePath.State {
	case domain.FieldPresent:
		logger.InfoContext(ctx, "downloaded image", "path", res.ImagePath.Value)
	case domain.FieldFailed:
		logger.WarnContext(ctx, "image download failed", "error", res.ImagePath.Err)
	default:
		logger.InfoContext(ctx, "no cover image", "reason", res.ImagePath.Err)
	}

	return res
}

// contain turns a panic inside one step into a failed field so later steps still run.
func contain(step string, fn func() domain.Field) (f domain.Field) {
	defer func() {
		if r := recover(); r != nil {
			f = domain.Failed(fmt.Errorf("%s panic: %v", step, r))
		}
	}()
	return fn()
}

func (e *Extractor) first(ctx context.Context, kind locator.Kind, scope ports.Finder) (locator.Match, error) {
	chain, err := e.locators.Resolve(kind)
	if err != nil {
		return locator.Match{}, err
	}
	return chain.First(ctx, scope)
}

func (e *Extractor) title(ctx context.Context, sess ports.Session, heading locator.Match) domain.Field {
	if heading.Value != "" {
		return domain.Present(heading.Value)
	}
	fallback, err := e.first(ctx, locator.TitleFallback, sess)
	if err != nil {
		return domain.Absent(err)
	}
	if fallback.Value == "" {
		return domain.Absent(nil)
	}
	return domain.Present(fallback.Value)
}

func (e *Extractor) body(ctx context.Context, sess ports.Session) domain.Field {
	chain, err := e.locators.Resolve(locator.ContentParagraphs)
	if err != nil {
		return domain.Absent(err)
	}
	paragraphs, err := chain.All(ctx, sess)
	if err != nil {
		return domain.Absent(err)
	}
	lines := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		if p.Value != "" {
			lines = append(lines, p.Value)
		}
	}
	if len(lines) == 0 {
		return domain.Absent(nil)
	}
	return domain.Present(strings.Join(lines, "\n"))
}

func (e *Extractor) translate(ctx context.Context, title domain.Field) domain.Field {
	if !title.Ok() || e.translator == nil {
		return domain.Skipped()
	}
	translated, err := e.translator.Translate(ctx, title.Value, e.sourceLang, e.targetLang)
	if err != nil {
		return domain.Failed(err)
	}
	return domain.Present(translated)
}

func (e *Extractor) image(ctx context.Context, sess ports.Session, ref domain.ArticleRef, label string) domain.Field {
	cover, err := e.first(ctx, locator.CoverImage, sess)
	if err != nil {
		return domain.Absent(err)
	}
	if !domain.IsAbsoluteURL(cover.Value) {
		return domain.Absent(fmt.Errorf("%w: %s", ErrNotAbsolute, cover.Value))
	}
	if e.images == nil {
		return domain.Skipped()
	}
	path, err := e.images.Save(ctx, cover.Value, domain.ImageFileName(ref, label, cover.Value))
	if err != nil {
		return domain.Failed(err)
	}
	return domain.Present(path)
}

func preview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewLength {
		return content
	}
	return string(runes[:previewLength]) + "..."
}
