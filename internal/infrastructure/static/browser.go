package static

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"OpinionScanner/internal/domain"
	"OpinionScanner/internal/ports"
)

var tracer = otel.Tracer("opinionscanner/infrastructure/static")

var (
	// ErrClosed is returned by any call on a session after Close.
	ErrClosed = errors.New("session is closed")
	// ErrNoPage is returned when a lookup happens before the first navigation.
	ErrNoPage = errors.New("no page loaded")
)

// Browser serves sessions from plain HTTP fetches parsed with goquery.
// Pages are not rendered: no JavaScript runs and attributes keep their raw values.
type Browser struct {
	client *resty.Client
	logger *slog.Logger
}

var _ ports.Browser = (*Browser)(nil)

// NewBrowser wires a resty client; a nil client gets a 30s timeout default.
func NewBrowser(client *resty.Client, logger *slog.Logger) *Browser {
	if client == nil {
		client = resty.New().SetTimeout(30 * time.Second)
	}
	return &Browser{client: client, logger: logger}
}

// Name identifies the backend in logs and config.
func (b *Browser) Name() string {
	return "static"
}

// Open starts an empty session; nothing is fetched until Navigate.
func (b *Browser) Open(ctx context.Context, profile domain.EnvironmentProfile) (ports.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.debug("open static session", "session", profile.Label())
	return &Session{
		client:    b.client,
		userAgent: userAgent(profile),
	}, nil
}

func (b *Browser) debug(msg string, args ...interface{}) {
	if b.logger != nil {
		b.logger.Debug(msg, args...)
	}
}

func userAgent(profile domain.EnvironmentProfile) string {
	ua := "OpinionScanner/1.0"
	if profile.Browser != "" {
		ua += " (" + profile.Browser + ")"
	}
	return ua
}

type page struct {
	url *url.URL
	doc *goquery.Document
}

// Session keeps a navigation history of parsed documents.
type Session struct {
	client    *resty.Client
	userAgent string

	mu      sync.Mutex
	history []page
	closed  bool
}

var _ ports.Session = (*Session)(nil)

// Navigate fetches the URL and pushes it onto the history.
func (s *Session) Navigate(ctx context.Context, rawURL string) error {
	ctx, span := tracer.Start(ctx, "session:Navigate")
	defer span.End()
	span.SetAttributes(attribute.String("url", rawURL))

	if s.isClosed() {
		return ErrClosed
	}

	target, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse url %s: %w", rawURL, err)
	}

	res, err := s.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", s.userAgent).
		Get(target.String())
	if err != nil {
		span.SetStatus(codes.Error, "fetch failed")
		return fmt.Errorf("request document: %w", err)
	}
	if res.StatusCode() != http.StatusOK {
		span.SetStatus(codes.Error, "unexpected status")
		return fmt.Errorf("%s returned %s", rawURL, res.Status())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return fmt.Errorf("parse document: %w", err)
	}

	s.mu.Lock()
	s.history = append(s.history, page{url: target, doc: doc})
	s.mu.Unlock()
	return nil
}

// Back drops the current page and returns to the previous one.
func (s *Session) Back(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if len(s.history) < 2 {
		return errors.New("no previous page in history")
	}
	s.history = s.history[:len(s.history)-1]
	return nil
}

// FindElements runs a CSS selector against the current document.
func (s *Session) FindElements(ctx context.Context, selector string) ([]ports.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if len(s.history) == 0 {
		return nil, ErrNoPage
	}
	current := s.history[len(s.history)-1]
	return wrap(s, current.url, current.doc.Find(selector)), nil
}

// ReportStatus has nowhere to report to.
func (s *Session) ReportStatus(context.Context, domain.SessionStatus, string) error {
	return nil
}

// Close releases the history; calling it again is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.history = nil
	return nil
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func wrap(s *Session, base *url.URL, sel *goquery.Selection) []ports.Element {
	elements := make([]ports.Element, 0, sel.Length())
	sel.Each(func(_ int, node *goquery.Selection) {
		elements = append(elements, &element{session: s, base: base, sel: node})
	})
	return elements
}

type element struct {
	session *Session
	base    *url.URL
	sel     *goquery.Selection
}

func (e *element) FindElements(ctx context.Context, selector string) ([]ports.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return wrap(e.session, e.base, e.sel.Find(selector)), nil
}

func (e *element) TagName() (string, error) {
	return goquery.NodeName(e.sel), nil
}

func (e *element) Text() (string, error) {
	return strings.TrimSpace(e.sel.Text()), nil
}

func (e *element) Attribute(name string) (string, error) {
	return e.sel.AttrOr(name, ""), nil
}

// Displayed treats the hidden attribute and inline display:none on the
// element or any ancestor as invisible.
func (e *element) Displayed() (bool, error) {
	if goquery.NodeName(e.sel) == "meta" {
		return false, nil
	}
	for node := e.sel; node.Length() > 0; node = node.Parent() {
		if _, hidden := node.Attr("hidden"); hidden {
			return false, nil
		}
		style := strings.ReplaceAll(strings.ToLower(node.AttrOr("style", "")), " ", "")
		if strings.Contains(style, "display:none") {
			return false, nil
		}
	}
	return true, nil
}

// Click follows anchors; other elements have no behaviour without scripts.
func (e *element) Click(ctx context.Context) error {
	if goquery.NodeName(e.sel) != "a" {
		return nil
	}
	href, ok := e.sel.Attr("href")
	if !ok || href == "" {
		return nil
	}
	ref, err := url.Parse(href)
	if err != nil {
		return fmt.Errorf("parse href %s: %w", href, err)
	}
	target := ref
	if e.base != nil {
		target = e.base.ResolveReference(ref)
	}
	return e.session.Navigate(ctx, target.String())
}
