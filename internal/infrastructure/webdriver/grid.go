package webdriver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tebeka/selenium"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"OpinionScanner/internal/config"
	"OpinionScanner/internal/domain"
	"OpinionScanner/internal/ports"
)

var tracer = otel.Tracer("opinionscanner/infrastructure/webdriver")

// maxReasonLength is the longest status reason the grid accepts.
const maxReasonLength = 255

// RemoteFactory opens a WebDriver session; selenium.NewRemote in production.
type RemoteFactory func(caps selenium.Capabilities, urlPrefix string) (selenium.WebDriver, error)

// Grid opens BrowserStack-style remote sessions over the W3C WebDriver protocol.
type Grid struct {
	cfg       config.GridConfig
	pageLoad  time.Duration
	newRemote RemoteFactory
	logger    *slog.Logger
}

var _ ports.Browser = (*Grid)(nil)

// NewGrid builds a grid client from configuration.
// A positive pageLoad bounds every navigation on opened sessions.
func NewGrid(cfg config.GridConfig, pageLoad time.Duration, logger *slog.Logger) *Grid {
	return NewGridWithFactory(cfg, pageLoad, selenium.NewRemote, logger)
}

// NewGridWithFactory lets callers replace how sessions are dialled.
func NewGridWithFactory(cfg config.GridConfig, pageLoad time.Duration, factory RemoteFactory, logger *slog.Logger) *Grid {
	return &Grid{cfg: cfg, pageLoad: pageLoad, newRemote: factory, logger: logger}
}

// Name identifies the backend in logs and config.
func (g *Grid) Name() string {
	return "remote"
}

// Open negotiates capabilities for the profile and returns the live session.
func (g *Grid) Open(ctx context.Context, profile domain.EnvironmentProfile) (ports.Session, error) {
	_, span := tracer.Start(ctx, "grid:Open")
	defer span.End()
	span.SetAttributes(attribute.String("session", profile.Label()))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	endpoint, err := g.endpoint()
	if err != nil {
		span.SetStatus(codes.Error, "invalid hub url")
		return nil, err
	}

	wd, err := g.newRemote(g.Capabilities(profile), endpoint)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open session")
		return nil, fmt.Errorf("open remote session %s: %w", profile.Label(), err)
	}

	if g.pageLoad > 0 {
		if err := wd.SetPageLoadTimeout(g.pageLoad); err != nil {
			span.RecordError(err)
			if g.logger != nil {
				g.logger.Warn("page load timeout not applied", "session", profile.Label(), "timeout", g.pageLoad, "error", err)
			}
		}
	}

	if g.logger != nil {
		g.logger.Debug("remote session opened", "session", profile.Label())
	}
	return &Session{wd: wd}, nil
}

func (g *Grid) endpoint() (string, error) {
	u, err := url.Parse(g.cfg.HubURL)
	if err != nil {
		return "", fmt.Errorf("invalid hub url: %w", err)
	}
	if g.cfg.Username != "" {
		u.User = url.UserPassword(g.cfg.Username, g.cfg.AccessKey)
	}
	return u.String(), nil
}

// Capabilities builds the W3C capability set with the grid vendor options.
func (g *Grid) Capabilities(profile domain.EnvironmentProfile) selenium.Capabilities {
	opts := map[string]interface{}{
		"sessionName": profile.Label(),
		"debug":       strconv.FormatBool(g.cfg.DebugEnabled()),
		"networkLogs": strconv.FormatBool(g.cfg.NetworkLogsEnabled()),
	}
	setIf(opts, "buildName", g.cfg.BuildName)
	setIf(opts, "consoleLogs", g.cfg.ConsoleLogs)
	setIf(opts, "seleniumVersion", g.cfg.SeleniumVersion)
	setIf(opts, "os", profile.OS)
	setIf(opts, "osVersion", profile.OSVersion)
	setIf(opts, "browserName", profile.Browser)
	setIf(opts, "browserVersion", profile.BrowserVersion)
	setIf(opts, "deviceName", profile.Device)
	if profile.RealMobile {
		opts["realMobile"] = "true"
	}

	caps := selenium.Capabilities{"bstack:options": opts}
	if profile.Browser != "" {
		caps["browserName"] = strings.ToLower(profile.Browser)
	}
	return caps
}

func setIf(opts map[string]interface{}, key, value string) {
	if value != "" {
		opts[key] = value
	}
}

// StatusScript renders the executor command that annotates a grid session.
func StatusScript(status domain.SessionStatus, reason string) string {
	if len(reason) > maxReasonLength {
		reason = reason[:maxReasonLength]
	}
	payload, _ := json.Marshal(map[string]interface{}{
		"action": "setSessionStatus",
		"arguments": map[string]string{
			"status": string(status),
			"reason": reason,
		},
	})
	return "browserstack_executor: " + string(payload)
}

// Session adapts a selenium.WebDriver to ports.Session.
type Session struct {
	wd        selenium.WebDriver
	closeOnce sync.Once
	closeErr  error
}

var _ ports.Session = (*Session)(nil)

func (s *Session) Navigate(ctx context.Context, rawURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.wd.Get(rawURL); err != nil {
		return fmt.Errorf("navigate %s: %w", rawURL, err)
	}
	return nil
}

func (s *Session) Back(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.wd.Back(); err != nil {
		return fmt.Errorf("navigate back: %w", err)
	}
	return nil
}

func (s *Session) FindElements(ctx context.Context, selector string) ([]ports.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	found, err := s.wd.FindElements(selenium.ByCSSSelector, selector)
	if err != nil {
		return nil, err
	}
	return wrap(found), nil
}

func (s *Session) ReportStatus(ctx context.Context, status domain.SessionStatus, reason string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.wd.ExecuteScript(StatusScript(status, reason), nil); err != nil {
		return fmt.Errorf("set session status: %w", err)
	}
	return nil
}

// Close quits the remote session once; later calls return the first result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.wd.Quit()
	})
	return s.closeErr
}

func wrap(found []selenium.WebElement) []ports.Element {
	elements := make([]ports.Element, 0, len(found))
	for _, we := range found {
		elements = append(elements, element{we: we})
	}
	return elements
}

// nilValue is how the selenium client reports a null attribute.
const nilValue = "nil return value"

type element struct {
	we selenium.WebElement
}

func (e element) FindElements(ctx context.Context, selector string) ([]ports.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	found, err := e.we.FindElements(selenium.ByCSSSelector, selector)
	if err != nil {
		return nil, err
	}
	return wrap(found), nil
}

func (e element) TagName() (string, error) {
	return e.we.TagName()
}

func (e element) Text() (string, error) {
	return e.we.Text()
}

func (e element) Attribute(name string) (string, error) {
	v, err := e.we.GetAttribute(name)
	if err != nil && strings.Contains(err.Error(), nilValue) {
		return "", nil
	}
	return v, err
}

func (e element) Displayed() (bool, error) {
	return e.we.IsDisplayed()
}

func (e element) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.we.Click()
}
