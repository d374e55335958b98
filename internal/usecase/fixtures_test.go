package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"

	"OpinionScanner/internal/domain"
	"OpinionScanner/internal/infrastructure/static"
	"OpinionScanner/internal/locator"
	"OpinionScanner/internal/logging"
	"OpinionScanner/internal/ports"
)

const testLinkPattern = "/opinion/202"

// fastRegistry keeps the default rule order but turns every wait into a single check.
func fastRegistry() *locator.Registry {
	r := locator.NewRegistry(time.Millisecond)
	for kind, rules := range locator.Defaults(testLinkPattern) {
		for i := range rules {
			rules[i].Timeout = 0
		}
		r.Register(kind, rules)
	}
	return r
}

// site serves a listing page plus article pages keyed by path.
type site struct {
	server *httptest.Server
	mu     sync.RWMutex
	pages  map[string]string
}

func newSite(t *testing.T) *site {
	t.Helper()
	s := &site{pages: map[string]string{}}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		body, ok := s.pages[r.URL.Path]
		s.mu.RUnlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(strings.ReplaceAll(body, "{{base}}", "http://"+r.Host)))
	}))
	t.Cleanup(s.server.Close)
	return s
}

func (s *site) set(path, body string) {
	s.mu.Lock()
	s.pages[path] = body
	s.mu.Unlock()
}

func (s *site) url(path string) string {
	return s.server.URL + path
}

func (s *site) browser() *static.Browser {
	return static.NewBrowser(resty.NewWithClient(s.server.Client()), logging.Discard())
}

func listingPage(containers ...string) string {
	return "<html><body><main>" + strings.Join(containers, "\n") + "</main></body></html>"
}

func linkContainer(path string) string {
	return fmt.Sprintf(`<article><h2><a href="{{base}}%s">headline</a></h2></article>`, path)
}

func articlePage(title, image string) string {
	var b strings.Builder
	b.WriteString("<html><head>")
	if image != "" {
		fmt.Fprintf(&b, `<meta property="og:image" content="%s">`, image)
	}
	b.WriteString("</head><body><article>")
	if title != "" {
		fmt.Fprintf(&b, "<h1>%s</h1>", title)
	}
	b.WriteString(`<div class="a_c" data-dtm-region="articulo_cuerpo">
		<p>Primer párrafo del artículo.</p>
		<p>ok</p>
		<p>Segundo   párrafo con espacios.</p>
	</div>`)
	b.WriteString("</article></body></html>")
	return b.String()
}

type fakeTranslator struct {
	mu    sync.Mutex
	fail  map[string]error
	calls []string
}

func (f *fakeTranslator) Translate(_ context.Context, text, source, target string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, source+">"+target+":"+text)
	if err := f.fail[text]; err != nil {
		return "", err
	}
	return "EN " + text, nil
}

type fakeImages struct {
	mu    sync.Mutex
	dir   string
	err   error
	saved map[string]string
}

func (f *fakeImages) Save(_ context.Context, imageURL, filename string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	if f.saved == nil {
		f.saved = map[string]string{}
	}
	f.saved[filename] = imageURL
	return filepath.Join(f.dir, filename), nil
}

// countingBrowser wraps a backend and counts Close calls per opened session.
type countingBrowser struct {
	ports.Browser
	openErr error
	backErr error
	// navigatePanic makes every Navigate call on an opened session panic.
	navigatePanic bool
	closes        atomic.Int32
	status        []domain.SessionStatus
	mu            sync.Mutex
}

func (b *countingBrowser) Open(ctx context.Context, profile domain.EnvironmentProfile) (ports.Session, error) {
	if b.openErr != nil {
		return nil, b.openErr
	}
	sess, err := b.Browser.Open(ctx, profile)
	if err != nil {
		return nil, err
	}
	return &countingSession{Session: sess, owner: b}, nil
}

type countingSession struct {
	ports.Session
	owner *countingBrowser
}

func (s *countingSession) Navigate(ctx context.Context, rawURL string) error {
	if s.owner.navigatePanic {
		panic("driver connection reset")
	}
	return s.Session.Navigate(ctx, rawURL)
}

func (s *countingSession) Back(ctx context.Context) error {
	if s.owner.backErr != nil {
		return s.owner.backErr
	}
	return s.Session.Back(ctx)
}

func (s *countingSession) ReportStatus(ctx context.Context, status domain.SessionStatus, reason string) error {
	s.owner.mu.Lock()
	s.owner.status = append(s.owner.status, status)
	s.owner.mu.Unlock()
	return s.Session.ReportStatus(ctx, status, reason)
}

func (s *countingSession) Close() error {
	s.owner.closes.Add(1)
	return s.Session.Close()
}

var errBoom = errors.New("boom")
