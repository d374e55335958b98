package translate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"OpinionScanner/internal/config"
	"OpinionScanner/internal/ports"
)

var tracer = otel.Tracer("opinionscanner/infrastructure/translate")

const maxTextLength = 5000

var (
	// ErrEmptyText is returned for blank input; nothing is sent upstream.
	ErrEmptyText = errors.New("nothing to translate")
	// ErrNoResult is returned when the response page carries no translation.
	ErrNoResult = errors.New("translation response had no result")
)

// resultSelectors lists where the mobile translate page puts its output.
var resultSelectors = []string{"div.result-container", "div.t0"}

// GoogleClient implements ports.Translator against the mobile Google Translate page.
type GoogleClient struct {
	endpoint string
	http     *resty.Client
}

var _ ports.Translator = (*GoogleClient)(nil)

// NewGoogleClient builds a client from configuration.
func NewGoogleClient(cfg config.TranslationConfig, timeout time.Duration) *GoogleClient {
	return NewGoogleClientWithHTTP(cfg, resty.New().SetTimeout(timeout))
}

// NewGoogleClientWithHTTP reuses an existing resty client.
func NewGoogleClientWithHTTP(cfg config.TranslationConfig, client *resty.Client) *GoogleClient {
	client.SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	return &GoogleClient{endpoint: cfg.Endpoint, http: client}
}

// Translate sends text for translation; source may be "auto".
func (c *GoogleClient) Translate(ctx context.Context, text, source, target string) (string, error) {
	ctx, span := tracer.Start(ctx, "google:Translate")
	defer span.End()
	span.SetAttributes(attribute.String("source", source), attribute.String("target", target))

	if c == nil || c.endpoint == "" {
		return "", fmt.Errorf("translate client misconfigured")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyText
	}
	if n := utf8.RuneCountInString(text); n > maxTextLength {
		return "", fmt.Errorf("text too long (%d characters, max %d)", n, maxTextLength)
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"sl": source,
			"tl": target,
			"q":  text,
		}).
		Get(c.endpoint)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return "", fmt.Errorf("send translation: %w", err)
	}
	if res.StatusCode() != http.StatusOK {
		span.SetStatus(codes.Error, "unexpected status")
		return "", fmt.Errorf("translate error %s", res.Status())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return "", fmt.Errorf("parse translation: %w", err)
	}

	for _, selector := range resultSelectors {
		if out := strings.TrimSpace(doc.Find(selector).First().Text()); out != "" {
			return out, nil
		}
	}
	span.SetStatus(codes.Error, "empty result")
	return "", ErrNoResult
}
