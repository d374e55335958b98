package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"OpinionScanner/internal/locator"
	"OpinionScanner/internal/ports"
)

// Locators resolves rule chains by target kind.
type Locators interface {
	Resolve(kind locator.Kind) (locator.Chain, error)
}

var _ Locators = (*locator.Registry)(nil)

// ConsentHandler dismisses the cookie overlay once per session.
type ConsentHandler struct {
	locators       Locators
	dismissTimeout time.Duration
	logger         *slog.Logger
}

// NewConsentHandler builds a handler that waits up to dismissTimeout for the overlay to go away.
func NewConsentHandler(locators Locators, dismissTimeout time.Duration, logger *slog.Logger) *ConsentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsentHandler{locators: locators, dismissTimeout: dismissTimeout, logger: logger}
}

// Handle reports whether the overlay was accepted and dismissed.
// Every failure is logged and swallowed; callers proceed either way.
func (h *ConsentHandler) Handle(ctx context.Context, sess ports.Session, logger *slog.Logger) bool {
	if logger == nil {
		logger = h.logger
	}
	if err := h.dismiss(ctx, sess); err != nil {
		logger.InfoContext(ctx, "consent handling skipped", "reason", err)
		return false
	}
	logger.InfoContext(ctx, "consent accepted")
	return true
}

func (h *ConsentHandler) dismiss(ctx context.Context, sess ports.Session) error {
	overlays, err := h.locators.Resolve(locator.ConsentOverlay)
	if err != nil {
		return err
	}
	accepts, err := h.locators.Resolve(locator.ConsentAccept)
	if err != nil {
		return err
	}

	overlay, err := overlays.First(ctx, sess)
	if err != nil {
		return fmt.Errorf("find overlay: %w", err)
	}
	button, err := accepts.First(ctx, overlay.Element)
	if err != nil {
		return fmt.Errorf("find accept control: %w", err)
	}
	if err := button.Element.Click(ctx); err != nil {
		return fmt.Errorf("click %s: %w", button.Rule.Name, err)
	}

	err = locator.Poll(ctx, h.dismissTimeout, overlays.Interval, func(ctx context.Context) (bool, error) {
		return invisible(ctx, sess, overlay.Rule.Selector)
	})
	if err != nil {
		return fmt.Errorf("overlay still visible: %w", err)
	}
	return nil
}

// invisible holds when no element matches selector or none of them is displayed.
func invisible(ctx context.Context, scope ports.Finder, selector string) (bool, error) {
	elements, err := scope.FindElements(ctx, selector)
	if err != nil {
		return false, err
	}
	for _, el := range elements {
		shown, err := el.Displayed()
		if err != nil {
			// Detached nodes count as gone.
			continue
		}
		if shown {
			return false, nil
		}
	}
	return true, nil
}
