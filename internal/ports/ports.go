package ports

import (
	"context"

	"OpinionScanner/internal/domain"
)

// Finder looks up elements below a page or element.
type Finder interface {
	FindElements(ctx context.Context, selector string) ([]Element, error)
}

// Element is a live node inside a browser session.
type Element interface {
	Finder
	TagName() (string, error)
	Text() (string, error)
	// Attribute returns an empty string when the attribute is missing.
	Attribute(name string) (string, error)
	Displayed() (bool, error)
	Click(ctx context.Context) error
}

// Session is one exclusively owned remote execution handle.
type Session interface {
	Finder
	Navigate(ctx context.Context, url string) error
	Back(ctx context.Context) error
	ReportStatus(ctx context.Context, status domain.SessionStatus, reason string) error
	Close() error
}

// Browser opens sessions for environment profiles.
type Browser interface {
	Name() string
	Open(ctx context.Context, profile domain.EnvironmentProfile) (Session, error)
}

// Translator converts text between languages; source may be "auto".
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// ImageStore downloads an image URL into a file and returns its path.
type ImageStore interface {
	Save(ctx context.Context, imageURL, filename string) (string, error)
}
