package domain

// ArticleRef is an article discovered on the listing page.
type ArticleRef struct {
	URL     string
	Ordinal int
}

// FieldState tells whether an extraction step produced a value.
type FieldState int

const (
	FieldAbsent FieldState = iota
	FieldPresent
	FieldFailed
	FieldSkipped
)

func (s FieldState) String() string {
	switch s {
	case FieldPresent:
		return "present"
	case FieldFailed:
		return "failed"
	case FieldSkipped:
		return "skipped"
	default:
		return "absent"
	}
}

// Field is the outcome of one extraction step.
type Field struct {
	Value string
	State FieldState
	Err   error
}

// Present wraps a successfully extracted value.
func Present(value string) Field {
	return Field{Value: value, State: FieldPresent}
}

// Absent records that nothing was found; err may be nil.
func Absent(err error) Field {
	return Field{State: FieldAbsent, Err: err}
}

// Failed records a step that found its input but could not complete.
func Failed(err error) Field {
	return Field{State: FieldFailed, Err: err}
}

// Skipped records a step that was never attempted because its input was missing.
func Skipped() Field {
	return Field{State: FieldSkipped}
}

// Ok reports whether the field carries a value.
func (f Field) Ok() bool {
	return f.State == FieldPresent
}

// ArticleResult collects every field extracted for one article.
// Visited is set once the browser left the listing for the article URL;
// Navigated once the article heading was confirmed.
type ArticleResult struct {
	Ref             ArticleRef
	Visited         bool
	Navigated       bool
	Title           Field
	TranslatedTitle Field
	Body            Field
	ImagePath       Field
}

// NewArticleResult starts with every field absent.
func NewArticleResult(ref ArticleRef) ArticleResult {
	return ArticleResult{
		Ref:             ref,
		Title:           Absent(nil),
		TranslatedTitle: Absent(nil),
		Body:            Absent(nil),
		ImagePath:       Absent(nil),
	}
}
