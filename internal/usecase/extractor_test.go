package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OpinionScanner/internal/domain"
	"OpinionScanner/internal/locator"
	"OpinionScanner/internal/logging"
)

func newTestExtractor(tr *fakeTranslator, img *fakeImages) *Extractor {
	deps := ExtractorDeps{Locators: fastRegistry(), Logger: logging.Discard()}
	if tr != nil {
		deps.Translator = tr
	}
	if img != nil {
		deps.Images = img
	}
	return NewExtractor(deps)
}

func TestExtractCollectsEveryField(t *testing.T) {
	t.Parallel()

	s := newSite(t)
	s.set("/opinion/", listingPage(linkContainer("/opinion/2024-05-01/uno.html")))
	s.set("/opinion/2024-05-01/uno.html", articlePage("El debate climático", "{{base}}/img/resizer/cover.png?auth=x"))

	sess := openListing(t, s)
	tr := &fakeTranslator{}
	img := &fakeImages{dir: "downloaded_images"}
	ref := domain.ArticleRef{URL: s.url("/opinion/2024-05-01/uno.html"), Ordinal: 2}

	res := newTestExtractor(tr, img).Extract(context.Background(), sess, ref, "Win10 Chrome", nil)

	assert.True(t, res.Visited)
	assert.True(t, res.Navigated)
	assert.Equal(t, domain.Present("El debate climático"), res.Title)
	assert.Equal(t, "Primer párrafo del artículo.\nSegundo párrafo con espacios.", res.Body.Value)
	assert.Equal(t, domain.Present("EN El debate climático"), res.TranslatedTitle)
	assert.Equal(t, []string{"auto>en:El debate climático"}, tr.calls)

	require.True(t, res.ImagePath.Ok())
	assert.Equal(t, "downloaded_images/article_2_Win10_Chrome_cover.png", res.ImagePath.Value)
	assert.Equal(t, s.url("/img/resizer/cover.png?auth=x"), img.saved["article_2_Win10_Chrome_cover.png"])
}

func TestExtractSkipsRelativeImage(t *testing.T) {
	t.Parallel()

	s := newSite(t)
	s.set("/opinion/", listingPage(linkContainer("/opinion/2024-05-01/uno.html")))
	s.set("/a.html", `<html><body><h1>Titular</h1>
		<figure class="a_m"><img src="/img/relative.jpg"></figure>
	</body></html>`)

	sess := openListing(t, s)
	img := &fakeImages{}
	res := newTestExtractor(&fakeTranslator{}, img).
		Extract(context.Background(), sess, domain.ArticleRef{URL: s.url("/a.html"), Ordinal: 1}, "Local", nil)

	assert.True(t, res.Navigated)
	assert.Equal(t, domain.FieldAbsent, res.ImagePath.State)
	assert.ErrorIs(t, res.ImagePath.Err, ErrNotAbsolute)
	assert.Empty(t, img.saved)
	assert.Equal(t, domain.FieldAbsent, res.Body.State)
	assert.ErrorIs(t, res.Body.Err, locator.ErrNotFound)
}

func TestExtractUsesTitleFallbackAndRecordsFailures(t *testing.T) {
	t.Parallel()

	s := newSite(t)
	s.set("/opinion/", listingPage(linkContainer("/opinion/2024-05-01/uno.html")))
	s.set("/b.html", `<html><head><meta property="og:image" content="{{base}}/img/photo"></head><body>
		<h1>   </h1><h2 class="c_t">Titular alternativo</h2>
	</body></html>`)

	sess := openListing(t, s)
	tr := &fakeTranslator{fail: map[string]error{"Titular alternativo": errBoom}}
	img := &fakeImages{err: errBoom}
	res := newTestExtractor(tr, img).
		Extract(context.Background(), sess, domain.ArticleRef{URL: s.url("/b.html"), Ordinal: 3}, "Local", nil)

	assert.Equal(t, domain.Present("Titular alternativo"), res.Title)
	assert.Equal(t, domain.FieldFailed, res.TranslatedTitle.State)
	assert.ErrorIs(t, res.TranslatedTitle.Err, errBoom)
	assert.Equal(t, domain.FieldFailed, res.ImagePath.State)
	assert.ErrorIs(t, res.ImagePath.Err, errBoom)
}

func TestExtractWithoutHeadingIsNotNavigated(t *testing.T) {
	t.Parallel()

	s := newSite(t)
	s.set("/opinion/", listingPage(linkContainer("/opinion/2024-05-01/uno.html")))
	s.set("/c.html", `<html><body><p>Sin titular en esta página.</p></body></html>`)

	sess := openListing(t, s)
	tr := &fakeTranslator{}
	res := newTestExtractor(tr, &fakeImages{}).
		Extract(context.Background(), sess, domain.ArticleRef{URL: s.url("/c.html"), Ordinal: 1}, "Local", nil)

	assert.True(t, res.Visited)
	assert.False(t, res.Navigated)
	assert.Equal(t, domain.FieldAbsent, res.Title.State)
	assert.Equal(t, domain.FieldAbsent, res.TranslatedTitle.State)
	assert.Equal(t, domain.FieldAbsent, res.Body.State)
	assert.Equal(t, domain.FieldAbsent, res.ImagePath.State)
	assert.Empty(t, tr.calls)
}

func TestExtractNavigationFailure(t *testing.T) {
	t.Parallel()

	s := newSite(t)
	s.set("/opinion/", listingPage(linkContainer("/opinion/2024-05-01/uno.html")))

	sess := openListing(t, s)
	res := newTestExtractor(nil, nil).
		Extract(context.Background(), sess, domain.ArticleRef{URL: s.url("/missing.html"), Ordinal: 1}, "Local", nil)

	assert.False(t, res.Visited)
	assert.False(t, res.Navigated)
	assert.Error(t, res.Title.Err)
}

type panickingTranslator struct{}

func (panickingTranslator) Translate(context.Context, string, string, string) (string, error) {
	panic("translator exploded")
}

func TestExtractContainsPanics(t *testing.T) {
	t.Parallel()

	s := newSite(t)
	s.set("/opinion/", listingPage(linkContainer("/opinion/2024-05-01/uno.html")))
	s.set("/d.html", articlePage("Titular", "{{base}}/img/cover.jpg"))

	sess := openListing(t, s)
	images := &fakeImages{dir: t.TempDir()}
	ex := NewExtractor(ExtractorDeps{
		Locators:   fastRegistry(),
		Translator: panickingTranslator{},
		Images:     images,
		Logger:     logging.Discard(),
	})

	var res domain.ArticleResult
	assert.NotPanics(t, func() {
		res = ex.Extract(context.Background(), sess, domain.ArticleRef{URL: s.url("/d.html"), Ordinal: 1}, "Local", nil)
	})
	assert.True(t, res.Navigated)
	assert.Equal(t, domain.Present("Titular"), res.Title)
	assert.True(t, res.Body.Ok())

	assert.Equal(t, domain.FieldFailed, res.TranslatedTitle.State)
	require.Error(t, res.TranslatedTitle.Err)
	assert.Contains(t, res.TranslatedTitle.Err.Error(), "translate panic")

	// Steps after the failing one still run.
	require.True(t, res.ImagePath.Ok(), "image step skipped: %v", res.ImagePath.Err)
	assert.Len(t, images.saved, 1)
}
