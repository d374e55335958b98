package locator

import "time"

// DefaultLinkPattern restricts article links to dated El País opinion pieces.
const DefaultLinkPattern = "elpais.com/opinion/202"

// MinParagraphLength is the normalized length a paragraph must exceed to count as body text.
const MinParagraphLength = 5

// Defaults returns the El País rule chains, most template-specific selector first.
func Defaults(linkPattern string) map[Kind][]Rule {
	if linkPattern == "" {
		linkPattern = DefaultLinkPattern
	}

	return map[Kind][]Rule{
		ArticleContainer: {
			{Name: "opinion-article", Selector: "article:has(h2 a[href*='/opinion/202']), article:has(h3 a[href*='/opinion/202'])", Timeout: 20 * time.Second},
			{Name: "article", Selector: "article", Timeout: 2 * time.Second},
		},
		ArticleLink: {
			{Name: "h2-link", Selector: "h2 a[href*='/opinion/202']", Attr: "href", Contains: linkPattern},
			{Name: "h3-link", Selector: "h3 a[href*='/opinion/202']", Attr: "href", Contains: linkPattern},
			{Name: "any-link", Selector: "a[href*='/opinion/202']", Attr: "href", Contains: linkPattern},
		},
		Title: {
			{Name: "h1", Selector: "h1", Timeout: 30 * time.Second},
		},
		TitleFallback: {
			{Name: "c_t", Selector: "h2.c_t", Required: true},
			{Name: "article-header", Selector: ".article-header h2", Required: true},
			{Name: "main-title", Selector: ".article-main-title", Required: true},
		},
		ContentParagraphs: {
			{Name: "a_c-body", Selector: "div[class*='a_c'][data-dtm-region='articulo_cuerpo'] p", Timeout: 20 * time.Second, MinLength: MinParagraphLength},
			{Name: "cuerpo-noticia", Selector: "div#cuerpo_noticia p", Timeout: 2 * time.Second, MinLength: MinParagraphLength},
			{Name: "article-body", Selector: "div[class*='article_body'] p", Timeout: 2 * time.Second, MinLength: MinParagraphLength},
			{Name: "c-content", Selector: "div[class*='c-content'] p", Timeout: 2 * time.Second, MinLength: MinParagraphLength},
			{Name: "article-text", Selector: "div[class*='article-text'] p", Timeout: 2 * time.Second, MinLength: MinParagraphLength},
			{Name: "article-p", Selector: "article p", Timeout: 2 * time.Second, MinLength: MinParagraphLength},
		},
		CoverImage: {
			{Name: "a_m-figure", Selector: "figure[class*='a_m'] img[src]", Attr: "src", Timeout: 15 * time.Second, Required: true},
			{Name: "c-figure", Selector: "figure[class*='c-figure'] img[src]", Attr: "src", Timeout: 2 * time.Second, Required: true},
			{Name: "article-media", Selector: "div[class*='article-media'] img[src]", Attr: "src", Timeout: 2 * time.Second, Required: true},
			{Name: "c_m_e", Selector: "img[class*='c_m_e'][src]", Attr: "src", Timeout: 2 * time.Second, Required: true},
			{Name: "picture", Selector: "picture img[src]", Attr: "src", Timeout: 2 * time.Second, Required: true},
			{Name: "og-image", Selector: "meta[property='og:image'][content]", Attr: "content", Required: true},
		},
		ConsentOverlay: {
			{Name: "didomi-host", Selector: "[id*='didomi-host']", Timeout: 15 * time.Second},
			{Name: "didomi-popup", Selector: "[class*='didomi-popup']"},
			{Name: "consent-modal", Selector: "[class*='consent-modal']"},
		},
		ConsentAccept: {
			{Name: "button-aceptar", Selector: "button", Contains: "Aceptar", Timeout: 5 * time.Second, Visible: true},
			{Name: "button-accept", Selector: "button", Contains: "Accept", Timeout: time.Second, Visible: true},
			{Name: "button-aria", Selector: "button", Attr: "aria-label", Contains: "Accept", Visible: true},
			{Name: "button-cc-action", Selector: "button", Attr: "data-cc-action", Contains: "accept", Visible: true},
			{Name: "link-aceptar", Selector: "a", Contains: "Aceptar", Visible: true},
			{Name: "link-accept", Selector: "a", Contains: "Accept", Visible: true},
		},
	}
}
