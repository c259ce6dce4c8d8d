package ingestion

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/williamcjrogers/VeriCaseJet-sub003/config"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/utils"
)

// Patterns match the full filename stem, lowercased. Substring matching
// burned us before: "site-defect-photo.jpg" contains "photo" but is evidence,
// so every pattern is anchored.
var decorativeStemPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^logo\d*$`),
	regexp.MustCompile(`^signature\d*$`),
	regexp.MustCompile(`^image\d{3,}$`),
	regexp.MustCompile(`^~wrd\d+$`),
	regexp.MustCompile(`^(banner|icon|header|footer|divider|spacer|disclaimer)\d*$`),
	regexp.MustCompile(`^(external|caution|warning)[-_ ]?(sender|banner|notice)?\d*$`),
}

var imageExtensions = map[string]struct{}{
	"png": {}, "jpg": {}, "jpeg": {}, "gif": {}, "bmp": {}, "webp": {},
}

// Classifier decides whether an image attachment is decorative noise
// (signature logos, tracking pixels, external-sender banners) or potential
// evidence. Non-image attachments are always retained. All size floors come
// from configuration so a case with unusually large signature art can raise
// them without a rebuild.
type Classifier struct {
	cfg *config.IngestionConfig
}

func NewClassifier(cfg *config.IngestionConfig) *Classifier {
	return &Classifier{cfg: cfg}
}

// BodyCidSet collects the content-ids the HTML body references inline via
// cid: image sources. An unparseable body yields the empty set, which only
// makes the classifier more conservative.
func (c *Classifier) BodyCidSet(bodyHTML string) map[string]struct{} {
	cids := map[string]struct{}{}
	if bodyHTML == "" {
		return cids
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(bodyHTML))
	if err != nil {
		return cids
	}

	doc.Find("img[src^='cid:']").Each(func(_ int, sel *goquery.Selection) {
		src, _ := sel.Attr("src")
		cid := strings.TrimPrefix(src, "cid:")
		if cid != "" {
			cids[cid] = struct{}{}
		}
	})
	return cids
}

// IsDecorative reports whether the attachment should be discarded. Retention
// is the safe default: when in doubt the attachment is kept.
func (c *Classifier) IsDecorative(filename, contentID string, size int64, bodyCids map[string]struct{}) bool {
	ext := utils.LastExtension(filename)
	if _, isImage := imageExtensions[ext]; !isImage {
		return false
	}

	if c.matchesDecorativeStem(filename, ext) && c.hasInlineMarker(contentID, size) {
		return true
	}

	if size < c.cfg.ImageDiscardFloor {
		return true
	}
	if size < c.cfg.InlineImageFloor && contentID != "" {
		return true
	}
	if size < c.cfg.BodyReferencedFloor && contentID != "" {
		if _, referenced := bodyCids[contentID]; referenced {
			return true
		}
	}
	return false
}

func (c *Classifier) matchesDecorativeStem(filename, ext string) bool {
	stem := strings.ToLower(strings.TrimSuffix(filename, "."+ext))
	for _, pattern := range decorativeStemPatterns {
		if pattern.MatchString(stem) {
			return true
		}
	}
	return false
}

// hasInlineMarker guards the name patterns: a name match alone is not enough
// to discard a large file that merely happens to be called "logo.png".
func (c *Classifier) hasInlineMarker(contentID string, size int64) bool {
	return contentID != "" || size < c.cfg.InlineMarkerSizeLimit
}
