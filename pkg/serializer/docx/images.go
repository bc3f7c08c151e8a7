package docx

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"

	"github.com/hashicorp-forge/hermes-export/pkg/doctree"
	"github.com/hashicorp-forge/hermes-export/pkg/ooxml"
	"github.com/hashicorp-forge/hermes-export/pkg/resource"
)

const (
	defaultImageWidth  = 400
	defaultImageHeight = 300
)

// embeddable lists the image types every word processor renders inline.
var embeddable = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/bmp":  true,
}

type embeddedImage struct {
	media  ooxml.Media
	width  int
	height int
}

// media returns the media part for src, adding it on first use. Each distinct
// URL gets exactly one part; failed or unusable payloads get the placeholder.
func (s *state) media(src string) embeddedImage {
	if img, ok := s.images[src]; ok {
		return img
	}

	data, contentType, ok := s.payload(src)
	if !ok {
		data, contentType = resource.Placeholder(), "image/png"
	}

	img := embeddedImage{media: s.pkg.AddMedia(data, contentType)}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		img.width, img.height = cfg.Width, cfg.Height
	} else if !ok {
		img.width, img.height = resource.PlaceholderSize()
	}
	s.images[src] = img
	return img
}

func (s *state) payload(src string) ([]byte, string, bool) {
	if s.resources == nil {
		s.logger.Warn("no resources resolved, using placeholder", "url", src)
		return nil, "", false
	}
	p, found := s.resources.Lookup(src)
	if !found || !p.OK() {
		s.logger.Warn("image unavailable, using placeholder", "url", src)
		return nil, "", false
	}

	contentType := p.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(p.Data)
	}
	if !embeddable[contentType] {
		s.logger.Warn("image type cannot be embedded, using placeholder", "url", src, "content_type", contentType)
		return nil, "", false
	}
	return p.Data, contentType, true
}

// imageSize returns the display size in pixels: the node's width and height
// when present (keeping the aspect ratio if only one is set), else the
// intrinsic size, else a default. The result never exceeds the text width.
func imageSize(attrs doctree.ImageAttrs, intrinsicW, intrinsicH int) (float64, float64) {
	w, hasW := doctree.Pixels(attrs.Width)
	h, hasH := doctree.Pixels(attrs.Height)

	iw, ih := float64(intrinsicW), float64(intrinsicH)
	if iw <= 0 || ih <= 0 {
		iw, ih = defaultImageWidth, defaultImageHeight
	}

	switch {
	case hasW && hasH:
	case hasW:
		h = w * ih / iw
	case hasH:
		w = h * iw / ih
	default:
		w, h = iw, ih
	}

	if w > ooxml.TextWidthPixels {
		h = h * ooxml.TextWidthPixels / w
		w = ooxml.TextWidthPixels
	}
	return w, h
}
