// Package media turns uploaded image and video files into data URLs that
// can be embedded in block content.
package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/kilupskalvis/folio/internal/models"
)

var (
	ErrUnsupportedMedia = errors.New("unsupported media type")
	ErrTooLarge         = errors.New("media file too large")
)

// Options limits what Import accepts.
type Options struct {
	MaxBytes      int64 // 0 means unlimited
	MaxImageWidth int   // wider images are downscaled; 0 keeps the original size
}

// Asset is an imported media file.
type Asset struct {
	BlockType models.BlockType
	MIME      string
	Width     int
	Height    int
	Resized   bool
	DataURL   string
}

// Import reads a media file, detects its type from content and encodes it as
// a data URL. Images wider than MaxImageWidth are downscaled first.
func Import(r io.Reader, opts Options) (*Asset, error) {
	if opts.MaxBytes > 0 {
		r = io.LimitReader(r, opts.MaxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read media: %w", err)
	}
	if opts.MaxBytes > 0 && int64(len(data)) > opts.MaxBytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, opts.MaxBytes)
	}

	mt := mimetype.Detect(data)
	mime := mt.String()
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}

	switch {
	case strings.HasPrefix(mime, "video/"):
		return &Asset{BlockType: models.BlockVideo, MIME: mime, DataURL: dataURL(mime, data)}, nil
	case mime == "image/svg+xml":
		return &Asset{BlockType: models.BlockImage, MIME: mime, DataURL: dataURL(mime, data)}, nil
	case strings.HasPrefix(mime, "image/"):
		return importImage(mime, data, opts)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMedia, mime)
	}
}

func importImage(mime string, data []byte, opts Options) (*Asset, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		// Formats imaging cannot decode (webp, avif) are embedded unchanged.
		if errors.Is(err, image.ErrFormat) {
			return &Asset{BlockType: models.BlockImage, MIME: mime, DataURL: dataURL(mime, data)}, nil
		}
		return nil, fmt.Errorf("decode image: %w", err)
	}

	asset := &Asset{
		BlockType: models.BlockImage,
		MIME:      mime,
		Width:     img.Bounds().Dx(),
		Height:    img.Bounds().Dy(),
	}
	if opts.MaxImageWidth <= 0 || asset.Width <= opts.MaxImageWidth {
		asset.DataURL = dataURL(mime, data)
		return asset, nil
	}

	resized := imaging.Resize(img, opts.MaxImageWidth, 0, imaging.Lanczos)
	format := imaging.PNG
	if mime == "image/jpeg" {
		format = imaging.JPEG
	} else {
		asset.MIME = "image/png"
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	asset.Width = resized.Bounds().Dx()
	asset.Height = resized.Bounds().Dy()
	asset.Resized = true
	asset.DataURL = dataURL(asset.MIME, buf.Bytes())
	return asset, nil
}

func dataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
