package blobstore

import (
	"bytes"
	"errors"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"net/http"
	"strings"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	// MaxImageSize bounds the longest edge of a stored image.
	MaxImageSize = 2048
	// JPEGQuality is the quality used when re-encoding images.
	JPEGQuality = 82
	// MaxUploadBytes is the largest accepted source image.
	MaxUploadBytes = 10 * 1024 * 1024
	// ContentTypeJPEG is the content type of every prepared image.
	ContentTypeJPEG = "image/jpeg"
)

// Image preparation errors.
var (
	ErrEmptyImage       = errors.New("no image data")
	ErrImageTooLarge    = errors.New("image too large")
	ErrUnsupportedImage = errors.New("unsupported image type")
)

// PrepareImage decodes a JPEG, PNG, GIF or WebP image, scales it down to fit
// MaxImageSize and re-encodes it as JPEG.
func PrepareImage(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	if len(data) > MaxUploadBytes {
		return nil, ErrImageTooLarge
	}
	if !isAllowedImageMIME(http.DetectContentType(data)) {
		return nil, ErrUnsupportedImage
	}

	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrUnsupportedImage
	}

	return encodeJPEG(resizeToFit(decoded, MaxImageSize, MaxImageSize), JPEGQuality)
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if s := float64(maxHeight) / float64(h); s < scale {
		scale = s
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0])) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}
