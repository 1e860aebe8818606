package blobstore

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathFromURL(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		bucket string
		want   string
		ok     bool
	}{
		{
			name:   "post image url",
			url:    "https://x.supabase.co/storage/v1/object/public/post-images/u1/p1.jpg",
			bucket: BucketPostImages,
			want:   "u1/p1.jpg",
			ok:     true,
		},
		{
			name:   "avatar url",
			url:    "http://localhost:8080/storage/v1/object/public/avatars/u1/avatar.jpg",
			bucket: BucketAvatars,
			want:   "u1/avatar.jpg",
			ok:     true,
		},
		{
			name:   "bucket prefix missing",
			url:    "https://cdn.example.com/images/u1/p1.jpg",
			bucket: BucketPostImages,
			ok:     false,
		},
		{
			name:   "nothing after bucket",
			url:    "https://x/storage/v1/object/public/post-images/",
			bucket: BucketPostImages,
			ok:     false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PathFromURL(tt.url, tt.bucket)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildPublicURL_RoundTripsThroughPathFromURL(t *testing.T) {
	url := BuildPublicURL("https://cdn.example.com/", BucketPostImages, PostImagePath("u1", "p1"))
	assert.Equal(t, "https://cdn.example.com/storage/v1/object/public/post-images/u1/p1.jpg", url)

	path, ok := PathFromURL(url, BucketPostImages)
	require.True(t, ok)
	assert.Equal(t, "u1/p1.jpg", path)
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 7 {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPrepareImage_ScalesAndReencodes(t *testing.T) {
	out, err := PrepareImage(encodePNG(t, 4096, 1024))
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 2048, cfg.Width)
	assert.Equal(t, 512, cfg.Height)
}

func TestPrepareImage_SmallImageKeepsSize(t *testing.T) {
	out, err := PrepareImage(encodePNG(t, 64, 32))
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 64, decoded.Bounds().Dx())
	assert.Equal(t, 32, decoded.Bounds().Dy())
}

func TestPrepareImage_Rejects(t *testing.T) {
	_, err := PrepareImage(nil)
	assert.ErrorIs(t, err, ErrEmptyImage)

	_, err = PrepareImage([]byte("definitely not an image"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	_, err = PrepareImage(make([]byte, MaxUploadBytes+1))
	assert.ErrorIs(t, err, ErrImageTooLarge)
}
