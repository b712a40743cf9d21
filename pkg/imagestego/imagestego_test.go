package imagestego_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nahan-im/nahan/pkg/imagestego"
)

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(x * 7),
				G: uint8(y * 13),
				B: uint8((x + y) * 3),
				A: 255,
			})
		}
	}
	return img
}

func TestEmbedExtractRoundTrip(t *testing.T) {
	img := testImage(64, 64)
	payload := []byte("buried twelve pixels deep")

	stego, err := imagestego.Embed(img, payload)
	require.NoError(t, err)

	got, err := imagestego.Extract(stego)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestPNGRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(48, 48)))

	payload := bytes.Repeat([]byte{0xA5, 0x5A}, 100)
	stegoPNG, err := imagestego.EmbedPNG(buf.Bytes(), payload)
	require.NoError(t, err)

	got, err := imagestego.ExtractPNG(stegoPNG)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestCapacity(t *testing.T) {
	// 64x64x3 channels / 8 = 1536 bytes minus 12 bytes frame overhead.
	assert.Equal(t, 1524, imagestego.Capacity(image.Rect(0, 0, 64, 64)))
	assert.Zero(t, imagestego.Capacity(image.Rect(0, 0, 2, 2)))
}

func TestEmbedRejectsOversizedPayload(t *testing.T) {
	img := testImage(8, 8)
	_, err := imagestego.Embed(img, make([]byte, 1024))
	assert.ErrorIs(t, err, imagestego.ErrImageTooSmall)
}

func TestExtractCleanImage(t *testing.T) {
	_, err := imagestego.Extract(testImage(32, 32))
	assert.ErrorIs(t, err, imagestego.ErrNoPayload)
}
