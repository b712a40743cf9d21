// Package imagestego buries a byte frame in the least-significant bits
// of an image's RGB channels and digs it back out. The alpha channel is
// left alone: alpha noise is visible on composited backgrounds.
//
// Frame layout: "NHPX" magic, 4-byte big-endian length, 4-byte Adler-32
// checksum of the data, then the data itself.
package imagestego

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/adler32"
	"image"
	"image/draw"
	"image/png"
)

var (
	ErrImageTooSmall = errors.New("imagestego: image too small for payload")
	ErrNoPayload     = errors.New("imagestego: image carries no payload")
	ErrChecksum      = errors.New("imagestego: payload checksum mismatch")
)

var frameMagic = []byte("NHPX")

const frameHeaderSize = 12 // magic + length + checksum

// Capacity returns how many payload bytes an image of the given bounds
// can hold after frame overhead.
func Capacity(bounds image.Rectangle) int {
	channels := bounds.Dx() * bounds.Dy() * 3
	capacity := channels/8 - frameHeaderSize
	if capacity < 0 {
		return 0
	}
	return capacity
}

// Embed writes data into a copy of img. The original is not modified.
func Embed(img image.Image, data []byte) (*image.RGBA, error) {
	if len(data) > Capacity(img.Bounds()) {
		return nil, fmt.Errorf("%w: %d bytes into %v", ErrImageTooSmall, len(data), img.Bounds())
	}

	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)

	framed := make([]byte, 0, frameHeaderSize+len(data))
	framed = append(framed, frameMagic...)
	framed = binary.BigEndian.AppendUint32(framed, uint32(len(data)))
	framed = binary.BigEndian.AppendUint32(framed, adler32.Checksum(data))
	framed = append(framed, data...)

	bit := 0
	for i := 0; i < len(rgba.Pix) && bit < len(framed)*8; i++ {
		if (i+1)%4 == 0 {
			continue // alpha
		}
		b := framed[bit/8] >> uint(7-bit%8) & 1
		rgba.Pix[i] = rgba.Pix[i]&0xFE | b
		bit++
	}
	return rgba, nil
}

// Extract recovers the embedded frame from img.
func Extract(img image.Image) ([]byte, error) {
	rgba, ok := img.(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(img.Bounds())
		draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	}

	var buf bytes.Buffer
	var cur byte
	n := 0
	for i, b := range rgba.Pix {
		if (i+1)%4 == 0 {
			continue
		}
		cur = cur<<1 | b&1
		n++
		if n%8 == 0 {
			buf.WriteByte(cur)
			cur = 0
		}
	}
	raw := buf.Bytes()

	if len(raw) < frameHeaderSize || !bytes.Equal(raw[:4], frameMagic) {
		return nil, ErrNoPayload
	}
	length := binary.BigEndian.Uint32(raw[4:8])
	sum := binary.BigEndian.Uint32(raw[8:12])
	if uint64(frameHeaderSize)+uint64(length) > uint64(len(raw)) {
		return nil, ErrNoPayload
	}
	data := raw[frameHeaderSize : frameHeaderSize+length]
	if adler32.Checksum(data) != sum {
		return nil, ErrChecksum
	}
	return data, nil
}

// EmbedPNG decodes a PNG, embeds data and re-encodes. PNG is the only
// supported container: a lossy format would grind the low bits off.
func EmbedPNG(pngData, data []byte) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(pngData))
	if err != nil {
		return nil, fmt.Errorf("decode png: %w", err)
	}
	stego, err := Embed(img, data)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := png.Encode(&out, stego); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return out.Bytes(), nil
}

// ExtractPNG decodes a PNG and recovers its embedded frame.
func ExtractPNG(pngData []byte) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(pngData))
	if err != nil {
		return nil, fmt.Errorf("decode png: %w", err)
	}
	return Extract(img)
}
