package uploads

import (
	"bytes"
	"fmt"
	"image"
	"net/http"

	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	// AvatarMaxSize is the longest edge of a stored avatar, in pixels.
	AvatarMaxSize = 512
	webpQuality   = 80
)

// NormalizeAvatar validates, decodes, downscales, and re-encodes an uploaded
// avatar as WebP. Re-encoding also strips metadata from the source file.
func NormalizeAvatar(content []byte) ([]byte, error) {
	detected := http.DetectContentType(content)
	switch detected {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
	default:
		return nil, fmt.Errorf("unsupported image type %s", detected)
	}

	decoded, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	resized := resizeToFit(decoded, AvatarMaxSize, AvatarMaxSize)

	var buf bytes.Buffer
	if err := webp.Encode(&buf, resized, &webp.Options{Quality: webpQuality}); err != nil {
		return nil, fmt.Errorf("encoding webp: %w", err)
	}
	return buf.Bytes(), nil
}

// resizeToFit downscales img to fit within maxW x maxH, preserving aspect
// ratio. Images already within bounds are returned unchanged.
func resizeToFit(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxW && h <= maxH {
		return img
	}

	scaleW := float64(maxW) / float64(w)
	scaleH := float64(maxH) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}

	dstW := int(float64(w) * scale)
	dstH := int(float64(h) * scale)
	if dstW < 1 {
		dstW = 1
	}
	if dstH < 1 {
		dstH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst
}
