package mpris

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"

	"github.com/llehouerou/vplay/internal/engine"
)

// coverMaxSize bounds the longest side of exported covers, in pixels.
const coverMaxSize = 512

// artworkNames lists sidecar image names in priority order. "{stem}" is
// replaced by the media file name without its extension.
var artworkNames = []string{
	"{stem}.jpg", "{stem}.png",
	"poster.jpg", "poster.png",
	"cover.jpg", "cover.png", "cover.jpeg",
	"folder.jpg", "folder.png",
}

// FindArtwork looks for an image next to the media file. Returns the path to
// the image, or empty string if not found.
func FindArtwork(mediaPath string) string {
	if mediaPath == "" {
		return ""
	}
	dir := filepath.Dir(mediaPath)
	stem := strings.TrimSuffix(filepath.Base(mediaPath), filepath.Ext(mediaPath))
	for _, name := range artworkNames {
		path := filepath.Join(dir, strings.ReplaceAll(name, "{stem}", stem))
		if path == mediaPath {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// WriteCover stores the embedded cover of source under dir and returns its
// path. Returns empty string when there is no cover or it cannot be written.
func WriteCover(dir, source string, t engine.Tags) string {
	if len(t.Cover) == 0 {
		return ""
	}
	data, ext := scaleCover(t.Cover, t.CoverMIME)
	h := fnv.New64a()
	h.Write([]byte(source))
	path := filepath.Join(dir, fmt.Sprintf("%x%s", h.Sum64(), ext))
	if _, err := os.Stat(path); err == nil {
		return path
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ""
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // cover art is not secret
		return ""
	}
	return path
}

// scaleCover shrinks covers larger than coverMaxSize, keeping the aspect
// ratio. Images that cannot be decoded are stored as they are.
func scaleCover(data []byte, mime string) ([]byte, string) {
	ext := ".jpg"
	if mime == "image/png" {
		ext = ".png"
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data, ext
	}
	b := img.Bounds()
	if b.Dx() <= coverMaxSize && b.Dy() <= coverMaxSize {
		return data, ext
	}

	thumb := resize.Thumbnail(coverMaxSize, coverMaxSize, img, resize.Lanczos3)
	var buf bytes.Buffer
	if format == "png" {
		ext = ".png"
		err = png.Encode(&buf, thumb)
	} else {
		ext = ".jpg"
		err = jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 90})
	}
	if err != nil {
		return data, ext
	}
	return buf.Bytes(), ext
}
