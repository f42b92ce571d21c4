// Package imagestore persists recipe images uploaded as base64 data URIs
// and serves them back as files under the media directory.
//
// Clients send images inline in the recipe JSON ("data:image/png;base64,...")
// rather than as multipart forms, so create and update stay single-request.
// The store decodes the payload, re-encodes it as JPEG (bounded in size) and
// returns the /media/... URL path recorded on the recipe row.
package imagestore

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rs/xid"
)

// maxWidth bounds stored images; anything wider is downscaled with the
// aspect ratio preserved. Uploads are photos for recipe cards, not print
// assets.
const maxWidth = 1280

// maxEncodedBytes rejects absurd payloads before base64 decoding.
// 10MB of base64 is roughly a 7.5MB image.
const maxEncodedBytes = 10 << 20

// Store writes images to dir and returns URL paths under urlPrefix.
type Store struct {
	dir       string
	urlPrefix string
}

// New creates the media directory if needed.
func New(dir, urlPrefix string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, "recipes"), 0o755); err != nil {
		return nil, fmt.Errorf("imagestore: creating media dir: %w", err)
	}
	return &Store{
		dir:       dir,
		urlPrefix: strings.TrimSuffix(urlPrefix, "/"),
	}, nil
}

// Save decodes a data URI, normalizes the image to a bounded JPEG and writes
// it under dir/recipes. Returns the URL path the image is served from.
func (s *Store) Save(dataURI string) (string, error) {
	raw, err := decodeDataURI(dataURI)
	if err != nil {
		return "", err
	}

	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("imagestore: decoding image: %w", err)
	}

	if img.Bounds().Dx() > maxWidth {
		// Height 0 preserves the aspect ratio.
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	fileName := xid.New().String() + ".jpg"
	fullPath := filepath.Join(s.dir, "recipes", fileName)
	if err := imaging.Save(img, fullPath, imaging.JPEGQuality(85)); err != nil {
		return "", fmt.Errorf("imagestore: saving image: %w", err)
	}

	return s.urlPrefix + "/recipes/" + fileName, nil
}

// Remove deletes the file behind a URL path previously returned by Save.
// Paths outside the store's prefix and already-gone files are ignored, so
// callers can fire it after a delete without checking what the row held.
func (s *Store) Remove(urlPath string) error {
	rest, ok := strings.CutPrefix(urlPath, s.urlPrefix+"/recipes/")
	if !ok || rest == "" {
		return nil
	}

	// Base strips any path traversal a stored row could smuggle in.
	fullPath := filepath.Join(s.dir, "recipes", filepath.Base(rest))
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("imagestore: removing image: %w", err)
	}
	return nil
}

// decodeDataURI accepts "data:image/<type>;base64,<payload>" and, as a
// convenience, bare base64 without the prefix.
func decodeDataURI(dataURI string) ([]byte, error) {
	payload := dataURI
	if strings.HasPrefix(dataURI, "data:") {
		idx := strings.Index(dataURI, ",")
		if idx < 0 {
			return nil, fmt.Errorf("imagestore: malformed data URI")
		}
		header := dataURI[:idx]
		if !strings.Contains(header, ";base64") {
			return nil, fmt.Errorf("imagestore: data URI must be base64 encoded")
		}
		payload = dataURI[idx+1:]
	}

	if len(payload) == 0 {
		return nil, fmt.Errorf("imagestore: empty image payload")
	}
	if len(payload) > maxEncodedBytes {
		return nil, fmt.Errorf("imagestore: image payload exceeds %d bytes", maxEncodedBytes)
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("imagestore: decoding base64: %w", err)
	}
	return raw, nil
}
