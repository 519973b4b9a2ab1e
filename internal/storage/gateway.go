package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	// LocatorPrefix is the URL prefix every managed blob locator starts with.
	LocatorPrefix = "/static/"
	// UploadPrefix marks locators whose bytes this gateway owns and may delete.
	UploadPrefix = "/static/uploads/"
)

// Gateway maps blob locators to files under the static content root. Locators
// are URL paths like /static/uploads/<name>; anything resolving outside the
// root is rejected.
type Gateway struct {
	root      string // absolute static root
	uploadDir string // writable area for uploaded blobs
}

func NewGateway(staticRoot string) (*Gateway, error) {
	root, err := filepath.Abs(staticRoot)
	if err != nil {
		return nil, err
	}

	uploadDir := filepath.Join(root, "uploads")
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, err
	}

	return &Gateway{root: root, uploadDir: uploadDir}, nil
}

// Store persists bytes under a collision-resistant name in the upload area and
// returns the locator plus the number of bytes written.
func (g *Gateway) Store(src io.Reader, originalName string) (string, int64, error) {
	name := uuid.NewString() + sanitizeExt(originalName)

	dst, err := os.Create(filepath.Join(g.uploadDir, name))
	if err != nil {
		return "", 0, err
	}

	written, err := io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(dst.Name())
		return "", 0, err
	}

	return UploadPrefix + name, written, nil
}

// Resolve maps a locator to an absolute path inside the static root. A locator
// that walks out of the root (crafted "..", absolute paths) or points to a
// missing file yields an error.
func (g *Gateway) Resolve(locator string) (string, error) {
	if !strings.HasPrefix(locator, LocatorPrefix) {
		return "", fmt.Errorf("locator %q is not managed by this gateway", locator)
	}

	rel := filepath.FromSlash(strings.TrimPrefix(locator, LocatorPrefix))
	abs := filepath.Join(g.root, rel)

	// Containment check: the cleaned path must still live under the root.
	inside, err := filepath.Rel(g.root, abs)
	if err != nil || inside == ".." || strings.HasPrefix(inside, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("locator %q escapes the storage root", locator)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("locator %q is a directory", locator)
	}

	return abs, nil
}

// Release deletes the bytes behind a locator if they live in the managed
// upload area. Seeded or external locators are left untouched. A missing file
// counts as released, so retries are safe.
func (g *Gateway) Release(locator string) error {
	if !strings.HasPrefix(locator, UploadPrefix) {
		return nil
	}

	abs, err := g.Resolve(locator)
	if err != nil {
		// already gone, or a locator that doesn't map into the managed area
		return nil
	}

	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// sanitizeExt keeps the original extension so mime sniffing by path still
// works, but strips anything that could smuggle path separators.
func sanitizeExt(name string) string {
	ext := filepath.Ext(filepath.Base(name))
	if strings.ContainsAny(ext, "/\\") || len(ext) > 16 {
		return ""
	}
	return ext
}
