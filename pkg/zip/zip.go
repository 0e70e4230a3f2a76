// Package zip packages generated mockups into a single downloadable archive.
package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Asset is one file of the archive. Label is the category label the entry
// name is derived from.
type Asset struct {
	Label string
	MIME  string
	Data  []byte
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// FolderName returns the archive root folder for a design, e.g.
// "Mockups-logo-1700000000000".
func FolderName(originalFileName string, at time.Time) string {
	base := strings.TrimSpace(originalFileName)
	if i := strings.Index(base, "."); i >= 0 {
		base = base[:i]
	}
	if base == "" {
		base = "Design"
	}
	return fmt.Sprintf("Mockups-%s-%d", fold(base), at.UnixMilli())
}

// EntryName returns the file name of the idx-th (0-based) asset: the label
// with accents folded and every other non-alphanumeric rune replaced by "_".
func EntryName(label string, idx int, mimeType string) string {
	return fmt.Sprintf("%s_%d%s", unsafeChars.ReplaceAllString(fold(label), "_"), idx+1, extension(mimeType))
}

// fold strips combining marks so "Cerâmica" becomes "Ceramica".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func extension(mimeType string) string {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

// Write streams the archive to w. Assets without data are skipped; entries
// keep the position of the asset in the input.
func Write(w io.Writer, folder string, assets []Asset) (int, error) {
	zw := zip.NewWriter(w)
	written := 0
	for idx, asset := range assets {
		if len(asset.Data) == 0 {
			continue
		}
		name := EntryName(asset.Label, idx, asset.MIME)
		if folder != "" {
			name = path.Join(folder, name)
		}
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store, Modified: time.Now()})
		if err != nil {
			return written, fmt.Errorf("zip: create %s: %w", name, err)
		}
		if _, err := fw.Write(asset.Data); err != nil {
			return written, fmt.Errorf("zip: write %s: %w", name, err)
		}
		written++
	}
	if err := zw.Close(); err != nil {
		return written, fmt.Errorf("zip: close: %w", err)
	}
	return written, nil
}

// ArchiveAssets builds the whole archive in memory.
func ArchiveAssets(folder string, assets []Asset) ([]byte, error) {
	buf := &bytes.Buffer{}
	if _, err := Write(buf, folder, assets); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
