package chi

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// allowedFile reports whether the name carries a .pdf extension, any case.
func allowedFile(name string) bool {
	i := strings.LastIndex(name, ".")
	return i >= 0 && strings.EqualFold(name[i+1:], "pdf")
}

// secureFilename reduces a client-supplied name to a flat ASCII file name.
// Separators become spaces, runs of whitespace become underscores and
// leading/trailing dots and underscores are stripped.
func secureFilename(name string) string {
	var b strings.Builder
	for _, r := range norm.NFKD.String(name) {
		if r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	s := b.String()
	s = strings.NewReplacer("/", " ", `\`, " ").Replace(s)
	s = strings.Join(strings.Fields(s), "_")
	s = unsafeFilenameChars.ReplaceAllString(s, "")
	return strings.Trim(s, "._")
}

// storeUpload writes one multipart file into the upload directory and returns
// its absolute path. An existing file with the same name is overwritten.
func (s *Server) storeUpload(fh *multipart.FileHeader) (string, error) {
	name := secureFilename(fh.Filename)
	if name == "" {
		return "", fmt.Errorf("filename %q is empty after sanitizing", fh.Filename)
	}

	dir, err := filepath.Abs(s.cfg.UploadDir)
	if err != nil {
		return "", fmt.Errorf("resolve upload dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open part: %w", err)
	}
	defer func() { _ = src.Close() }()

	path := filepath.Join(dir, name)
	dst, err := os.Create(path) //nolint:gosec // name is sanitized to a single path element
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}
