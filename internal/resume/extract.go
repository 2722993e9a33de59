// Package resume turns uploaded CV files into plain text for scoring.
package resume

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"code.sajari.com/docconv"
	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// ErrUnsupportedType is returned for file extensions we cannot read.
var ErrUnsupportedType = errors.New("unsupported file type")

// ErrTooLarge is returned when an upload exceeds the configured limit.
var ErrTooLarge = errors.New("file too large")

// SupportedExtensions lists the extensions ExtractText accepts.
var SupportedExtensions = []string{".txt", ".html", ".htm", ".pdf", ".doc", ".docx", ".odt", ".rtf"}

// ExtractText reads the text content of a CV. The format is taken from the
// filename extension.
func ExtractText(filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		b, err := io.ReadAll(r)
		if err != nil {
			return "", errors.Wrap(err, "read text file")
		}
		return cleanWhitespace(string(b)), nil
	case ".html", ".htm":
		b, err := io.ReadAll(r)
		if err != nil {
			return "", errors.Wrap(err, "read html file")
		}
		return TextFromHTML(string(b))
	case ".pdf", ".doc", ".docx", ".odt", ".rtf":
		res, err := docconv.Convert(r, docconv.MimeTypeByExtension(filename), true)
		if err != nil {
			return "", errors.Wrapf(err, "convert %s document", ext)
		}
		return cleanWhitespace(res.Body), nil
	default:
		return "", errors.Wrapf(ErrUnsupportedType, "%q", ext)
	}
}

// TextFromHTML returns the visible text of an HTML résumé with scripts,
// styles and page chrome removed.
func TextFromHTML(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", errors.Wrap(err, "parse HTML")
	}
	doc.Find("script, style, noscript, nav, footer").Remove()

	body := doc.Find("main")
	if body.Length() == 0 {
		body = doc.Find("body")
	}
	// put block elements on their own lines so words do not run together
	body.Find("p, li, div, h1, h2, h3, h4, br, tr").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})
	return cleanWhitespace(body.Text()), nil
}

// Document is a stored upload and the text extracted from it.
type Document struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	Text     string `json:"-"`
}

// Store saves CV uploads to a directory and extracts their text.
type Store struct {
	dir     string
	maxSize int64
}

// NewStore returns a Store writing under dir. maxSize <= 0 means no limit.
func NewStore(dir string, maxSize int64) *Store {
	return &Store{dir: dir, maxSize: maxSize}
}

// MaxSize is the largest accepted upload in bytes, 0 when unlimited.
func (s *Store) MaxSize() int64 {
	return s.maxSize
}

// Save writes the upload under a generated name and extracts its text. The
// file is removed again when extraction fails.
func (s *Store) Save(filename string, r io.Reader) (*Document, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !slices.Contains(SupportedExtensions, ext) {
		return nil, errors.Wrapf(ErrUnsupportedType, "%q", ext)
	}

	var buf bytes.Buffer
	src := r
	if s.maxSize > 0 {
		src = io.LimitReader(r, s.maxSize+1)
	}
	size, err := io.Copy(&buf, src)
	if err != nil {
		return nil, errors.Wrap(err, "read upload")
	}
	if s.maxSize > 0 && size > s.maxSize {
		return nil, errors.Wrapf(ErrTooLarge, "limit is %d bytes", s.maxSize)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create uploads dir")
	}
	path := filepath.Join(s.dir, uuid.NewString()+ext)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return nil, errors.Wrap(err, "save upload")
	}

	text, err := ExtractText(filename, bytes.NewReader(buf.Bytes()))
	if err != nil {
		_ = os.Remove(path)
		return nil, err
	}

	return &Document{
		Filename: filepath.Base(filename),
		Path:     path,
		Size:     size,
		Text:     text,
	}, nil
}

// cleanWhitespace trims every line and drops empty ones.
func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
