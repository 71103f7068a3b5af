package scan

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"
)

var (
	// ErrInvalidInput means the path is neither a directory nor a readable zip archive.
	ErrInvalidInput = errors.New("invalid input path")
	// ErrNotAPackage means the container has no messages/index.json and no message logs.
	ErrNotAPackage = errors.New("not a Discord data package: could not find 'messages/index.json' or any message CSV files")
)

const indexSuffix = "messages/index.json"

// messagePathRe matches slash-normalized relative paths of channel logs.
var messagePathRe = regexp.MustCompile(`(?:^|/)messages/c(\d+)/messages\.csv$`)

type Kind int

const (
	KindDir Kind = iota
	KindZip
)

func (k Kind) String() string {
	if k == KindZip {
		return "zip"
	}
	return "directory"
}

// Source is one channel's message log. Open may be called concurrently;
// every call returns an independent stream.
type Source struct {
	ChannelID string
	Path      string // slash-separated, relative to the package root
	Size      int64
	open      func() (io.ReadCloser, error)
}

// NewSource builds a source for channelID backed by an arbitrary opener.
func NewSource(channelID, path string, open func() (io.ReadCloser, error)) Source {
	return Source{ChannelID: channelID, Path: path, open: open}
}

func (s Source) Open() (io.ReadCloser, error) {
	if s.open == nil {
		return nil, fmt.Errorf("source %s: no opener", s.Path)
	}
	rc, err := s.open()
	if err != nil {
		return nil, err
	}
	return skipBOM(rc), nil
}

// Package is an enumerated Discord export.
type Package struct {
	Kind     Kind
	Root     string
	Index    map[string]string
	HasIndex bool
	IndexErr error // set when the index was present but could not be decoded
	Sources  []Source

	closer io.Closer
}

// Close releases the underlying archive, if any.
func (p *Package) Close() error {
	if p == nil || p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

// Enumerate inspects a zip archive or directory and returns its channel index
// and message sources.
func Enumerate(path string) (*Package, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidInput, path, err)
	}

	var pkg *Package
	if info.IsDir() {
		pkg, err = enumerateDir(path)
	} else {
		pkg, err = enumerateZip(path)
	}
	if err != nil {
		return nil, err
	}

	if !pkg.HasIndex && len(pkg.Sources) == 0 {
		pkg.Close()
		return nil, fmt.Errorf("%w (%s)", ErrNotAPackage, path)
	}

	sort.Slice(pkg.Sources, func(i, j int) bool {
		a, b := pkg.Sources[i], pkg.Sources[j]
		if a.ChannelID != b.ChannelID {
			return a.ChannelID < b.ChannelID
		}
		return a.Path < b.Path
	})
	return pkg, nil
}

// ChannelIDFromPath extracts the channel id from a message log path,
// accepting either separator. It returns false if the path is not a log.
func ChannelIDFromPath(p string) (string, bool) {
	m := messagePathRe.FindStringSubmatch(normalize(p))
	if m == nil {
		return "", false
	}
	return m[1], true
}

func normalize(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

// indexPick tracks the shallowest index candidate seen so far. A package
// extracted or zipped with its top folder puts the index one level down.
type indexPick struct {
	depth int
	found bool
}

// better records name and reports true when it is shallower than the current pick.
func (p *indexPick) better(name string) bool {
	depth := strings.Count(name, "/")
	if p.found && depth >= p.depth {
		return false
	}
	p.depth, p.found = depth, true
	return true
}

func isIndexPath(name string) bool {
	return name == indexSuffix || strings.HasSuffix(name, "/"+indexSuffix)
}

func enumerateDir(root string) (*Package, error) {
	pkg := &Package{Kind: KindDir, Root: root, Index: map[string]string{}}

	// WalkDir does not follow a symlinked root.
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidInput, root, err)
	}

	var pick indexPick
	err = filepath.WalkDir(resolved, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(resolved, path)
		if err != nil {
			return nil
		}
		rel = normalize(filepath.ToSlash(rel))

		if isIndexPath(rel) {
			if pick.better(rel) {
				pkg.HasIndex = true
				pkg.Index, pkg.IndexErr = readIndexFile(path)
			}
			return nil
		}

		id, ok := ChannelIDFromPath(rel)
		if !ok {
			return nil
		}
		var size int64
		if fi, err := d.Info(); err == nil {
			size = fi.Size()
		}
		full := path
		pkg.Sources = append(pkg.Sources, Source{
			ChannelID: id,
			Path:      rel,
			Size:      size,
			open:      func() (io.ReadCloser, error) { return os.Open(full) },
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: walk %s: %v", ErrInvalidInput, root, err)
	}
	return pkg, nil
}

func readIndexFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return map[string]string{}, fmt.Errorf("%w: %v", ErrMalformedIndex, err)
	}
	defer f.Close()
	return indexOrEmpty(ParseIndex(f))
}

func enumerateZip(path string) (*Package, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not a directory or zip archive: %v", ErrInvalidInput, path, err)
	}

	pkg := &Package{Kind: KindZip, Root: path, Index: map[string]string{}, closer: zr}

	var pick indexPick
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := normalize(f.Name)

		if isIndexPath(name) {
			if pick.better(name) {
				pkg.HasIndex = true
				pkg.Index, pkg.IndexErr = readIndexEntry(f)
			}
			continue
		}

		id, ok := ChannelIDFromPath(name)
		if !ok {
			continue
		}
		entry := f
		pkg.Sources = append(pkg.Sources, Source{
			ChannelID: id,
			Path:      name,
			Size:      int64(f.UncompressedSize64),
			open:      func() (io.ReadCloser, error) { return entry.Open() },
		})
	}
	return pkg, nil
}

func readIndexEntry(f *zip.File) (map[string]string, error) {
	rc, err := f.Open()
	if err != nil {
		return map[string]string{}, fmt.Errorf("%w: %v", ErrMalformedIndex, err)
	}
	defer rc.Close()
	return indexOrEmpty(ParseIndex(rc))
}

func indexOrEmpty(m map[string]string, err error) (map[string]string, error) {
	if err != nil {
		return map[string]string{}, err
	}
	return m, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type bomReader struct {
	*bufio.Reader
	c io.Closer
}

func (b bomReader) Close() error { return b.c.Close() }

// skipBOM drops a leading UTF-8 byte order mark.
func skipBOM(rc io.ReadCloser) io.ReadCloser {
	br := bufio.NewReader(rc)
	if head, err := br.Peek(len(utf8BOM)); err == nil && string(head) == string(utf8BOM) {
		br.Discard(len(utf8BOM))
	}
	return bomReader{Reader: br, c: rc}
}
