// Package fixture builds small Discord data packages on disk for tests.
package fixture

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
)

// Header is the column layout Discord uses for messages.csv.
var Header = []string{"ID", "Timestamp", "Contents", "Attachments"}

// Message is one CSV data row in Header order.
type Message struct {
	ID          string
	Timestamp   string
	Contents    string
	Attachments string
}

// Package describes the files of a fixture export. Index is written verbatim
// when RawIndex is set, otherwise Channels becomes the index when non-nil.
type Package struct {
	Channels map[string]string
	RawIndex string
	Messages map[string][]Message // channel id -> rows
	Extra    map[string]string    // additional relative path -> content
}

// Files renders the package as relative path -> content.
func (p Package) Files(t *testing.T) map[string]string {
	t.Helper()

	files := map[string]string{}
	switch {
	case p.RawIndex != "":
		files["messages/index.json"] = p.RawIndex
	case p.Channels != nil:
		files["messages/index.json"] = indexJSON(t, p.Channels)
	}

	for id, rows := range p.Messages {
		files["messages/c"+id+"/messages.csv"] = CSV(t, rows)
	}
	for name, content := range p.Extra {
		files[name] = content
	}
	return files
}

// CSV renders rows with the standard header.
func CSV(t *testing.T, rows []Message) string {
	t.Helper()

	var buf strings.Builder
	w := csv.NewWriter(&buf)
	require.NoError(t, w.Write(Header))
	for _, r := range rows {
		require.NoError(t, w.Write([]string{r.ID, r.Timestamp, r.Contents, r.Attachments}))
	}
	w.Flush()
	require.NoError(t, w.Error())
	return buf.String()
}

// WriteDir writes the package under a fresh temp directory and returns it.
func (p Package) WriteDir(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	WriteFiles(t, root, p.Files(t))
	return root
}

// WriteZip writes the package as a zip archive and returns its path.
// prefix, if non-empty, nests every entry under that folder.
func (p Package) WriteZip(t *testing.T, prefix string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "package.zip")
	files := p.Files(t)
	if prefix != "" {
		nested := make(map[string]string, len(files))
		for name, content := range files {
			nested[prefix+"/"+name] = content
		}
		files = nested
	}
	WriteZipFiles(t, path, files)
	return path
}

// WriteFiles writes relative path -> content under root.
func WriteFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		full := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

// WriteZipFiles writes a zip archive with deterministic entry order.
func WriteZipFiles(t *testing.T, path string, files map[string]string) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	zw := zip.NewWriter(f)
	for _, name := range names {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(files[name]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

func indexJSON(t *testing.T, channels map[string]string) string {
	t.Helper()

	data, err := json.Marshal(channels)
	require.NoError(t, err)
	return string(data)
}
