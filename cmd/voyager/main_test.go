package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/voyager/internal/fixture"
	"github.com/Zuo-Peng/voyager/internal/scan"
)

func testPackage(t *testing.T) string {
	t.Helper()
	return fixture.Package{
		Channels: map[string]string{"100": "Direct Message with alice", "200": "general in Gophers"},
		Messages: map[string][]fixture.Message{
			"100": {
				{ID: "1", Timestamp: "2021-05-01 10:00:00.000000+00:00", Contents: "hello gopher friends"},
				{ID: "2", Timestamp: "2021-05-01 23:15:00.000000+00:00", Contents: "Joined a call."},
			},
			"200": {
				{ID: "3", Timestamp: "2022-01-03 08:00:00.000000+00:00", Contents: "gopher meetup tonight"},
				{ID: "4", Timestamp: "", Contents: ""},
			},
			"300": {
				{ID: "5", Timestamp: "2020-07-04 12:00:00.000000+00:00", Contents: "fireworks"},
			},
		},
	}.WriteZip(t, "package")
}

// run executes the CLI with an isolated home directory.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestAnalyze_JSON(t *testing.T) {
	out, _, err := run(t, "analyze", testPackage(t), "--json", "--sequential")
	require.NoError(t, err)

	var doc struct {
		Kind          string `json:"kind"`
		Sources       int    `json:"sources"`
		FailedSources []any  `json:"failedSources"`
		Stats         struct {
			TotalMessages int64            `json:"totalMessages"`
			VoiceActivity int64            `json:"voiceActivity"`
			ByYear        map[string]int64 `json:"messagesByYear"`
			Channels      map[string]struct {
				Name  string `json:"name"`
				Count int64  `json:"count"`
			} `json:"channels"`
		} `json:"stats"`
		TopWords []struct {
			Word  string `json:"word"`
			Count int64  `json:"count"`
		} `json:"topWords"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))

	assert.Equal(t, "zip", doc.Kind)
	assert.Equal(t, 3, doc.Sources)
	assert.Empty(t, doc.FailedSources)
	assert.Equal(t, int64(5), doc.Stats.TotalMessages)
	assert.Equal(t, int64(1), doc.Stats.VoiceActivity)
	assert.Equal(t, map[string]int64{"2020": 1, "2021": 2, "2022": 1}, doc.Stats.ByYear)
	assert.Equal(t, "general in Gophers", doc.Stats.Channels["200"].Name)
	assert.Equal(t, "Unknown (300)", doc.Stats.Channels["300"].Name)
	require.NotEmpty(t, doc.TopWords)
	assert.Equal(t, "gopher", doc.TopWords[0].Word)
	assert.Equal(t, int64(2), doc.TopWords[0].Count)
}

func TestAnalyze_Text(t *testing.T) {
	out, stderr, err := run(t, "analyze", testPackage(t), "--workers", "2")
	require.NoError(t, err)

	assert.Contains(t, out, "General Overview")
	assert.Contains(t, out, "Direct Message with alice")
	assert.Contains(t, out, "gopher")
	assert.NotContains(t, out, "\033[")
	assert.Contains(t, stderr, "Done. sources=3")
}

func TestAnalyze_WritesReportAndSnapshot(t *testing.T) {
	dir := t.TempDir()
	html := filepath.Join(dir, "out", "report.html")
	db := filepath.Join(dir, "out", "snap.db")

	_, _, err := run(t, "analyze", testPackage(t), "--html", html, "--db", db)
	require.NoError(t, err)
	assert.FileExists(t, html)

	out, _, err := run(t, "doctor", testPackage(t), "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "3 message logs")
	assert.Contains(t, out, "2 named, 1 without a name: 300")
	assert.Contains(t, out, "integrity ok")
	assert.Contains(t, out, "Messages: 5")
	assert.Contains(t, out, "channel counts add up")
}

func TestDoctor_MissingSnapshotIsNotCreated(t *testing.T) {
	db := filepath.Join(t.TempDir(), "missing.db")

	out, _, err := run(t, "doctor", testPackage(t), "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "FAIL")
	assert.NoFileExists(t, db)
}

func TestExport(t *testing.T) {
	db := filepath.Join(t.TempDir(), "voyager.db")
	out, _, err := run(t, "export", testPackage(t), "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Snapshot written to "+db)
	assert.FileExists(t, db)
}

func TestReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voyage.html")
	out, _, err := run(t, "report", testPackage(t), "--out", path, "--title", "My Voyage")
	require.NoError(t, err)
	assert.Contains(t, out, "Report written to "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "My Voyage")
}

func TestReport_FromSnapshot(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "snap.db")
	_, _, err := run(t, "export", testPackage(t), "--db", db)
	require.NoError(t, err)

	path := filepath.Join(dir, "from-db.html")
	out, _, err := run(t, "report", "--from-db", db, "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Report written to "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "5 messages")

	_, _, err = run(t, "report", "--from-db", filepath.Join(dir, "missing.db"), "--out", path)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, _, err = run(t, "report", testPackage(t), "--from-db", db)
	assert.Error(t, err)
}

func TestDoctor_MissingIndex(t *testing.T) {
	root := fixture.Package{
		Messages: map[string][]fixture.Message{"1": {{ID: "1", Contents: "hi"}}},
	}.WriteDir(t)

	out, _, err := run(t, "doctor", root)
	require.NoError(t, err)
	assert.Contains(t, out, "messages/index.json not found")
	assert.Contains(t, out, "Kind: directory")
}

func TestErrors(t *testing.T) {
	_, _, err := run(t, "analyze", filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, scan.ErrInvalidInput)

	_, _, err = run(t, "analyze", t.TempDir())
	assert.ErrorIs(t, err, scan.ErrNotAPackage)

	_, _, err = run(t, "analyze", testPackage(t), "--tz", "Nowhere/Special")
	assert.ErrorContains(t, err, "timezone")

	_, _, err = run(t, "browse", testPackage(t))
	assert.ErrorContains(t, err, "needs a terminal")
}

func TestPrintError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("x: %w", scan.ErrInvalidInput), ".zip or the folder"},
		{fmt.Errorf("x: %w", scan.ErrNotAPackage), "messages/index.json"},
		{errors.New("plain"), "Error: plain"},
	}
	for _, tc := range tests {
		var buf bytes.Buffer
		printError(&buf, tc.err)
		assert.Contains(t, buf.String(), tc.want)
	}
}
