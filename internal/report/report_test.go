package report_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/voyager/internal/parse"
	"github.com/Zuo-Peng/voyager/internal/report"
	"github.com/Zuo-Peng/voyager/internal/stats"
)

var fixedNow = func() time.Time { return time.Date(2024, 2, 29, 13, 37, 0, 0, time.UTC) }

func sample() *stats.Stats {
	s := stats.New()
	names := map[string]string{}
	for c := range 15 {
		id := fmt.Sprint(100 + c)
		names[id] = fmt.Sprintf("channel-%02d", c)
		for i := range c + 1 {
			s.Add(id, parse.Row{
				Timestamp:    time.Date(2018+i%3, 1, 1+i, i%24, 0, 0, 0, time.UTC),
				HasTimestamp: true,
				Contents:     fmt.Sprintf("banter%d snack", c),
			})
		}
	}
	s.ChannelNames = names
	s.Finalize(stats.DefaultTopWords)
	return s
}

func TestWrite(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf, sample(), report.Options{Title: "Alice's Voyage", Now: fixedNow}))
	html := buf.String()

	assert.Contains(t, html, "<html")
	assert.Contains(t, html, "echarts")
	assert.Contains(t, html, "Activity by Year")
	assert.Contains(t, html, "Weekly Activity")
	assert.Contains(t, html, "Daily Activity (Hourly)")
	assert.Contains(t, html, "Top Communities")
	assert.Contains(t, html, "Top Words")
	assert.Contains(t, html, "2024-02-29 13:37")
	assert.Contains(t, html, "120 messages")

	// top 10 of 15 channels
	assert.Contains(t, html, "channel-14")
	assert.Contains(t, html, "channel-05")
	assert.NotContains(t, html, "channel-04")

	assert.Contains(t, html, "snack")
}

func TestWrite_EmptyAggregate(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf, stats.New(), report.Options{Now: fixedNow}))
	assert.Contains(t, buf.String(), "Discord Data Package")
	assert.Contains(t, buf.String(), "0 messages")
}

func TestWriteFile_CreatesParents(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "reports", "nested", "voyage.html")
	require.NoError(t, report.WriteFile(path, sample(), report.Options{Now: fixedNow}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Top Communities")
}
