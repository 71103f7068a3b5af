package parse_test

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/voyager/internal/parse"
)

func TestRows_DiscordLayout(t *testing.T) {
	t.Parallel()

	input := "ID,Timestamp,Contents,Attachments\n" +
		"1,2021-05-01 10:00:00.123000+00:00,hello world,\n" +
		"2,2021-05-01 23:00:00+00:00,Joined a call.,\n"

	rows, err := parse.ReadAll(strings.NewReader(input), parse.Options{})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.True(t, rows[0].HasTimestamp)
	assert.Equal(t, 2021, rows[0].Timestamp.Year())
	assert.Equal(t, 10, rows[0].Timestamp.Hour())
	assert.Equal(t, "hello world", rows[0].Contents)
	assert.Equal(t, 2, rows[0].Line)

	assert.Equal(t, 23, rows[1].Timestamp.Hour())
	assert.Equal(t, "Joined a call.", rows[1].Contents)
	assert.Equal(t, 3, rows[1].Line)
}

func TestRows_ColumnOrderIrrelevant(t *testing.T) {
	t.Parallel()

	input := "Contents,Attachments, TIMESTAMP ,ID\n" +
		"hi there,,2020-02-03T04:05:06,9\n"

	rows, err := parse.ReadAll(strings.NewReader(input), parse.Options{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "hi there", rows[0].Contents)
	assert.Equal(t, time.Date(2020, 2, 3, 4, 5, 6, 0, time.UTC), rows[0].Timestamp)
}

func TestRows_MissingOrBadTimestampKeepsRow(t *testing.T) {
	t.Parallel()

	input := "ID,Timestamp,Contents\n" +
		"1,,empty stamp\n" +
		"2,yesterday,bad stamp\n"

	rows, err := parse.ReadAll(strings.NewReader(input), parse.Options{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.False(t, r.HasTimestamp)
		assert.True(t, r.Timestamp.IsZero())
	}
	assert.Equal(t, "bad stamp", rows[1].Contents)
}

func TestRows_MissingColumns(t *testing.T) {
	t.Parallel()

	rows, err := parse.ReadAll(strings.NewReader("ID\n1\n2\n"), parse.Options{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.False(t, rows[0].HasTimestamp)
	assert.Empty(t, rows[0].Contents)
}

func TestRows_MultilineQuotedContents(t *testing.T) {
	t.Parallel()

	input := "ID,Timestamp,Contents\n" +
		"1,2021-01-01 00:00:00+00:00,\"line one\nline two, with comma\"\n" +
		"2,2021-01-01 00:00:01+00:00,after\n"

	rows, err := parse.ReadAll(strings.NewReader(input), parse.Options{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "line one\nline two, with comma", rows[0].Contents)
	assert.Equal(t, 4, rows[1].Line)
}

func TestRows_SkipsMalformedRecords(t *testing.T) {
	t.Parallel()

	input := "ID,Timestamp,Contents\n" +
		"1,2021-01-01 00:00:00+00:00,ok\n" +
		"2,only-two-fields\n" +
		"3,2021-01-01 00:00:00+00:00,too,many\n" +
		"4,2021-01-01 00:00:00+00:00,still ok\n"

	var skipped []int
	rows, err := parse.ReadAll(strings.NewReader(input), parse.Options{
		OnSkip: func(line int, err error) {
			assert.Error(t, err)
			skipped = append(skipped, line)
		},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "ok", rows[0].Contents)
	assert.Equal(t, "still ok", rows[1].Contents)
	assert.Equal(t, []int{3, 4}, skipped)
}

func TestRows_UnterminatedQuoteReportsSwallowedLines(t *testing.T) {
	t.Parallel()

	input := "ID,Timestamp,Contents,Attachments\n" +
		"1,2021-01-01 00:00:00+00:00,ok,\n" +
		"2,2021-01-01 00:00:00+00:00,\"broken,\n" +
		"3,2021-01-01 00:00:00+00:00,lost,\n" +
		"4,2021-01-01 00:00:00+00:00,lost too,\n"

	var skips []error
	rows, err := parse.ReadAll(strings.NewReader(input), parse.Options{
		OnSkip: func(line int, err error) {
			assert.Equal(t, 3, line)
			skips = append(skips, err)
		},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Len(t, skips, 1)

	var serr *parse.SkipError
	require.ErrorAs(t, skips[0], &serr)
	assert.Equal(t, 3, serr.StartLine)
	assert.Equal(t, 5, serr.EndLine)
	assert.Equal(t, 3, serr.Lines())
	assert.ErrorIs(t, skips[0], csv.ErrFieldCount)
	assert.Contains(t, skips[0].Error(), "lines 3-5 dropped")
}

func TestRows_SingleLineSkipSpansOneLine(t *testing.T) {
	t.Parallel()

	input := "ID,Timestamp,Contents\n2,only-two-fields\n"

	var serr *parse.SkipError
	_, err := parse.ReadAll(strings.NewReader(input), parse.Options{
		OnSkip: func(_ int, err error) {
			require.ErrorAs(t, err, &serr)
		},
	})
	require.NoError(t, err)
	require.NotNil(t, serr)
	assert.Equal(t, 1, serr.Lines())
	assert.NotContains(t, serr.Error(), "dropped")
}

func TestRows_EmptyAndHeaderOnly(t *testing.T) {
	t.Parallel()

	rows, err := parse.ReadAll(strings.NewReader(""), parse.Options{})
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = parse.ReadAll(strings.NewReader("ID,Timestamp,Contents\n"), parse.Options{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

type failingReader struct {
	data string
	read bool
}

var errDisk = errors.New("disk on fire")

func (f *failingReader) Read(p []byte) (int, error) {
	if f.read {
		return 0, errDisk
	}
	f.read = true
	return copy(p, f.data), nil
}

func TestRows_ReadErrorEndsSequence(t *testing.T) {
	t.Parallel()

	r := &failingReader{data: "ID,Timestamp,Contents\n1,,first\n"}

	rows, err := parse.ReadAll(r, parse.Options{})
	require.ErrorIs(t, err, errDisk)
	require.Len(t, rows, 1)
	assert.Equal(t, "first", rows[0].Contents)
}

func TestRows_StopsWhenConsumerBreaks(t *testing.T) {
	t.Parallel()

	input := "ID,Timestamp,Contents\n1,,a\n2,,b\n3,,c\n"

	var seen []string
	for row, err := range parse.Rows(strings.NewReader(input), parse.Options{}) {
		require.NoError(t, err)
		seen = append(seen, row.Contents)
		if len(seen) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestRows_LocationConversion(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+2", 2*60*60)
	input := "Timestamp,Contents\n2021-12-31 23:30:00+00:00,late\n"

	rows, err := parse.ReadAll(strings.NewReader(input), parse.Options{Location: loc})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2022, rows[0].Timestamp.Year())
	assert.Equal(t, 1, rows[0].Timestamp.Hour())
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		ok   bool
		want time.Time
	}{
		{"2021-05-01T10:00:00", true, time.Date(2021, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"2021-05-01T10:00:00Z", true, time.Date(2021, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"2021-05-01 10:00:00", true, time.Date(2021, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"2021-05-01 10:00:00.5", true, time.Date(2021, 5, 1, 10, 0, 0, 500_000_000, time.UTC)},
		{"2021-05-01", true, time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC)},
		{"  ", false, time.Time{}},
		{"", false, time.Time{}},
		{"05/01/2021", false, time.Time{}},
	}

	for _, tc := range tests {
		got, ok := parse.ParseTimestamp(tc.in, nil)
		assert.Equal(t, tc.ok, ok, tc.in)
		if tc.ok {
			assert.True(t, tc.want.Equal(got), "%q: got %v", tc.in, got)
		}
	}

	got, ok := parse.ParseTimestamp("2021-05-01 22:15:00.000000-04:00", nil)
	require.True(t, ok)
	assert.Equal(t, 22, got.Hour(), "wall clock stays in the recorded offset")
}

var _ io.Reader = (*failingReader)(nil)
