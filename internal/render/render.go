package render

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/voyager/internal/query"
	"github.com/Zuo-Peng/voyager/internal/stats"
)

const (
	colorReset = "\033[0m"
	colorTitle = "\033[1;36m" // bold cyan
	colorBar   = "\033[32m"   // green
	colorDim   = "\033[2m"
)

const (
	barWidth         = 30
	nameWidth        = 36
	defaultChannels  = 20
	defaultWordLimit = 50
)

type Options struct {
	Width  int    // wrap width (0 = no wrap)
	Color  bool   // emit ANSI colors
	Filter string // narrows channels and words
	Limit  int    // rows in ranked sections, 0 = section default
}

// Section is one titled view of an aggregate.
type Section struct {
	Key    string
	Title  string
	Render func(*stats.Stats, Options) string
}

// Sections lists the views in menu order.
var Sections = []Section{
	{Key: "overview", Title: "General Overview", Render: Overview},
	{Key: "channels", Title: "Top Communities", Render: TopChannels},
	{Key: "years", Title: "Activity by Year", Render: ByYear},
	{Key: "weekdays", Title: "Weekly Activity", Render: ByWeekday},
	{Key: "hours", Title: "Daily Activity (Hourly)", Render: ByHour},
	{Key: "words", Title: "Top Words", Render: TopWords},
}

// Lookup finds a section by key.
func Lookup(key string) (Section, bool) {
	for _, sec := range Sections {
		if sec.Key == key {
			return sec, true
		}
	}
	return Section{}, false
}

// All renders every section, separated by blank lines.
func All(s *stats.Stats, opts Options) string {
	parts := make([]string, 0, len(Sections))
	for _, sec := range Sections {
		parts = append(parts, sec.Render(s, opts))
	}
	return strings.Join(parts, "\n")
}

func Overview(s *stats.Stats, opts Options) string {
	sum := query.Overview(s)

	tbl := newTable()
	tbl.AppendRow(table.Row{"Total messages", humanize.Comma(sum.TotalMessages)})
	tbl.AppendRow(table.Row{"With timestamp", humanize.Comma(sum.Timestamped)})
	tbl.AppendRow(table.Row{"Channels", fmt.Sprintf("%s (%s named)", humanize.Comma(int64(sum.Channels)), humanize.Comma(int64(sum.NamedChannels)))})
	tbl.AppendRow(table.Row{"Voice activity", humanize.Comma(sum.VoiceActivity)})
	tbl.AppendRow(table.Row{"Words tracked", humanize.Comma(int64(sum.DistinctWords))})
	if sum.BusiestHour >= 0 {
		tbl.AppendRow(table.Row{"Busiest hour", fmt.Sprintf("%02d:00 (%s)", sum.BusiestHour, humanize.Comma(sum.BusiestHourN))})
		tbl.AppendRow(table.Row{"Busiest day", fmt.Sprintf("%s (%s)", sum.BusiestWeekday, humanize.Comma(sum.BusiestDayN))})
		tbl.AppendRow(table.Row{"Busiest year", fmt.Sprintf("%d (%s)", sum.BusiestYear, humanize.Comma(sum.BusiestYearN))})
		tbl.AppendRow(table.Row{"Active years", fmt.Sprintf("%d-%d", sum.FirstYear, sum.LastYear)})
	}
	return finish("General Overview", tbl.Render(), opts)
}

func TopChannels(s *stats.Stats, opts Options) string {
	rows := query.Channels(s, query.Options{Filter: opts.Filter, Limit: limitOr(opts.Limit, defaultChannels)})
	if len(rows) == 0 {
		return finish("Top Communities", dim("(no channels)", opts), opts)
	}

	tbl := newTable()
	tbl.AppendHeader(table.Row{"#", "Channel", "ID", "Messages", "Share"})
	for i, r := range rows {
		tbl.AppendRow(table.Row{
			i + 1,
			runewidth.Truncate(r.Name, nameWidth, "…"),
			r.ID,
			humanize.Comma(r.Count),
			fmt.Sprintf("%.1f%%", r.Share),
		})
	}
	tbl.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	return finish("Top Communities", tbl.Render(), opts)
}

func ByYear(s *stats.Stats, opts Options) string {
	years := query.Years(s)
	if len(years) == 0 {
		return finish("Activity by Year", dim("(no timestamped messages)", opts), opts)
	}

	labels := make([]string, len(years))
	counts := make([]int64, len(years))
	for i, y := range years {
		labels[i] = fmt.Sprint(y.Year)
		counts[i] = y.Count
	}
	return finish("Activity by Year", barTable("Year", labels, counts, opts), opts)
}

func ByWeekday(s *stats.Stats, opts Options) string {
	labels := make([]string, len(s.ByWeekday))
	for d := range s.ByWeekday {
		labels[d] = time.Weekday(d).String()
	}
	return finish("Weekly Activity", barTable("Day", labels, s.ByWeekday[:], opts), opts)
}

func ByHour(s *stats.Stats, opts Options) string {
	labels := make([]string, len(s.ByHour))
	for h := range s.ByHour {
		labels[h] = fmt.Sprintf("%02d:00", h)
	}
	return finish("Daily Activity (Hourly)", barTable("Hour", labels, s.ByHour[:], opts), opts)
}

func TopWords(s *stats.Stats, opts Options) string {
	words := query.Words(s, query.Options{Filter: opts.Filter, Limit: limitOr(opts.Limit, defaultWordLimit)})
	if len(words) == 0 {
		return finish("Top Words", dim("(no words)", opts), opts)
	}

	labels := make([]string, len(words))
	counts := make([]int64, len(words))
	for i, wc := range words {
		labels[i] = runewidth.Truncate(wc.Word, nameWidth, "…")
		counts[i] = wc.Count
	}
	return finish("Top Words", barTable("Word", labels, counts, opts), opts)
}

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateHeader = true
	return tbl
}

// barTable renders label / count / bar rows scaled to the largest count.
func barTable(label string, labels []string, counts []int64, opts Options) string {
	var peak int64
	for _, n := range counts {
		peak = max(peak, n)
	}

	tbl := newTable()
	tbl.AppendHeader(table.Row{label, "Messages", ""})
	for i, n := range counts {
		tbl.AppendRow(table.Row{labels[i], humanize.Comma(n), bar(n, peak, barWidth, opts)})
	}
	tbl.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	return tbl.Render()
}

// bar draws n as a fraction of peak; any non-zero count gets one cell.
func bar(n, peak int64, width int, opts Options) string {
	if n <= 0 || peak <= 0 {
		return ""
	}
	filled := max(int(n*int64(width)/peak), 1)
	b := strings.Repeat("█", filled)
	if opts.Color {
		return colorBar + b + colorReset
	}
	return b
}

func limitOr(n, def int) int {
	if n == 0 {
		return def
	}
	return n
}

func dim(s string, opts Options) string {
	if opts.Color {
		return colorDim + s + colorReset
	}
	return s
}

// finish puts a title over body and wraps every line to opts.Width.
func finish(title, body string, opts Options) string {
	var b strings.Builder
	head := "== " + title + " =="
	if opts.Color {
		head = colorTitle + head + colorReset
	}
	lines := append([]string{head}, strings.Split(strings.TrimRight(body, "\n"), "\n")...)
	for _, l := range lines {
		for _, wl := range wrapLine(l, opts.Width) {
			b.WriteString(wl)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// wrapLine breaks a single line into multiple lines that fit within maxWidth
// visible columns, correctly skipping ANSI escape sequences when measuring width.
func wrapLine(line string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{line}
	}

	var result []string
	var cur strings.Builder
	visW := 0

	i := 0
	for i < len(line) {
		// check for ANSI escape sequence: ESC[ ... m
		if i+1 < len(line) && line[i] == '\033' && line[i+1] == '[' {
			j := i + 2
			for j < len(line) && line[j] != 'm' {
				j++
			}
			if j < len(line) {
				j++ // include 'm'
			}
			cur.WriteString(line[i:j])
			i = j
			continue
		}

		r, size := utf8.DecodeRuneInString(line[i:])
		rw := runewidth.RuneWidth(r)

		if visW+rw > maxWidth {
			result = append(result, cur.String())
			cur.Reset()
			visW = 0
		}

		cur.WriteRune(r)
		visW += rw
		i += size
	}

	if cur.Len() > 0 {
		result = append(result, cur.String())
	}

	if len(result) == 0 {
		return []string{""}
	}
	return result
}
