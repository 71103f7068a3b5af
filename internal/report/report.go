// Package report renders an aggregate as a standalone HTML dashboard.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Zuo-Peng/voyager/internal/query"
	"github.com/Zuo-Peng/voyager/internal/stats"
)

const (
	DefaultTopChannels = 10
	DefaultCloudWords  = 60

	chartWidth  = "100%"
	chartHeight = "420px"
)

type Options struct {
	Title       string
	TopChannels int              // 0 uses DefaultTopChannels
	CloudWords  int              // 0 uses DefaultCloudWords
	Now         func() time.Time // generation time, time.Now when nil
}

// Write renders the dashboard for s to w.
func Write(w io.Writer, s *stats.Stats, o Options) error {
	o = o.withDefaults()

	page := components.NewPage()
	page.PageTitle = o.Title
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(
		yearChart(s, o),
		weekdayChart(s),
		hourChart(s),
		channelChart(s, o),
		wordCloud(s, o),
	)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

// WriteFile renders the dashboard to path, creating parent directories.
func WriteFile(path string, s *stats.Stats, o Options) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := Write(f, s, o); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (o Options) withDefaults() Options {
	if o.Title == "" {
		o.Title = "Discord Data Package"
	}
	if o.TopChannels <= 0 {
		o.TopChannels = DefaultTopChannels
	}
	if o.CloudWords <= 0 {
		o.CloudWords = DefaultCloudWords
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// headline is the KPI line shown under the first chart's title.
func headline(s *stats.Stats, o Options) string {
	sum := query.Overview(s)
	return fmt.Sprintf("%s messages · %s channels · %s voice events · generated %s",
		humanize.Comma(sum.TotalMessages),
		humanize.Comma(int64(sum.Channels)),
		humanize.Comma(sum.VoiceActivity),
		o.Now().Format("2006-01-02 15:04"))
}

func newBar(id, title, subtitle string) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight, ChartID: id}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
	)
	return bar
}

func barData(counts []int64) []opts.BarData {
	data := make([]opts.BarData, len(counts))
	for i, n := range counts {
		data[i] = opts.BarData{Value: n}
	}
	return data
}

func yearChart(s *stats.Stats, o Options) *charts.Bar {
	years := query.Years(s)
	labels := make([]string, len(years))
	counts := make([]int64, len(years))
	for i, y := range years {
		labels[i] = fmt.Sprint(y.Year)
		counts[i] = y.Count
	}

	bar := newBar("years", o.Title+": Activity by Year", headline(s, o))
	bar.SetXAxis(labels).AddSeries("Messages", barData(counts))
	return bar
}

func weekdayChart(s *stats.Stats) *charts.Bar {
	labels := make([]string, len(s.ByWeekday))
	for d := range s.ByWeekday {
		labels[d] = time.Weekday(d).String()
	}

	bar := newBar("weekdays", "Weekly Activity", "")
	bar.SetXAxis(labels).AddSeries("Messages", barData(s.ByWeekday[:]))
	return bar
}

func hourChart(s *stats.Stats) *charts.Bar {
	labels := make([]string, len(s.ByHour))
	for h := range s.ByHour {
		labels[h] = fmt.Sprintf("%02d:00", h)
	}

	bar := newBar("hours", "Daily Activity (Hourly)", "")
	bar.SetXAxis(labels).AddSeries("Messages", barData(s.ByHour[:]))
	return bar
}

func channelChart(s *stats.Stats, o Options) *charts.Bar {
	rows := query.Channels(s, query.Options{Limit: o.TopChannels})

	// reversed so the busiest channel sits on top of the horizontal chart
	labels := make([]string, len(rows))
	counts := make([]int64, len(rows))
	for i, r := range rows {
		j := len(rows) - 1 - i
		labels[j] = r.Name
		counts[j] = r.Count
	}

	bar := newBar("channels", "Top Communities", fmt.Sprintf("top %d by messages", o.TopChannels))
	bar.SetGlobalOptions(charts.WithGridOpts(opts.Grid{Left: "25%"}))
	bar.SetXAxis(labels).AddSeries("Messages", barData(counts))
	bar.XYReversal()
	return bar
}

func wordCloud(s *stats.Stats, o Options) *charts.WordCloud {
	words := query.Words(s, query.Options{Limit: o.CloudWords})
	data := make([]opts.WordCloudData, len(words))
	for i, wc := range words {
		data[i] = opts.WordCloudData{Name: wc.Word, Value: wc.Count}
	}

	wc := charts.NewWordCloud()
	wc.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: "520px", ChartID: "words"}),
		charts.WithTitleOpts(opts.Title{Title: "Top Words"}),
	)
	wc.AddSeries("Words", data, charts.WithWorldCloudChartOpts(opts.WordCloudChart{
		SizeRange: []float32{14, 72},
		Shape:     "circle",
	}))
	return wc
}
