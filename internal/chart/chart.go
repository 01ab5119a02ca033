// File: internal/chart/chart.go
package chart

import (
	"bytes"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgsvg"

	"github.com/confstats/regboard/internal/aggregate"
	"github.com/confstats/regboard/internal/config"
	"github.com/confstats/regboard/internal/metrics"
	"github.com/confstats/regboard/internal/models"
	"github.com/confstats/regboard/pkg/utils"
)

// Data holds everything one render of the summary figure needs.
type Data struct {
	Current       []*models.DayAggregate
	Previous      []*models.DayAggregate
	CheckinRate   []aggregate.DayDelta
	CurrentLabel  string
	PreviousLabel string
}

// Renderer draws the four-panel registration summary figure
type Renderer struct {
	config         *config.ChartConfig
	logger         *logrus.Logger
	metricsManager *metrics.Manager
}

// NewRenderer creates a new chart renderer
func NewRenderer(cfg *config.ChartConfig, metricsManager *metrics.Manager) *Renderer {
	return &Renderer{
		config:         cfg,
		logger:         utils.GetLogger(),
		metricsManager: metricsManager,
	}
}

// Render draws the figure and writes it to the configured output path. The
// file is only written after the whole figure rendered successfully.
func (r *Renderer) Render(data *Data) error {
	start := time.Now()

	var buf bytes.Buffer
	if err := r.RenderTo(data, &buf); err != nil {
		if r.metricsManager != nil {
			r.metricsManager.GetPrometheusMetrics().RecordRender("error", time.Since(start))
		}
		return err
	}

	dir := filepath.Dir(r.config.OutputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return utils.NewAppError(utils.ErrCodeRender, "Failed to create output directory", err.Error())
		}
	}

	if err := os.WriteFile(r.config.OutputPath, buf.Bytes(), 0644); err != nil {
		return utils.NewAppError(utils.ErrCodeRender, "Failed to write chart", err.Error())
	}

	if r.metricsManager != nil {
		r.metricsManager.GetPrometheusMetrics().RecordRender("success", time.Since(start))
	}

	r.logger.WithFields(logrus.Fields{
		"path":     r.config.OutputPath,
		"days":     len(data.Current),
		"duration": time.Since(start),
	}).Info("Summary chart rendered")

	return nil
}

// RenderTo draws the four-panel figure as SVG into w.
func (r *Renderer) RenderTo(data *Data, w io.Writer) error {
	trend, err := r.trendPanel(data)
	if err != nil {
		return err
	}

	sponsors, err := r.sponsorPanel(data)
	if err != nil {
		return err
	}

	yoy, err := r.comparisonPanel(data)
	if err != nil {
		return err
	}

	checkins, err := r.checkinPanel(data)
	if err != nil {
		return err
	}

	width := vg.Length(r.config.WidthInches) * vg.Inch
	height := vg.Length(r.config.HeightInches) * vg.Inch

	canvas := vgsvg.New(width, height)
	dc := draw.New(canvas)

	tiles := draw.Tiles{
		Rows:      2,
		Cols:      2,
		PadX:      vg.Points(25),
		PadY:      vg.Points(25),
		PadTop:    vg.Points(10),
		PadBottom: vg.Points(20),
		PadLeft:   vg.Points(10),
		PadRight:  vg.Points(10),
	}

	plots := [][]*plot.Plot{
		{trend, sponsors},
		{yoy, checkins},
	}

	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		for j := range plots[i] {
			plots[i][j].Draw(canvases[i][j])
		}
	}

	if r.config.Annotation != "" {
		r.drawAnnotation(dc)
	}

	if _, err := canvas.WriteTo(w); err != nil {
		return utils.NewAppError(utils.ErrCodeRender, "Failed to encode SVG", err.Error())
	}

	return nil
}

// trendPanel draws the cumulative registration count of the current season
// over the day index.
func (r *Renderer) trendPanel(data *Data) (*plot.Plot, error) {
	p := newPanel("Registrations", "Days since registration opened", "Total registrations")

	if len(data.Current) == 0 {
		return p, nil
	}

	line, err := plotter.NewLine(totalSeries(data.Current))
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeRender, "Failed to build trend panel", err.Error())
	}
	line.Color = BrandGreen
	line.Width = vg.Points(2)
	line.FillColor = LightestGreen

	p.Add(line)
	return p, nil
}

// sponsorPanel draws a stacked per-day breakdown of the sponsor tiers. The
// stack is drawn top-down so each fill shows through below the next line.
func (r *Renderer) sponsorPanel(data *Data) (*plot.Plot, error) {
	p := newPanel("Sponsor tiers", "Days since registration opened", "Registrations")

	if len(data.Current) == 0 {
		return p, nil
	}

	type layer struct {
		name  string
		color color.RGBA
		value func(*models.DayAggregate) int
	}

	layers := []layer{
		{"supersponsor", BrandGreen, func(a *models.DayAggregate) int {
			return a.Sponsor.Normal + a.Sponsor.Sponsor + a.Sponsor.SuperSponsor
		}},
		{"sponsor", LightGreen, func(a *models.DayAggregate) int {
			return a.Sponsor.Normal + a.Sponsor.Sponsor
		}},
		{"normal", LighterGreen, func(a *models.DayAggregate) int {
			return a.Sponsor.Normal
		}},
	}

	for _, l := range layers {
		xys := make(plotter.XYs, 0, len(data.Current))
		for _, agg := range data.Current {
			xys = append(xys, plotter.XY{X: float64(agg.DayIndex), Y: float64(l.value(agg))})
		}

		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, utils.NewAppError(utils.ErrCodeRender, "Failed to build sponsor panel", err.Error())
		}
		line.Color = l.color
		line.FillColor = l.color

		p.Add(line)
		p.Legend.Add(l.name, line)
	}

	p.Legend.Top = true
	p.Legend.Left = true
	return p, nil
}

// comparisonPanel draws the current and previous season's cumulative totals
// aligned on day index.
func (r *Renderer) comparisonPanel(data *Data) (*plot.Plot, error) {
	p := newPanel("Year over year", "Days since registration opened", "Total registrations")

	if len(data.Current) == 0 {
		return p, nil
	}

	current, err := plotter.NewLine(totalSeries(data.Current))
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeRender, "Failed to build comparison panel", err.Error())
	}
	current.Color = BrandGreen
	current.Width = vg.Points(2)

	p.Add(current)
	p.Legend.Add(data.CurrentLabel, current)

	if len(data.Previous) > 0 {
		previous, err := plotter.NewLine(totalSeries(data.Previous))
		if err != nil {
			return nil, utils.NewAppError(utils.ErrCodeRender, "Failed to build comparison panel", err.Error())
		}
		previous.Color = LightGreen
		previous.Width = vg.Points(2)
		previous.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}

		p.Add(previous)
		p.Legend.Add(data.PreviousLabel, previous)
	}

	p.Legend.Top = true
	p.Legend.Left = true
	return p, nil
}

// checkinPanel draws the per-day check-in gains of the trailing window as
// bars labeled with their dates.
func (r *Renderer) checkinPanel(data *Data) (*plot.Plot, error) {
	p := newPanel("Check-ins per day", "", "Checked in")

	if len(data.CheckinRate) == 0 {
		return p, nil
	}

	values := make(plotter.Values, 0, len(data.CheckinRate))
	labels := make([]string, 0, len(data.CheckinRate))
	for _, delta := range data.CheckinRate {
		values = append(values, float64(delta.Delta))
		labels = append(labels, delta.Date.Format("Jan 02"))
	}

	bars, err := plotter.NewBarChart(values, vg.Points(14))
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeRender, "Failed to build check-in panel", err.Error())
	}
	bars.Color = BrandGreen
	bars.LineStyle.Width = 0

	p.Add(bars)
	p.NominalX(labels...)
	return p, nil
}

// drawAnnotation writes the footer annotation in the bottom-left corner of
// the figure.
func (r *Renderer) drawAnnotation(dc draw.Canvas) {
	fnt := plot.DefaultFont
	fnt.Size = vg.Points(8)

	sty := text.Style{
		Color:   AnnotationGray,
		Font:    fnt,
		Handler: plot.DefaultTextHandler,
	}

	dc.FillText(sty, vg.Point{X: dc.Min.X + vg.Points(4), Y: dc.Min.Y + vg.Points(4)}, r.config.Annotation)
}

// newPanel creates a plot with the shared panel styling.
func newPanel(title, xlabel, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())
	return p
}

// totalSeries converts day aggregates to an XY series of day index against
// cumulative total.
func totalSeries(aggregates []*models.DayAggregate) plotter.XYs {
	xys := make(plotter.XYs, 0, len(aggregates))
	for _, agg := range aggregates {
		xys = append(xys, plotter.XY{X: float64(agg.DayIndex), Y: float64(agg.TotalCount)})
	}
	return xys
}
