package report

import (
	"fmt"
	"math"

	"github.com/go-pdf/fpdf"

	"mentedigital/internal/survey"
)

// Box is a drawing area in page units
type Box struct {
	X, Y, W, H float64
}

// Chart is the data of one chart, independent of how it is drawn
type Chart struct {
	Kind    ChartKind
	Field   string
	Title   string
	Labels  []string
	Values  []float64
	Pyramid *survey.Pyramid
}

// ChartDrawer draws a chart into a box of the current page
type ChartDrawer interface {
	Draw(pdf *fpdf.Fpdf, tr func(string) string, c Chart, theme Theme, box Box) error
}

// VectorCharts draws charts with fpdf vector primitives
type VectorCharts struct{}

// Draw implements ChartDrawer
func (VectorCharts) Draw(pdf *fpdf.Fpdf, tr func(string) string, c Chart, theme Theme, box Box) error {
	switch c.Kind {
	case ChartPie:
		return drawPie(pdf, tr, c, theme, box)
	case ChartBar:
		return drawBars(pdf, tr, c, theme, box)
	case ChartHistogram:
		return drawHistogram(pdf, tr, c, theme, box)
	case ChartPyramid:
		return drawPyramid(pdf, tr, c, theme, box)
	default:
		return fmt.Errorf("unsupported chart kind %q", c.Kind)
	}
}

func setFill(pdf *fpdf.Fpdf, c Color) {
	pdf.SetFillColor(c.R, c.G, c.B)
}

func setDraw(pdf *fpdf.Fpdf, c Color) {
	pdf.SetDrawColor(c.R, c.G, c.B)
}

func setText(pdf *fpdf.Fpdf, c Color) {
	pdf.SetTextColor(c.R, c.G, c.B)
}

func total(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum
}

func checkSeries(c Chart) error {
	if len(c.Values) == 0 {
		return fmt.Errorf("chart %q has no values", c.Title)
	}
	if len(c.Labels) != len(c.Values) {
		return fmt.Errorf("chart %q has %d labels for %d values", c.Title, len(c.Labels), len(c.Values))
	}
	return nil
}

// arcSteps is the number of polygon segments of a full circle
const arcSteps = 96

func drawPie(pdf *fpdf.Fpdf, tr func(string) string, c Chart, theme Theme, box Box) error {
	if err := checkSeries(c); err != nil {
		return err
	}
	sum := total(c.Values)
	if sum <= 0 {
		return fmt.Errorf("chart %q has no positive values", c.Title)
	}

	r := math.Min(box.H, box.W/2) / 2 * 0.9
	cx, cy := box.X+r+2, box.Y+box.H/2

	setDraw(pdf, theme.Background)
	pdf.SetLineWidth(0.6)
	start := 90.0
	for i, v := range c.Values {
		sweep := v / sum * 360
		points := []fpdf.PointType{{X: cx, Y: cy}}
		steps := int(math.Max(1, math.Ceil(sweep/360*arcSteps)))
		for s := 0; s <= steps; s++ {
			a := (start - sweep*float64(s)/float64(steps)) * math.Pi / 180
			points = append(points, fpdf.PointType{X: cx + r*math.Cos(a), Y: cy - r*math.Sin(a)})
		}
		setFill(pdf, theme.SeriesColor(i))
		pdf.Polygon(points, "FD")

		if pct := v / sum * 100; pct >= 4 {
			mid := (start - sweep/2) * math.Pi / 180
			lx, ly := cx+r*0.62*math.Cos(mid), cy-r*0.62*math.Sin(mid)
			label := fmt.Sprintf("%.1f%%", pct)
			pdf.SetFont("Helvetica", "B", 8)
			pdf.SetTextColor(0, 0, 0)
			pdf.Text(lx-pdf.GetStringWidth(label)/2, ly+1.2, label)
		}
		start -= sweep
	}

	legendX := cx + r + 10
	drawLegend(pdf, tr, c, theme, legendX, box.Y+4, box.X+box.W-legendX, sum)
	return nil
}

func drawLegend(pdf *fpdf.Fpdf, tr func(string) string, c Chart, theme Theme, x, y, w, sum float64) {
	pdf.SetFont("Helvetica", "", 9)
	setText(pdf, theme.Text)
	for i, label := range c.Labels {
		setFill(pdf, theme.SeriesColor(i))
		pdf.Rect(x, y, 4, 4, "F")
		text := label
		if sum > 0 {
			text = fmt.Sprintf("%s (%.1f%%)", label, c.Values[i]/sum*100)
		}
		pdf.SetXY(x+6, y-0.5)
		pdf.CellFormat(w-6, 5, fitText(pdf, tr(text), w-6), "", 0, "L", false, 0, "")
		y += 6
	}
}

func drawBars(pdf *fpdf.Fpdf, tr func(string) string, c Chart, theme Theme, box Box) error {
	if err := checkSeries(c); err != nil {
		return err
	}

	legendRows := (len(c.Labels) + 1) / 2
	legendH := float64(legendRows) * 6
	plot := Box{X: box.X + 10, Y: box.Y + 6, W: box.W - 12, H: box.H - legendH - 10}
	if plot.H < 20 {
		return fmt.Errorf("chart %q has too many categories for its box", c.Title)
	}

	maxV := 0.0
	for _, v := range c.Values {
		maxV = math.Max(maxV, v)
	}
	if maxV <= 0 {
		maxV = 1
	}

	drawAxes(pdf, theme, plot)
	slot := plot.W / float64(len(c.Values))
	barW := slot * 0.7
	pdf.SetFont("Helvetica", "B", 9)
	for i, v := range c.Values {
		h := v / maxV * (plot.H - 6)
		x := plot.X + float64(i)*slot + (slot-barW)/2
		setFill(pdf, theme.SeriesColor(i))
		pdf.Rect(x, plot.Y+plot.H-h, barW, h, "F")

		label := formatCount(v)
		setText(pdf, theme.Text)
		pdf.Text(x+barW/2-pdf.GetStringWidth(label)/2, plot.Y+plot.H-h-1.5, label)
	}

	// two-column legend under the plot
	colW := box.W / 2
	pdf.SetFont("Helvetica", "", 8)
	for i, label := range c.Labels {
		x := box.X + float64(i%2)*colW
		y := plot.Y + plot.H + 6 + float64(i/2)*6
		setFill(pdf, theme.SeriesColor(i))
		pdf.Rect(x, y, 4, 4, "F")
		setText(pdf, theme.Text)
		pdf.SetXY(x+6, y-0.5)
		pdf.CellFormat(colW-8, 5, fitText(pdf, tr(label), colW-8), "", 0, "L", false, 0, "")
	}
	return nil
}

func drawHistogram(pdf *fpdf.Fpdf, tr func(string) string, c Chart, theme Theme, box Box) error {
	if err := checkSeries(c); err != nil {
		return err
	}

	plot := Box{X: box.X + 12, Y: box.Y + 6, W: box.W - 14, H: box.H - 20}
	maxV := 0.0
	for _, v := range c.Values {
		maxV = math.Max(maxV, v)
	}
	if maxV <= 0 {
		maxV = 1
	}

	drawAxes(pdf, theme, plot)
	slot := plot.W / float64(len(c.Values))
	setDraw(pdf, theme.Background)
	pdf.SetLineWidth(0.5)
	for i, v := range c.Values {
		h := v / maxV * (plot.H - 6)
		x := plot.X + float64(i)*slot
		setFill(pdf, theme.Accent)
		pdf.Rect(x, plot.Y+plot.H-h, slot, h, "FD")

		setText(pdf, theme.Text)
		pdf.SetFont("Helvetica", "B", 8)
		count := formatCount(v)
		pdf.Text(x+slot/2-pdf.GetStringWidth(count)/2, plot.Y+plot.H-h-1.5, count)

		pdf.SetFont("Helvetica", "", 8)
		label := c.Labels[i]
		pdf.Text(x+slot/2-pdf.GetStringWidth(label)/2, plot.Y+plot.H+4, label)
	}

	pdf.SetFont("Helvetica", "B", 9)
	caption := tr("Faixa Etária")
	pdf.Text(plot.X+plot.W/2-pdf.GetStringWidth(caption)/2, plot.Y+plot.H+11, caption)
	pdf.TransformBegin()
	pdf.TransformRotate(90, box.X+3, plot.Y+plot.H/2)
	pdf.Text(box.X+3-pdf.GetStringWidth("Quantidade")/2, plot.Y+plot.H/2, "Quantidade")
	pdf.TransformEnd()
	return nil
}

func drawPyramid(pdf *fpdf.Fpdf, tr func(string) string, c Chart, theme Theme, box Box) error {
	p := c.Pyramid
	if p == nil || len(p.Rows) == 0 {
		return fmt.Errorf("chart %q has no pyramid rows", c.Title)
	}

	labelW := 16.0
	plot := Box{X: box.X + labelW, Y: box.Y + 10, W: box.W - labelW, H: box.H - 12}
	axisX := plot.X + plot.W/2
	half := plot.W/2 - 14
	scale := p.MaxPercent()
	if scale <= 0 {
		scale = 100
	}
	rowH := plot.H / float64(len(p.Rows))
	barH := rowH * 0.75
	left, right := theme.SeriesColor(4), theme.SeriesColor(3)

	pdf.SetFont("Helvetica", "B", 9)
	setText(pdf, theme.Text)
	pdf.Text(axisX-half/2-pdf.GetStringWidth(tr(p.Left))/2, box.Y+5, tr(p.Left))
	pdf.Text(axisX+half/2-pdf.GetStringWidth(tr(p.Right))/2, box.Y+5, tr(p.Right))

	pdf.SetFont("Helvetica", "", 8)
	// youngest band at the bottom
	for i, row := range p.Rows {
		y := plot.Y + plot.H - float64(i+1)*rowH + (rowH-barH)/2
		lw := -row.Left / scale * half
		rw := row.Right / scale * half

		setFill(pdf, left)
		pdf.Rect(axisX-lw, y, lw, barH, "F")
		setFill(pdf, right)
		pdf.Rect(axisX, y, rw, barH, "F")

		setText(pdf, theme.Text)
		pdf.Text(box.X, y+barH/2+1.2, row.Label)
		if row.LeftCount > 0 {
			s := fmt.Sprintf("%.1f%%", -row.Left)
			pdf.Text(axisX-lw-1-pdf.GetStringWidth(s), y+barH/2+1.2, s)
		}
		if row.RightCount > 0 {
			pdf.Text(axisX+rw+1, y+barH/2+1.2, fmt.Sprintf("%.1f%%", row.Right))
		}
	}

	setDraw(pdf, theme.Muted)
	pdf.SetLineWidth(0.3)
	pdf.Line(axisX, plot.Y, axisX, plot.Y+plot.H)
	return nil
}

func drawAxes(pdf *fpdf.Fpdf, theme Theme, plot Box) {
	setDraw(pdf, theme.Border)
	pdf.SetLineWidth(0.2)
	pdf.SetDashPattern([]float64{1, 1}, 0)
	for i := 1; i <= 4; i++ {
		y := plot.Y + plot.H - float64(i)/4*(plot.H-6)
		pdf.Line(plot.X, y, plot.X+plot.W, y)
	}
	pdf.SetDashPattern([]float64{}, 0)
	setDraw(pdf, theme.Muted)
	pdf.SetLineWidth(0.3)
	pdf.Line(plot.X, plot.Y+plot.H, plot.X+plot.W, plot.Y+plot.H)
	pdf.Line(plot.X, plot.Y, plot.X, plot.Y+plot.H)
}

func formatCount(v float64) string {
	return fmt.Sprintf("%d", int(math.Round(v)))
}

// fitText shortens an already translated single-byte string with an
// ellipsis until it fits in w
func fitText(pdf *fpdf.Fpdf, s string, w float64) string {
	if pdf.GetStringWidth(s) <= w {
		return s
	}
	for len(s) > 1 && pdf.GetStringWidth(s+"...") > w {
		s = s[:len(s)-1]
	}
	return s + "..."
}
