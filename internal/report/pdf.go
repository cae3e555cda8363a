package report

import (
	"bytes"
	"fmt"
	"math"

	"github.com/jung-kurt/gofpdf"

	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/fopdt"
	"github.com/san-kum/pidlab/internal/metrics"
)

const (
	pageWidth    = 210.0 // A4 portrait, mm
	pageMargin   = 15.0
	contentWidth = pageWidth - 2*pageMargin
	lineHeight   = 6.0
)

// Data is everything a tuning report displays. Plots maps a slot name
// ("response", "control") to PNG bytes; missing slots are skipped.
type Data struct {
	Title      string
	Method     string
	Controller string
	Identified fopdt.Model
	Gains      control.Gains
	Metrics    metrics.Result
	Effort     metrics.Effort
	Plots      map[string][]byte
}

// WritePDF builds the report and writes it to path.
func WritePDF(path string, d Data) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.AddPage()

	heading(pdf, d.Title, 16)
	pdf.Ln(2)

	heading(pdf, "Identified Process Model", 13)
	body(pdf, fmt.Sprintf("FOPDT fit: K = %.4g, L = %.4g s, T = %.4g s (L/T = %.3f)",
		d.Identified.K, d.Identified.L, d.Identified.T, d.Identified.Ratio()))
	if d.Identified.Degraded {
		body(pdf, "Note: the fit is degraded; the response rose faster than the sampling could resolve.")
	}
	pdf.Ln(3)

	heading(pdf, fmt.Sprintf("Tuned Gains (%s, %s)", d.Method, d.Controller), 13)
	gainsTable(pdf, d.Gains)
	pdf.Ln(3)

	heading(pdf, "Closed-Loop Performance", 13)
	metricsTable(pdf, d.Metrics, d.Effort)
	pdf.Ln(3)

	for _, slot := range []struct{ key, caption string }{
		{"response", "Step response"},
		{"control", "Control signal"},
	} {
		img, ok := d.Plots[slot.key]
		if !ok || len(img) == 0 {
			continue
		}
		embedPNG(pdf, slot.key, img, slot.caption)
	}

	return pdf.OutputFileAndClose(path)
}

func heading(pdf *gofpdf.Fpdf, text string, size float64) {
	pdf.SetFont("Arial", "B", size)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(contentWidth, lineHeight+2, text, "", 1, "L", false, 0, "")
}

func body(pdf *gofpdf.Fpdf, text string) {
	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(40, 40, 40)
	pdf.MultiCell(contentWidth, lineHeight, text, "", "L", false)
}

func gainsTable(pdf *gofpdf.Fpdf, g control.Gains) {
	ti := "-"
	if !math.IsInf(g.Ti, 1) {
		ti = fmt.Sprintf("%.4g s", g.Ti)
	}
	rows := [][2]string{
		{"Proportional gain Kp", fmt.Sprintf("%.4g", g.Kp)},
		{"Integral time Ti", ti},
		{"Derivative time Td", fmt.Sprintf("%.4g s", g.Td)},
	}
	table(pdf, rows)
}

func metricsTable(pdf *gofpdf.Fpdf, m metrics.Result, e metrics.Effort) {
	rows := [][2]string{
		{"Settling time", fmt.Sprintf("%.3g s", m.SettlingTime)},
		{"Overshoot", fmt.Sprintf("%.2f %%", m.OvershootPercent)},
		{"Rise time (10-90%)", fmt.Sprintf("%.3g s", m.RiseTime)},
		{"Steady-state error", fmt.Sprintf("%.4g (%.2f %%)", m.SteadyStateError, m.SteadyStateErrorPercent)},
		{"Peak value", fmt.Sprintf("%.4g at %.3g s", m.PeakValue, m.PeakTime)},
		{"Control energy", fmt.Sprintf("%.4g", e.Energy)},
		{"Control total variation", fmt.Sprintf("%.4g", e.TotalVariation)},
	}
	table(pdf, rows)
}

func table(pdf *gofpdf.Fpdf, rows [][2]string) {
	labelWidth := contentWidth * 0.5
	valueWidth := contentWidth - labelWidth
	for _, row := range rows {
		pdf.SetFont("Arial", "", 9)
		pdf.SetTextColor(0, 0, 0)
		pdf.CellFormat(labelWidth, lineHeight, row[0], "1", 0, "L", false, 0, "")
		pdf.SetTextColor(50, 50, 50)
		pdf.CellFormat(valueWidth, lineHeight, row[1], "1", 1, "R", false, 0, "")
	}
}

func embedPNG(pdf *gofpdf.Fpdf, name string, img []byte, caption string) {
	pdf.RegisterImageReader(name, "PNG", bytes.NewReader(img))

	width := contentWidth
	height := width * (360.0 / 640.0)
	if pdf.GetY()+height+lineHeight > 280 {
		pdf.AddPage()
	}
	pdf.Image(name, pageMargin, pdf.GetY(), width, height, false, "PNG", 0, "")
	pdf.SetY(pdf.GetY() + height + 1)

	pdf.SetFont("Arial", "I", 9)
	pdf.SetTextColor(80, 80, 80)
	pdf.CellFormat(contentWidth, lineHeight, caption, "", 1, "C", false, 0, "")
	pdf.Ln(2)
}
