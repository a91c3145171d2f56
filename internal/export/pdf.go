package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/go-pdf/fpdf"
	"github.com/piwi3910/slabcam/internal/gcode"
	"github.com/piwi3910/slabcam/internal/geom"
	"github.com/piwi3910/slabcam/internal/model"
	qrcode "github.com/skip2/go-qrcode"
)

// SetupSheet is everything printed on the operator's setup sheet.
type SetupSheet struct {
	JobID     string
	Source    string // Input drawing
	Program   string // Written program file
	Preset    model.Preset
	Post      model.PostTemplate
	Features  []*model.Feature
	Zero      *geom.Point
	CycleTime float64 // Estimated minutes
	Summary   gcode.Summary
}

// SheetInfo is the job summary encoded into the setup sheet's QR code.
type SheetInfo struct {
	JobID     string  `json:"job"`
	Source    string  `json:"source"`
	Program   string  `json:"program"`
	Preset    string  `json:"preset"`
	Post      string  `json:"post"`
	Tool      float64 `json:"tool_mm"`
	Features  int     `json:"features"`
	CycleTime float64 `json:"cycle_min"`
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	drawAreaTop  = marginTop + headerHeight + 5.0
	sideWidth    = 85.0
	qrSize       = 40.0
	rowHeight    = 6.0
)

// CollectSheetInfo extracts the QR payload from a setup sheet.
func CollectSheetInfo(s SetupSheet) SheetInfo {
	return SheetInfo{
		JobID:     s.JobID,
		Source:    s.Source,
		Program:   s.Program,
		Preset:    s.Preset.Name,
		Post:      s.Post.Name,
		Tool:      s.Preset.General.CutDiam,
		Features:  len(s.Features),
		CycleTime: s.CycleTime,
	}
}

// ExportSetupSheet renders the setup sheet: a plot page with the job
// summary and QR code, followed by the feature table.
func ExportSetupSheet(path string, s SetupSheet) error {
	if len(s.Features) == 0 {
		return fmt.Errorf("no features to export")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	pdf.AddPage()
	renderTitle(pdf, s)
	renderPlot(pdf, s)
	if err := renderSummary(pdf, s); err != nil {
		return err
	}

	renderFeatureTable(pdf, s)
	return pdf.OutputFileAndClose(path)
}

func renderTitle(pdf *fpdf.Fpdf, s SetupSheet) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("Setup Sheet: %s", s.Source)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Job %s | Post: %s | Preset: %s | Features: %d | Cycle time: %s",
		s.JobID, s.Post.Name, s.Preset.Name, len(s.Features), formatMinutes(s.CycleTime))
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")
}

// plotBounds returns the XY extent of every toolpath segment and the zero point.
func plotBounds(s SetupSheet, tol float64) (minX, minY, maxX, maxY float64, ok bool) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	grow := func(p geom.Point) {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	for _, f := range s.Features {
		for _, seg := range f.Segments {
			for _, p := range seg.Curve.Flatten(tol) {
				grow(p)
			}
		}
	}
	if s.Zero != nil {
		grow(*s.Zero)
	}
	return minX, minY, maxX, maxY, !math.IsInf(minX, 1)
}

// renderPlot draws the XY toolpath in preview colours, rapids dashed.
func renderPlot(pdf *fpdf.Fpdf, s SetupSheet) {
	tol := math.Max(s.Preset.General.Tolerance, 0.1)
	minX, minY, maxX, maxY, ok := plotBounds(s, tol)
	if !ok {
		return
	}

	drawWidth := pageWidth - marginLeft - marginRight - sideWidth - 5
	drawHeight := pageHeight - drawAreaTop - marginBottom
	w := math.Max(maxX-minX, 1)
	h := math.Max(maxY-minY, 1)
	scale := math.Min(drawWidth/w, drawHeight/h)

	offsetX := marginLeft + (drawWidth-w*scale)/2
	offsetY := drawAreaTop + (drawHeight-h*scale)/2
	// PDF y grows downward.
	px := func(p geom.Point) (float64, float64) {
		return offsetX + (p.X-minX)*scale, offsetY + (maxY-p.Y)*scale
	}

	pdf.SetDrawColor(180, 180, 180)
	pdf.SetLineWidth(0.2)
	pdf.Rect(offsetX, offsetY, w*scale, h*scale, "D")

	for _, f := range s.Features {
		for _, seg := range f.Segments {
			c := seg.Class.PreviewColor()
			pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
			if seg.Class == model.MotionRapid {
				pdf.SetLineWidth(0.15)
				pdf.SetDashPattern([]float64{1, 1}, 0)
			} else {
				pdf.SetLineWidth(0.3)
				pdf.SetDashPattern([]float64{}, 0)
			}
			pts := seg.Curve.Flatten(tol)
			for i := 1; i < len(pts); i++ {
				x1, y1 := px(pts[i-1])
				x2, y2 := px(pts[i])
				pdf.Line(x1, y1, x2, y2)
			}
		}
	}
	pdf.SetDashPattern([]float64{}, 0)

	if s.Zero != nil {
		zx, zy := px(*s.Zero)
		pdf.SetDrawColor(200, 0, 0)
		pdf.SetLineWidth(0.3)
		pdf.Line(zx-3, zy, zx+3, zy)
		pdf.Line(zx, zy-3, zx, zy+3)
	}

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(80, 80, 80)
	extent := fmt.Sprintf("%.1f x %.1f mm", maxX-minX, maxY-minY)
	pdf.SetXY(offsetX, offsetY+h*scale+1)
	pdf.CellFormat(w*scale, 4, extent, "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// renderSummary fills the right column with job settings and the QR code.
func renderSummary(pdf *fpdf.Fpdf, s SetupSheet) error {
	x := pageWidth - marginRight - sideWidth
	y := drawAreaTop
	g := s.Preset.General

	items := []struct {
		label string
		value string
	}{
		{"Program", s.Program},
		{"Tool diameter", fmt.Sprintf("%.3f mm", g.CutDiam)},
		{"Spindle", fmt.Sprintf("%.0f rpm", g.Spindle)},
		{"Secure plane", fmt.Sprintf("%.1f mm", g.SecPlane)},
		{"Cycle time", formatMinutes(s.CycleTime)},
		{"Cut length", fmt.Sprintf("%.0f mm", s.Summary.CutLength)},
		{"Rapid length", fmt.Sprintf("%.0f mm", s.Summary.RapidLength)},
		{"Z range", fmt.Sprintf("%.2f .. %.2f", s.Summary.Min.Z, s.Summary.Max.Z)},
	}
	if s.Zero != nil {
		items = append(items, struct{ label, value string }{
			"Zero", fmt.Sprintf("X%.2f Y%.2f", s.Zero.X, s.Zero.Y),
		})
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(x, y)
	pdf.CellFormat(sideWidth, 7, "Job", "", 0, "L", false, 0, "")
	y += 9

	for _, item := range items {
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetXY(x, y)
		pdf.CellFormat(30, 5, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(sideWidth-30, 5, item.value, "", 0, "L", false, 0, "")
		y += 6
	}

	y += 3
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetXY(x, y)
	pdf.CellFormat(sideWidth, 5, "Moves", "", 0, "L", false, 0, "")
	y += 6
	pdf.SetFont("Helvetica", "", 9)
	for _, line := range moveCounts(s.Summary) {
		pdf.SetXY(x+2, y)
		pdf.CellFormat(sideWidth-2, 5, line, "", 0, "L", false, 0, "")
		y += 5
	}

	qrData, err := json.Marshal(CollectSheetInfo(s))
	if err != nil {
		return fmt.Errorf("failed to marshal sheet info: %w", err)
	}
	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	imgName := "qr_" + s.JobID
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(imgName, opts, bytes.NewReader(qrPNG))
	pdf.ImageOptions(imgName, pageWidth-marginRight-qrSize, pageHeight-marginBottom-qrSize,
		qrSize, qrSize, false, opts, 0, "")
	return nil
}

// moveCounts lists the parsed move counts in MoveType order.
func moveCounts(sum gcode.Summary) []string {
	types := make([]gcode.MoveType, 0, len(sum.Counts))
	for t := range sum.Counts {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	lines := make([]string, 0, len(types))
	for _, t := range types {
		lines = append(lines, fmt.Sprintf("%s: %d", t, sum.Counts[t]))
	}
	return lines
}

// renderFeatureTable lists features in machining order, continuing on new
// pages as needed.
func renderFeatureTable(pdf *fpdf.Fpdf, s SetupSheet) {
	colWidths := []float64{12, 22, 28, 18, 22, 18, 28, 28, 91}
	headers := []string{"#", "ID", "Operation", "Cluster", "Depth", "Passes", "Cut length", "Start", "Label"}

	header := func() float64 {
		pdf.AddPage()
		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetXY(marginLeft, marginTop)
		pdf.CellFormat(100, 7, "Features", "", 0, "L", false, 0, "")

		y := marginTop + 9
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		xPos := marginLeft
		for i, h := range headers {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[i], rowHeight, h, "1", 0, "C", true, 0, "")
			xPos += colWidths[i]
		}
		return y + rowHeight
	}

	y := header()
	pdf.SetFont("Helvetica", "", 9)
	for i, row := range FeatureRows(s.Features) {
		if y+rowHeight > pageHeight-marginBottom {
			y = header()
			pdf.SetFont("Helvetica", "", 9)
		}
		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		xPos := marginLeft
		for j, cell := range row {
			align := "C"
			if j == len(row)-1 {
				align = "L"
			}
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[j], rowHeight, cell, "1", 0, align, true, 0, "")
			xPos += colWidths[j]
		}
		y += rowHeight
	}
}

// FeatureRows formats one table row per feature.
func FeatureRows(fs []*model.Feature) [][]string {
	rows := make([][]string, 0, len(fs))
	for i, f := range fs {
		cluster := "-"
		if f.Cluster >= 0 {
			cluster = fmt.Sprintf("%d", f.Cluster)
		}
		op := f.Role.String()
		if f.Pocketing {
			op += " +fill"
		}
		start := f.StartPoint()
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			f.ID,
			op,
			cluster,
			fmt.Sprintf("%.2f", f.Params.Depth),
			fmt.Sprintf("%d", f.Params.Entries),
			fmt.Sprintf("%.0f mm", CutLength(f)),
			fmt.Sprintf("%.0f, %.0f", start.X, start.Y),
			f.Source.Label,
		})
	}
	return rows
}

// CutLength is the distance a feature travels at cutting feed.
func CutLength(f *model.Feature) float64 {
	var l float64
	for _, s := range f.Segments {
		if s.Class == model.MotionCut {
			l += s.Curve.Length()
		}
	}
	return l
}

func formatMinutes(m float64) string {
	total := int(math.Round(m * 60))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
