// Package importer turns drawings and tables into colour-tagged shapes for
// the toolpath engine. It reads DXF drawings, JSON geometry documents and
// CSV or Excel drill tables.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/piwi3910/slabcam/internal/geom"
	"github.com/piwi3910/slabcam/internal/model"
	"github.com/xuri/excelize/v2"
)

// ImportResult holds the results of an import operation. File-level
// failures land in Errors, per-entity problems in Warnings.
type ImportResult struct {
	Shapes   []model.Shape
	Errors   []string
	Warnings []string
}

// OK reports whether the import produced shapes without file-level errors.
func (r ImportResult) OK() bool {
	return len(r.Errors) == 0 && len(r.Shapes) > 0
}

// Release hands the curves of every imported shape back to the kernel.
func (r *ImportResult) Release(k geom.Kernel) {
	for _, s := range r.Shapes {
		if s.Curve != nil {
			k.Release(s.Curve)
		}
	}
	r.Shapes = nil
}

// Import picks a reader by file extension.
func Import(path string, k geom.Kernel) ImportResult {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dxf":
		return ImportDXF(path, k, DXFOptions{})
	case ".json":
		return ImportGeometry(path, k)
	case ".csv", ".txt":
		return ImportDrillCSV(path)
	case ".xlsx", ".xls":
		return ImportDrillExcel(path)
	default:
		return ImportResult{Errors: []string{fmt.Sprintf("Unsupported file type %q", filepath.Ext(path))}}
	}
}

// ColumnMapping maps drill table columns to their indices in the data.
type ColumnMapping struct {
	Label int
	X     int
	Y     int
	Z     int
	Color int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"label": {"label", "name", "id", "hole", "description", "desc"},
	"x":     {"x", "pos x", "x (mm)", "xpos"},
	"y":     {"y", "pos y", "y (mm)", "ypos"},
	"z":     {"z", "pos z", "z (mm)", "zpos", "top"},
	"color": {"color", "colour", "rgb", "layer", "type"},
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// The delimiter that produces the most consistent multi-column rows wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectColumns examines a header row and returns a ColumnMapping.
// Returns the mapping and true if a header was detected, or the positional
// mapping X, Y, Z, Color, Label and false otherwise.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{Label: -1, X: -1, Y: -1, Z: -1, Color: -1}
	slots := map[string]*int{
		"label": &mapping.Label,
		"x":     &mapping.X,
		"y":     &mapping.Y,
		"z":     &mapping.Z,
		"color": &mapping.Color,
	}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized != alias {
					continue
				}
				isHeader = true
				if idx := slots[role]; *idx == -1 {
					*idx = i
				}
			}
		}
	}

	if !isHeader {
		return ColumnMapping{X: 0, Y: 1, Z: 2, Color: 3, Label: 4}, false
	}
	return mapping, true
}

// getCell safely retrieves a cell value from a row by column index.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseCoord(row []string, idx int, name, rowLabel string, required bool) (float64, string) {
	s := getCell(row, idx)
	if s == "" {
		if required {
			return 0, fmt.Sprintf("%s: Missing %s value", rowLabel, name)
		}
		return 0, ""
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Sprintf("%s: Invalid %s '%s'", rowLabel, name, s)
	}
	return v, ""
}

// parseRow extracts a drill point from a row using the given column mapping.
// Returns the shape, any error message, and any warning message.
func parseRow(row []string, mapping ColumnMapping, rowLabel string, count int) (model.Shape, string, string) {
	x, errMsg := parseCoord(row, mapping.X, "X", rowLabel, true)
	if errMsg != "" {
		return model.Shape{}, errMsg, ""
	}
	y, errMsg := parseCoord(row, mapping.Y, "Y", rowLabel, true)
	if errMsg != "" {
		return model.Shape{}, errMsg, ""
	}
	z, errMsg := parseCoord(row, mapping.Z, "Z", rowLabel, false)
	if errMsg != "" {
		return model.Shape{}, errMsg, ""
	}

	label := getCell(row, mapping.Label)
	if label == "" {
		label = fmt.Sprintf("Hole %d", count+1)
	}

	shape := model.Shape{
		Kind:  model.ShapePoint,
		Point: geom.Point{X: x, Y: y, Z: z},
		Color: model.Black,
		Label: label,
	}

	var warning string
	if cs := getCell(row, mapping.Color); cs != "" {
		if strings.EqualFold(cs, "zero") || strings.EqualFold(cs, "origin") {
			shape.Color = model.White
		} else if c, err := model.ParseColor(cs); err == nil {
			shape.Color = c
		} else {
			warning = fmt.Sprintf("%s: Unknown colour '%s', treating as drill", rowLabel, cs)
		}
	}

	return shape, "", warning
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportDrillCSV imports drill points from a CSV file. The delimiter is
// detected automatically and columns are mapped by header names.
func ImportDrillCSV(path string) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		result.Warnings = append(result.Warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	records, err := readCSV(bytes.NewReader(data), delimiter)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}
	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, "Line", result.Warnings)
}

// ImportDrillCSVFromReader imports drill points from a CSV reader with a
// known delimiter.
func ImportDrillCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	records, err := readCSV(reader, delimiter)
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot read CSV: %v", err)}}
	}
	if len(records) == 0 {
		return ImportResult{Errors: []string{"File is empty"}}
	}
	return importFromRows(records, "Line", nil)
}

func readCSV(r io.Reader, delimiter rune) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.Comment = '#'
	return reader.ReadAll()
}

// ImportDrillExcel imports drill points from the first sheet of an Excel file.
func ImportDrillExcel(path string) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "Sheet is empty")
		return result
	}

	return importFromRows(rows, "Row", nil)
}

// importFromRows is the shared import logic for CSV and Excel data.
func importFromRows(rows [][]string, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{
		Warnings: initialWarnings,
	}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")

		var missing []string
		if mapping.X == -1 {
			missing = append(missing, "X")
		}
		if mapping.Y == -1 {
			missing = append(missing, "Y")
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	} else if _, err := strconv.ParseFloat(getCell(rows[0], 0), 64); err != nil {
		// Unrecognised header: skip it but keep the positional mapping
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")
	}

	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		shape, errMsg, warning := parseRow(row, mapping, rowLabel, len(result.Shapes))
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}

		result.Shapes = append(result.Shapes, shape)
	}

	if len(result.Shapes) == 0 && len(result.Errors) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
	}
	return result
}
