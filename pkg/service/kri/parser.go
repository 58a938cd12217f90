// Package kri parses pasted Key Risk Indicator report tables. The format is
// loose: a title line carrying the area and reporting period, an optional
// header row, then one KRI per line separated by tabs or runs of spaces.
// Malformed rows are dropped rather than failing the whole table.
package kri

import (
	"regexp"
	"strings"
)

const (
	reportingPeriodMarker = "Reporting Period:"
	headerMarker          = "Key Risk Indicator"
	descriptionMarker     = "KRI Description"
	occurrenceMarker      = "occurrence"

	// periodScanLines bounds how far the reporting period marker is searched for
	periodScanLines = 5
)

var multiSpace = regexp.MustCompile(`\s{2,}`)

// Row is one KRI line split into its positional fields
type Row struct {
	Name        string
	Description string
	RelatedRisk string
	Process     string
	Occurrence  string
}

// Fields returns the row as the ordered field list
func (r Row) Fields() []string {
	return []string{r.Name, r.Description, r.RelatedRisk, r.Process, r.Occurrence}
}

// Table is the parsed content of a KRI report
type Table struct {
	AreaName        string
	ReportingPeriod string
	Rows            []Row
}

// Parser splits raw text into a Table
type Parser struct {
	minFields int
}

// NewParser creates a parser that drops rows with fewer than minFields fields
func NewParser(minFields int) *Parser {
	if minFields < 1 {
		minFields = 1
	}
	return &Parser{minFields: minFields}
}

// Parse never fails; unusable input yields a table without rows
func (p *Parser) Parse(raw string) *Table {
	lines := splitLines(raw)
	table := &Table{}
	if len(lines) == 0 {
		return table
	}

	table.AreaName, table.ReportingPeriod = parseTitle(lines)

	start := 1
	if idx := findHeader(lines); idx >= 0 {
		start = idx + 1
	}

	for _, line := range lines[min(start, len(lines)):] {
		fields := SplitFields(line)
		if len(fields) < p.minFields {
			continue
		}
		table.Rows = append(table.Rows, toRow(fields))
	}

	return table
}

// SplitFields splits a row on tabs when present, otherwise on runs of two or
// more whitespace characters. Fields are trimmed.
func SplitFields(line string) []string {
	var parts []string
	if strings.Contains(line, "\t") {
		parts = strings.Split(line, "\t")
	} else {
		parts = multiSpace.Split(line, -1)
	}

	fields := make([]string, len(parts))
	for i, part := range parts {
		fields[i] = strings.TrimSpace(part)
	}

	// trailing empty cells come from trailing tabs and carry no data
	for len(fields) > 0 && fields[len(fields)-1] == "" {
		fields = fields[:len(fields)-1]
	}
	return fields
}

func splitLines(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		// only spaces are trimmed; a leading tab marks an empty first cell
		lines = append(lines, strings.Trim(line, " \r"))
	}
	return lines
}

func parseTitle(lines []string) (area, period string) {
	for i, line := range lines[:min(periodScanLines, len(lines))] {
		idx := strings.Index(line, reportingPeriodMarker)
		if idx < 0 {
			continue
		}
		area = strings.TrimSpace(line[:idx])
		period = strings.TrimSpace(line[idx+len(reportingPeriodMarker):])
		if area == "" && i > 0 {
			area = strings.TrimSpace(lines[0])
		}
		return area, period
	}
	return strings.TrimSpace(lines[0]), ""
}

func findHeader(lines []string) int {
	for i, line := range lines {
		if !strings.Contains(line, headerMarker) {
			continue
		}
		if strings.Contains(strings.ToLower(line), occurrenceMarker) || strings.Contains(line, descriptionMarker) {
			return i
		}
	}
	return -1
}

func toRow(fields []string) Row {
	at := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}
	return Row{
		Name:        at(0),
		Description: at(1),
		RelatedRisk: at(2),
		Process:     at(3),
		Occurrence:  at(4),
	}
}
