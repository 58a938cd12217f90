package report

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/oprisk/pkg/domain/model"
	"github.com/secmon-lab/oprisk/pkg/domain/types"
)

// Title is printed at the top of the official report
const Title = "Official Risk Register"

type pdfReport struct {
	pdf *gofpdf.Fpdf
	// tr maps UTF-8 text onto the cp1252 encoding of the core fonts
	tr func(string) string
}

func newPDFReport() *pdfReport {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.SetAutoPageBreak(true, 18)

	r := &pdfReport{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()
	return r
}

func (r *pdfReport) header(rep *model.OfficialReport) {
	r.pdf.SetFont("Arial", "B", 18)
	r.pdf.SetTextColor(33, 37, 41)
	r.pdf.CellFormat(0, 12, Title, "", 1, "C", false, 0, "")

	r.pdf.SetFont("Arial", "", 9)
	r.pdf.SetTextColor(108, 117, 125)
	generated := fmt.Sprintf("Generated %s by %s", rep.GeneratedAt.Format("January 2, 2006 15:04 MST"), rep.GeneratedBy)
	r.pdf.CellFormat(0, 6, r.tr(generated), "", 1, "C", false, 0, "")
	r.pdf.Ln(6)
}

func (r *pdfReport) section(title string) {
	r.pdf.SetFont("Arial", "B", 12)
	r.pdf.SetTextColor(33, 37, 41)
	r.pdf.SetFillColor(240, 240, 240)
	r.pdf.CellFormat(0, 8, r.tr(title), "", 1, "L", true, 0, "")
	r.pdf.Ln(3)
}

func (r *pdfReport) paragraph(text string) {
	r.pdf.SetFont("Arial", "", 10)
	r.pdf.SetTextColor(33, 37, 41)
	r.pdf.MultiCell(0, 5, r.tr(text), "", "L", false)
	r.pdf.Ln(4)
}

var registerColumns = []struct {
	title string
	width float64
}{
	{"Ref", 28},
	{"Area", 26},
	{"Description", 62},
	{"Owner", 32},
	{"Coordinator", 32},
	{"Controls", 52},
	{"Inherent", 20},
	{"Residual", 21},
}

func (r *pdfReport) registerTable(risks []*model.Risk) {
	r.pdf.SetFont("Arial", "B", 8)
	r.pdf.SetFillColor(52, 58, 64)
	r.pdf.SetTextColor(255, 255, 255)
	for _, col := range registerColumns {
		r.pdf.CellFormat(col.width, 7, col.title, "1", 0, "C", true, 0, "")
	}
	r.pdf.Ln(-1)

	for i, risk := range risks {
		cells := []string{
			risk.ReferenceID,
			risk.AreaName,
			risk.ShortDescription(),
			risk.RiskOwner,
			risk.Coordinator(),
			risk.ControlDescription(),
		}

		if i%2 == 1 {
			r.pdf.SetFillColor(248, 249, 250)
		} else {
			r.pdf.SetFillColor(255, 255, 255)
		}
		r.pdf.SetFont("Arial", "", 8)
		r.pdf.SetTextColor(33, 37, 41)
		for j, cell := range cells {
			r.pdf.CellFormat(registerColumns[j].width, 6, r.tr(truncate(cell, registerColumns[j].width)), "1", 0, "L", true, 0, "")
		}
		r.badge(risk.InherentRating, registerColumns[6].width)
		r.badge(risk.ResidualRating, registerColumns[7].width)
		r.pdf.Ln(-1)
	}
	r.pdf.Ln(4)
}

func (r *pdfReport) badge(rating types.Rating, width float64) {
	red, green, blue := hexToRGB(rating.BadgeColor())
	r.pdf.SetFillColor(red, green, blue)
	r.pdf.SetTextColor(255, 255, 255)
	r.pdf.SetFont("Arial", "B", 8)
	r.pdf.CellFormat(width, 6, rating.String(), "1", 0, "C", true, 0, "")
}

// RenderPDF renders the official report as a PDF document
func RenderPDF(rep *model.OfficialReport) ([]byte, error) {
	r := newPDFReport()
	r.header(rep)

	r.section("Executive Summary")
	r.paragraph(rep.Config.ExecutiveSummary)

	counts := make(map[types.Rating]int)
	for _, risk := range rep.Risks {
		counts[risk.ResidualRating]++
	}
	r.section("Residual Risk Profile")
	var profile []string
	for _, rating := range types.AllRatings() {
		profile = append(profile, fmt.Sprintf("%s: %d", rating, counts[rating]))
	}
	r.paragraph(fmt.Sprintf("Total risks: %d. %s.", len(rep.Risks), strings.Join(profile, ", ")))

	r.section("Risk Register")
	r.registerTable(rep.Risks)

	var buf bytes.Buffer
	if err := r.pdf.Output(&buf); err != nil {
		return nil, goerr.Wrap(err, "failed to generate PDF")
	}
	return buf.Bytes(), nil
}

// truncate shortens text so that it roughly fits a cell of the given width in mm
func truncate(text string, width float64) string {
	limit := int(width / 1.7)
	runes := []rune(text)
	if len(runes) <= limit || limit < 4 {
		return text
	}
	return string(runes[:limit-3]) + "..."
}

func hexToRGB(hex string) (int, int, int) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 119, 119, 119
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 119, 119, 119
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}
