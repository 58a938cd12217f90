package report

var (
	HexToRGB = hexToRGB
	Truncate = truncate
)

func TranslatePDFText(text string) string {
	return newPDFReport().tr(text)
}
