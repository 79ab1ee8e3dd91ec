package export

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/bahadkc/deger360/internal/receipt"
	"github.com/bahadkc/deger360/internal/report"
	"github.com/jung-kurt/gofpdf"
)

// ReportPDF renders the summary and staff breakdown as an A4 document
func ReportPDF(title string, summary *report.Summary) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, fold(title), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	period := fmt.Sprintf("%s - %s", summary.From.Format("02/01/2006"), summary.To.Format("02/01/2006"))
	pdf.CellFormat(0, 6, period, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	section(pdf, "Genel Bakis")
	keyValues(pdf, [][2]string{
		{"Yeni Musteri", strconv.Itoa(summary.NewCustomers)},
		{"Aktif Dosya", strconv.Itoa(summary.ActiveCases)},
		{"Biten Dosya", strconv.Itoa(summary.CompletedCases)},
		{"Toplam Ciro", fold(receipt.FormatAmount(summary.Revenue))},
		{"Ortalama Sure", fmt.Sprintf("%d gun", summary.AverageDurationDays)},
	})

	if len(summary.Lawyers) > 0 {
		section(pdf, "Avukatlar")
		rows := make([][]string, 0, len(summary.Lawyers))
		for _, l := range summary.Lawyers {
			rows = append(rows, []string{l.Name, strconv.Itoa(l.Cases), strconv.Itoa(l.Active), strconv.Itoa(l.Completed), strconv.Itoa(l.AverageDurationDays)})
		}
		table(pdf, []string{"Ad", "Dosya", "Aktif", "Tamamlanan", "Ort. Sure"}, rows)
	}

	if len(summary.Agencies) > 0 {
		section(pdf, "Acenteler")
		rows := make([][]string, 0, len(summary.Agencies))
		for _, a := range summary.Agencies {
			rows = append(rows, []string{a.Name, strconv.Itoa(a.Customers), strconv.Itoa(a.Active), receipt.FormatAmount(a.TotalCommission)})
		}
		table(pdf, []string{"Ad", "Musteri", "Aktif", "Komisyon"}, rows)
	}

	if len(summary.Admins) > 0 {
		section(pdf, "Adminler")
		rows := make([][]string, 0, len(summary.Admins))
		for _, a := range summary.Admins {
			rows = append(rows, []string{a.Name, strconv.Itoa(a.Brought), strconv.Itoa(a.Active), strconv.Itoa(a.Completed)})
		}
		table(pdf, []string{"Ad", "Getirilen", "Aktif", "Tamamlanan"}, rows)
	}

	if len(summary.Warnings) > 0 {
		section(pdf, "Uyarilar")
		pdf.SetFont("Arial", "", 10)
		for _, w := range summary.Warnings {
			pdf.MultiCell(0, 6, "- "+fold(w), "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.Ln(2)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, title, "B", 1, "L", false, 0, "")
	pdf.Ln(1)
}

func keyValues(pdf *gofpdf.Fpdf, pairs [][2]string) {
	for _, kv := range pairs {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(50, 6, kv[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, kv[1], "", 1, "L", false, 0, "")
	}
}

func table(pdf *gofpdf.Fpdf, header []string, rows [][]string) {
	width, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	colW := (width - left - right) / float64(len(header))

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(240, 240, 240)
	for _, h := range header {
		pdf.CellFormat(colW, 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range rows {
		for i, cell := range row {
			align := "R"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(colW, 6, fold(cell), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
}
