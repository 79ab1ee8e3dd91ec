package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/bahadkc/deger360/internal/report"
	"github.com/bahadkc/deger360/internal/workflow"
)

// WriteCSV writes the summary followed by one row per case in the period.
// The semicolon separator is what spreadsheet apps expect in a Turkish
// locale.
func WriteCSV(w io.Writer, summary *report.Summary, data *report.Data) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	rows := [][]string{
		{"Rapor Dönemi", summary.Period},
		{"Başlangıç", summary.From.Format("02/01/2006")},
		{"Bitiş", summary.To.Format("02/01/2006")},
		{"Yeni Müşteri", strconv.Itoa(summary.NewCustomers)},
		{"Aktif Dosya", strconv.Itoa(summary.ActiveCases)},
		{"Biten Dosya", strconv.Itoa(summary.CompletedCases)},
		{"Toplam Ciro", formatMoney(summary.Revenue)},
		{"Ortalama Süre (gün)", strconv.Itoa(summary.AverageDurationDays)},
		{},
		{"Dosya No", "Müşteri", "Takip No", "Aşama", "Durum", "Tahmini Tazminat", "Oluşturulma"},
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, c := range data.Cases {
		if c.CreatedAt.Before(summary.From) || c.CreatedAt.After(summary.To) {
			continue
		}
		customer, tracking := "", ""
		if c.Customer != nil {
			customer = c.Customer.FullName
			if c.Customer.DosyaTakipNumarasi != nil {
				tracking = *c.Customer.DosyaTakipNumarasi
			}
		}
		compensation := ""
		if c.EstimatedCompensation != nil {
			compensation = formatMoney(*c.EstimatedCompensation)
		}
		record := []string{
			c.CaseNumber,
			customer,
			tracking,
			workflow.StageTitle(c.BoardStage),
			c.Status,
			compensation,
			c.CreatedAt.Format("02/01/2006"),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
