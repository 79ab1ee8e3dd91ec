package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/bahadkc/deger360/internal/database"
	"github.com/bahadkc/deger360/internal/report"
)

func sampleReport(now time.Time) (*report.Summary, *report.Data) {
	tracking := "546180"
	comp := 40000.0
	data := &report.Data{
		Cases: []database.Case{
			{
				ID: "c1", CaseNumber: "DK-2025-180", BoardStage: "muzakere", Status: "active",
				EstimatedCompensation: &comp, CreatedAt: now.Add(-48 * time.Hour),
				Customer: &database.Customer{FullName: "Ayşe Yılmaz", DosyaTakipNumarasi: &tracking},
			},
			{ID: "old", CaseNumber: "DK-2019-001", CreatedAt: time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)},
		},
	}
	return report.Summarize(data, report.PeriodOneMonth, now), data
}

func TestWriteCSV(t *testing.T) {
	now := time.Date(2025, 5, 14, 0, 0, 0, 0, time.UTC)
	summary, data := sampleReport(now)

	var buf bytes.Buffer
	if err := WriteCSV(&buf, summary, data); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	if !strings.Contains(out, "Yeni Müşteri;1") {
		t.Errorf("missing summary row:\n%s", out)
	}
	if !strings.Contains(out, "DK-2025-180;Ayşe Yılmaz;546180;Müzakere;active;40000.00;12/05/2025") {
		t.Errorf("missing case row:\n%s", out)
	}
	if strings.Contains(out, "DK-2019-001") {
		t.Error("case outside the period was exported")
	}
}

func TestReportPDF(t *testing.T) {
	summary, _ := sampleReport(time.Now())
	summary.Warnings = []string{"1 dosya 90+ gündür açık"}

	out, err := ReportPDF("Süper Admin Raporu", summary)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Error("output is not a pdf")
	}
}

func TestWelcomeLetterPDF(t *testing.T) {
	l := Letter{
		CustomerName:   "Ayşe Yılmaz",
		TrackingNumber: "546180",
		CaseNumber:     "DK-2025-180",
		PortalURL:      "https://deger360.net/portal/giris",
	}
	if got := l.LoginURL(); got != "https://deger360.net/portal/giris?dosya=546180" {
		t.Errorf("LoginURL() = %q", got)
	}

	out, err := WelcomeLetterPDF(l)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Error("output is not a pdf")
	}
}

func TestFold(t *testing.T) {
	if got := fold("Şükrü Işık Çağlar İğdır"); got != "Sukru Isik Caglar Igdir" {
		t.Errorf("fold() = %q", got)
	}
}
