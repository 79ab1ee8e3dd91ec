package report

import (
	"testing"
	"time"

	"github.com/bahadkc/deger360/internal/database"
	"github.com/bahadkc/deger360/internal/workflow"
)

func ptr[T any](v T) *T { return &v }

func TestPeriodWindow(t *testing.T) {
	now := time.Date(2025, 5, 14, 10, 0, 0, 0, time.UTC)
	end := time.Date(2025, 5, 31, 23, 59, 59, 0, time.UTC)

	tests := []struct {
		period string
		from   time.Time
	}{
		{PeriodOneMonth, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)},
		{PeriodThreeMonths, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
		{PeriodOneYear, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		{PeriodAllTime, time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		from, to := PeriodWindow(tt.period, now)
		if !from.Equal(tt.from) || !to.Equal(end) {
			t.Errorf("%s: got [%v, %v], want [%v, %v]", tt.period, from, to, tt.from, end)
		}
	}
}

func TestSummarize(t *testing.T) {
	now := time.Date(2025, 5, 14, 10, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	var allTasks []ChecklistRow
	for _, item := range workflow.Items {
		allTasks = append(allTasks, ChecklistRow{CaseID: "c2", TaskKey: item.Key, Completed: true})
	}

	data := &Data{
		Cases: []database.Case{
			{
				ID: "c1", BoardStage: workflow.StageTamamlandi, Status: database.CaseStatusCompleted,
				EstimatedCompensation: ptr(50000.0),
				CreatedAt:             now.Add(-20 * day), UpdatedAt: now.Add(-10 * day),
				Customer: &database.Customer{CreatedAt: now.Add(-20 * day)},
			},
			{
				ID: "c2", BoardStage: workflow.StageOdeme, Status: database.CaseStatusActive,
				EstimatedCompensation: ptr(10000.0),
				CreatedAt:             now.Add(-5 * day), UpdatedAt: now.Add(-1 * day),
				Customer: &database.Customer{CreatedAt: now.Add(-5 * day)},
			},
			{
				ID: "c3", BoardStage: workflow.StageMuzakere, Status: database.CaseStatusActive,
				EstimatedCompensation: ptr(99999.0),
				CreatedAt:             now.Add(-3 * day), UpdatedAt: now,
				StartDate:      now.Add(-120 * day),
				AssignedLawyer: ptr("Av. Deniz"),
			},
			{
				ID: "old", BoardStage: workflow.StageTamamlandi,
				CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			},
		},
		Admins: []AdminRow{
			{ID: "lawyer-1", Name: ptr("Av. Deniz"), Role: "lawyer"},
			{ID: "acente-12345678", Role: "acente"},
			{ID: "admin-1", Name: ptr("Selin"), Role: "admin"},
		},
		CaseAdmins: []database.CaseAdmin{
			{CaseID: "c1", AdminID: "lawyer-1"},
			{CaseID: "c1", AdminID: "acente-12345678"},
			{CaseID: "c2", AdminID: "admin-1"},
		},
		Checklist: allTasks,
	}

	s := Summarize(data, PeriodOneMonth, now)

	if s.NewCustomers != 3 {
		t.Errorf("NewCustomers = %d, want 3", s.NewCustomers)
	}
	if s.CompletedCases != 2 || s.ActiveCases != 1 {
		t.Errorf("completed=%d active=%d, want 2/1", s.CompletedCases, s.ActiveCases)
	}
	if s.Revenue != 12000 {
		t.Errorf("Revenue = %v, want 12000", s.Revenue)
	}
	// (10 + 4) / 2
	if s.AverageDurationDays != 7 {
		t.Errorf("AverageDurationDays = %d, want 7", s.AverageDurationDays)
	}

	if len(s.Lawyers) != 1 {
		t.Fatalf("lawyers = %+v", s.Lawyers)
	}
	lawyer := s.Lawyers[0]
	if lawyer.Cases != 2 || lawyer.Completed != 1 || lawyer.Active != 1 || lawyer.AverageDurationDays != 10 {
		t.Errorf("lawyer = %+v", lawyer)
	}

	if len(s.Agencies) != 1 || s.Agencies[0].Name != "Acente acente-1" || s.Agencies[0].TotalCommission != 15000 {
		t.Errorf("agencies = %+v", s.Agencies)
	}
	if len(s.Admins) != 1 || s.Admins[0].Brought != 1 || s.Admins[0].Completed != 1 {
		t.Errorf("admins = %+v", s.Admins)
	}

	if s.Best.MostCases.Name != "Av. Deniz" || s.Best.Fastest.Value != 10 || s.Best.MostCustomers.Value != 1 {
		t.Errorf("best = %+v", s.Best)
	}

	if len(s.Warnings) != 1 || s.Warnings[0] != "1 dosya 90+ gündür açık" {
		t.Errorf("warnings = %v", s.Warnings)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(emptyData(), PeriodAllTime, time.Now())
	if s.NewCustomers != 0 || s.AverageDurationDays != 0 || s.Best.MostCases.Name != "-" {
		t.Errorf("summary = %+v", s)
	}
	if s.Warnings == nil || s.Lawyers == nil {
		t.Error("lists should be empty, not nil")
	}
}
