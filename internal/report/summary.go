package report

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/bahadkc/deger360/internal/database"
	"github.com/bahadkc/deger360/internal/workflow"
)

const (
	// CommissionShare is the company's share of the compensation paid out
	CommissionShare = 0.20
	// AgencyCommissionPerCustomer is paid to an agency for each referred case
	AgencyCommissionPerCustomer = 15000
	// LongOpenDays flags active cases open at least this long
	LongOpenDays = 90
)

type Summary struct {
	Period              string              `json:"period"`
	From                time.Time           `json:"from"`
	To                  time.Time           `json:"to"`
	NewCustomers        int                 `json:"new_customers"`
	ActiveCases         int                 `json:"active_cases"`
	CompletedCases      int                 `json:"completed_cases"`
	Revenue             float64             `json:"revenue"`
	AverageDurationDays int                 `json:"average_duration_days"`
	StageCounts         map[string]int      `json:"stage_counts"`
	Lawyers             []LawyerPerformance `json:"lawyers"`
	Agencies            []AgencyPerformance `json:"agencies"`
	Admins              []AdminPerformance  `json:"admins"`
	Best                Best                `json:"best"`
	Warnings            []string            `json:"warnings"`
}

type LawyerPerformance struct {
	Name                string `json:"name"`
	Cases               int    `json:"cases"`
	AverageDurationDays int    `json:"average_duration_days"`
	Completed           int    `json:"completed"`
	Active              int    `json:"active"`
}

type AgencyPerformance struct {
	Name            string  `json:"name"`
	Customers       int     `json:"customers"`
	Active          int     `json:"active"`
	TotalCommission float64 `json:"total_commission"`
}

type AdminPerformance struct {
	Name      string `json:"name"`
	Brought   int    `json:"brought"`
	Active    int    `json:"active"`
	Completed int    `json:"completed"`
}

type Leader struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type Best struct {
	MostCases     Leader `json:"most_cases"`
	Fastest       Leader `json:"fastest"`
	MostCustomers Leader `json:"most_customers"`
}

// PeriodWindow returns the creation-date window a period covers. Windows
// start on a month or year boundary and end with the current month.
func PeriodWindow(period string, now time.Time) (time.Time, time.Time) {
	loc := now.Location()
	end := time.Date(now.Year(), now.Month()+1, 0, 23, 59, 59, 0, loc)

	switch period {
	case PeriodThreeMonths:
		return time.Date(now.Year(), now.Month()-2, 1, 0, 0, 0, 0, loc), end
	case PeriodOneYear:
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, loc), end
	case PeriodAllTime:
		return time.Date(2000, time.January, 1, 0, 0, 0, 0, loc), end
	default:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc), end
	}
}

type summarizer struct {
	data     *Data
	states   map[string][]workflow.TaskState
	assigned map[string]map[string]bool
}

func (s *summarizer) completed(c *database.Case) bool {
	return workflow.IsCaseCompleted(c.BoardStage, s.states[c.ID])
}

func (s *summarizer) isAssigned(caseID, adminID string) bool {
	return s.assigned[caseID][adminID]
}

// Summarize computes the headline numbers of a report from fetched data
func Summarize(data *Data, period string, now time.Time) *Summary {
	from, to := PeriodWindow(period, now)

	s := &summarizer{
		data:     data,
		states:   make(map[string][]workflow.TaskState),
		assigned: make(map[string]map[string]bool),
	}
	for _, row := range data.Checklist {
		s.states[row.CaseID] = append(s.states[row.CaseID], workflow.TaskState{TaskKey: row.TaskKey, Completed: row.Completed})
	}
	for _, ca := range data.CaseAdmins {
		if s.assigned[ca.CaseID] == nil {
			s.assigned[ca.CaseID] = make(map[string]bool)
		}
		s.assigned[ca.CaseID][ca.AdminID] = true
	}

	var inPeriod []*database.Case
	for i := range data.Cases {
		c := &data.Cases[i]
		if !c.CreatedAt.Before(from) && !c.CreatedAt.After(to) {
			inPeriod = append(inPeriod, c)
		}
	}

	summary := &Summary{
		Period:       period,
		From:         from,
		To:           to,
		NewCustomers: len(inPeriod),
		StageCounts:  make(map[string]int),
		Lawyers:      []LawyerPerformance{},
		Agencies:     []AgencyPerformance{},
		Admins:       []AdminPerformance{},
		Warnings:     []string{},
	}

	var completed []*database.Case
	for _, c := range inPeriod {
		summary.StageCounts[c.BoardStage]++
		if s.completed(c) {
			completed = append(completed, c)
			if c.EstimatedCompensation != nil {
				summary.Revenue += *c.EstimatedCompensation * CommissionShare
			}
		}
	}
	summary.CompletedCases = len(completed)
	summary.ActiveCases = len(inPeriod) - len(completed)
	summary.AverageDurationDays = averageDuration(completed)

	for _, admin := range data.Admins {
		switch admin.Role {
		case "lawyer":
			if perf := s.lawyer(admin, inPeriod); perf.Cases > 0 {
				summary.Lawyers = append(summary.Lawyers, perf)
			}
		case "acente":
			if perf := s.agency(admin, inPeriod); perf.Customers > 0 {
				summary.Agencies = append(summary.Agencies, perf)
			}
		case "admin":
			if perf := s.admin(admin, inPeriod); perf.Brought > 0 {
				summary.Admins = append(summary.Admins, perf)
			}
		}
	}

	summary.Best = best(summary)
	summary.Warnings = s.warnings(summary, inPeriod, now)
	return summary
}

func (s *summarizer) lawyer(admin AdminRow, cases []*database.Case) LawyerPerformance {
	name := displayName(admin, "Avukat")
	perf := LawyerPerformance{Name: name}

	var done []*database.Case
	for _, c := range cases {
		byName := admin.Name != nil && c.AssignedLawyer != nil && *c.AssignedLawyer == *admin.Name
		if !s.isAssigned(c.ID, admin.ID) && !byName {
			continue
		}
		perf.Cases++
		if s.completed(c) {
			perf.Completed++
			done = append(done, c)
		} else {
			perf.Active++
		}
	}
	perf.AverageDurationDays = averageDuration(done)
	return perf
}

func (s *summarizer) agency(admin AdminRow, cases []*database.Case) AgencyPerformance {
	perf := AgencyPerformance{Name: displayName(admin, "Acente")}
	for _, c := range cases {
		if !s.isAssigned(c.ID, admin.ID) {
			continue
		}
		perf.Customers++
		if !s.completed(c) {
			perf.Active++
		}
	}
	perf.TotalCommission = float64(perf.Customers * AgencyCommissionPerCustomer)
	return perf
}

func (s *summarizer) admin(admin AdminRow, cases []*database.Case) AdminPerformance {
	perf := AdminPerformance{Name: displayName(admin, "Admin")}
	for _, c := range cases {
		if !s.isAssigned(c.ID, admin.ID) {
			continue
		}
		perf.Brought++
		if s.completed(c) {
			perf.Completed++
		} else {
			perf.Active++
		}
	}
	return perf
}

func (s *summarizer) warnings(summary *Summary, cases []*database.Case, now time.Time) []string {
	warnings := []string{}

	longOpen := 0
	for _, c := range cases {
		if c.Status != database.CaseStatusActive {
			continue
		}
		start := c.StartDate
		if start.IsZero() {
			start = c.CreatedAt
		}
		if daysBetween(start, now) >= LongOpenDays {
			longOpen++
		}
	}
	if longOpen > 0 {
		warnings = append(warnings, fmt.Sprintf("%d dosya %d+ gündür açık", longOpen, LongOpenDays))
	}

	twoMonthsAgo := time.Date(now.Year(), now.Month()-2, 1, 0, 0, 0, 0, now.Location())
	active := make(map[string]bool, len(summary.Agencies))
	for _, a := range summary.Agencies {
		active[a.Name] = true
	}
	for _, admin := range s.data.Admins {
		if admin.Role != "acente" {
			continue
		}
		name := displayName(admin, "Acente")
		if !active[name] {
			continue
		}
		recent := false
		for _, c := range cases {
			if s.isAssigned(c.ID, admin.ID) && !c.CreatedAt.Before(twoMonthsAgo) {
				recent = true
				break
			}
		}
		if !recent {
			warnings = append(warnings, name+" 2 aydır yeni müşteri göndermedi")
		}
	}
	return warnings
}

func best(summary *Summary) Best {
	b := Best{
		MostCases:     Leader{Name: "-"},
		Fastest:       Leader{Name: "-"},
		MostCustomers: Leader{Name: "-"},
	}

	for i, l := range summary.Lawyers {
		if i == 0 || l.Cases > b.MostCases.Value {
			b.MostCases = Leader{Name: l.Name, Value: l.Cases}
		}
	}

	timed := make([]LawyerPerformance, 0, len(summary.Lawyers))
	for _, l := range summary.Lawyers {
		if l.AverageDurationDays > 0 {
			timed = append(timed, l)
		}
	}
	sort.SliceStable(timed, func(i, j int) bool { return timed[i].AverageDurationDays < timed[j].AverageDurationDays })
	if len(timed) > 0 {
		b.Fastest = Leader{Name: timed[0].Name, Value: timed[0].AverageDurationDays}
	}

	for i, a := range summary.Agencies {
		if i == 0 || a.Customers > b.MostCustomers.Value {
			b.MostCustomers = Leader{Name: a.Name, Value: a.Customers}
		}
	}
	return b
}

// averageDuration measures from customer creation to the case's last
// update, in whole days
func averageDuration(cases []*database.Case) int {
	if len(cases) == 0 {
		return 0
	}
	total := 0
	for _, c := range cases {
		start := c.CreatedAt
		if c.Customer != nil && !c.Customer.CreatedAt.IsZero() {
			start = c.Customer.CreatedAt
		}
		end := c.UpdatedAt
		if end.IsZero() {
			end = c.CreatedAt
		}
		total += daysBetween(start, end)
	}
	return int(math.Round(float64(total) / float64(len(cases))))
}

func daysBetween(start, end time.Time) int {
	return int(math.Floor(end.Sub(start).Hours() / 24))
}

func displayName(admin AdminRow, fallback string) string {
	if admin.Name != nil && *admin.Name != "" {
		return *admin.Name
	}
	id := admin.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fallback + " " + id
}
