package report

import (
	"context"

	"github.com/bahadkc/deger360/internal/access"
	"github.com/bahadkc/deger360/internal/apperror"
	"github.com/bahadkc/deger360/internal/cache"
	"github.com/bahadkc/deger360/pkg/logger"
)

// Report periods
const (
	PeriodOneMonth    = "1_month"
	PeriodThreeMonths = "3_months"
	PeriodOneYear     = "1_year"
	PeriodAllTime     = "all_time"
)

// ValidPeriod reports whether p is a known period
func ValidPeriod(p string) bool {
	switch p {
	case PeriodOneMonth, PeriodThreeMonths, PeriodOneYear, PeriodAllTime:
		return true
	}
	return false
}

// Aggregator serves report data through a short lived cache. Writes to
// cases do not invalidate it; ClearReportCache is the only invalidation.
type Aggregator struct {
	cache   cache.Cache
	fetcher Fetcher
	gate    *access.Gate
	logger  *logger.Logger
}

func NewAggregator(c cache.Cache, fetcher Fetcher, gate *access.Gate, logger *logger.Logger) *Aggregator {
	return &Aggregator{
		cache:   c,
		fetcher: fetcher,
		gate:    gate,
		logger:  logger,
	}
}

// GetReportData returns the cached data for (role, period) or fetches it.
// The returned value is shared with other callers and must not be modified.
func (a *Aggregator) GetReportData(ctx context.Context, p *access.Principal, period string) (*Data, error) {
	if err := a.gate.RequireCapability(p, access.ViewReports); err != nil {
		return nil, err
	}

	if period == "" {
		period = PeriodAllTime
	}
	if !ValidPeriod(period) {
		return nil, apperror.Validation("Invalid period")
	}

	scopedTo := ""
	if !p.Can(access.ReadAllCases) {
		scopedTo = p.UserID
	}
	key := cache.ReportKey(p.Role.String(), period, scopedTo)

	if cached, found := a.cache.Get(key); found {
		if data, ok := cached.(*Data); ok {
			a.logger.Debug("Report cache hit", "key", key)
			return data, nil
		}
	}

	ids, all, err := a.gate.VisibleCaseIDs(ctx, p)
	if err != nil {
		return nil, err
	}

	data, err := a.fetcher.Fetch(ctx, Scope{All: all, CaseIDs: ids})
	if err != nil {
		return nil, apperror.Upstream("", err)
	}

	a.cache.Set(key, data)
	return data, nil
}

// ClearReportCache drops every entry, or only the entries of one role
func (a *Aggregator) ClearReportCache(role string) {
	if role == "" {
		a.cache.Clear("")
		return
	}
	a.cache.Clear(cache.RolePrefix(role))
}

// Stats exposes the cache counters
func (a *Aggregator) Stats() cache.CacheStats {
	return a.cache.Stats()
}
