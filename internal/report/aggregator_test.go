package report

import (
	"context"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bahadkc/deger360/internal/access"
	"github.com/bahadkc/deger360/internal/apperror"
	"github.com/bahadkc/deger360/internal/cache"
	"github.com/bahadkc/deger360/internal/testutil"
	"github.com/bahadkc/deger360/pkg/logger"
)

type spyFetcher struct {
	calls int32
	inner Fetcher
}

func (s *spyFetcher) Fetch(ctx context.Context, scope Scope) (*Data, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.inner.Fetch(ctx, scope)
}

type fixedClock struct{ now time.Time }

func (f *fixedClock) Now() time.Time { return f.now }

func setupAggregator(t *testing.T) (*Aggregator, *spyFetcher, *access.Gate, *fixedClock, *testutil.Fixture) {
	t.Helper()
	fx := testutil.NewFixture(t)
	gate := access.NewGate(fx.DB)
	spy := &spyFetcher{inner: NewGormFetcher(fx.DB)}
	clock := &fixedClock{now: time.Now()}
	c := cache.NewCache(100, 5*time.Minute).WithClock(clock.Now)
	return NewAggregator(c, spy, gate, logger.NewNop()), spy, gate, clock, fx
}

func resolve(t *testing.T, gate *access.Gate, userID string) *access.Principal {
	t.Helper()
	p, err := gate.Resolve(context.Background(), userID)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestGetReportDataCachesWithinTTL(t *testing.T) {
	agg, spy, gate, clock, fx := setupAggregator(t)
	ctx := context.Background()
	admin := resolve(t, gate, fx.Admin.ID)

	first, err := agg.GetReportData(ctx, admin, "all_time")
	if err != nil {
		t.Fatalf("GetReportData() error = %v", err)
	}

	clock.now = clock.now.Add(4 * time.Minute)
	second, err := agg.GetReportData(ctx, admin, "all_time")
	if err != nil {
		t.Fatalf("GetReportData() error = %v", err)
	}

	if n := atomic.LoadInt32(&spy.calls); n != 1 {
		t.Errorf("fetch called %d times, want 1", n)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("cached result differs from the first result")
	}

	clock.now = clock.now.Add(2 * time.Minute)
	if _, err := agg.GetReportData(ctx, admin, "all_time"); err != nil {
		t.Fatal(err)
	}
	if n := atomic.LoadInt32(&spy.calls); n != 2 {
		t.Errorf("fetch called %d times after expiry, want 2", n)
	}
}

func TestGetReportDataScopesByRole(t *testing.T) {
	agg, _, gate, _, fx := setupAggregator(t)
	ctx := context.Background()

	testutil.CreateCase(t, fx.DB, "Örnek Müşteri", testutil.AsSample())

	super, err := agg.GetReportData(ctx, resolve(t, gate, fx.Superadmin.ID), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(super.Cases) != 2 {
		t.Errorf("superadmin sees %d cases, want 2 non-sample cases", len(super.Cases))
	}
	if len(super.Admins) == 0 || len(super.CaseAdmins) != 1 {
		t.Errorf("superadmin admins=%d caseAdmins=%d", len(super.Admins), len(super.CaseAdmins))
	}

	scoped, err := agg.GetReportData(ctx, resolve(t, gate, fx.Admin.ID), "all_time")
	if err != nil {
		t.Fatal(err)
	}
	if len(scoped.Cases) != 1 || scoped.Cases[0].ID != fx.Case.ID {
		t.Errorf("admin sees %v", scoped.Cases)
	}
	if len(scoped.Admins) != 0 || len(scoped.CaseAdmins) != 0 {
		t.Error("staff reports must not include assignments")
	}

	idle := testutil.CreateUser(t, fx.DB, "idle@example.com", "lawyer", nil)
	empty, err := agg.GetReportData(ctx, resolve(t, gate, idle.ID), "all_time")
	if err != nil {
		t.Fatal(err)
	}
	if empty.Cases == nil || len(empty.Cases) != 0 {
		t.Errorf("unassigned lawyer should get an empty list, got %v", empty.Cases)
	}
}

func TestGetReportDataSeparatesStaffMembers(t *testing.T) {
	agg, spy, gate, _, fx := setupAggregator(t)
	ctx := context.Background()

	other := testutil.CreateUser(t, fx.DB, "admin2@example.com", "admin", nil)

	if _, err := agg.GetReportData(ctx, resolve(t, gate, fx.Admin.ID), "all_time"); err != nil {
		t.Fatal(err)
	}
	data, err := agg.GetReportData(ctx, resolve(t, gate, other.ID), "all_time")
	if err != nil {
		t.Fatal(err)
	}
	if len(data.Cases) != 0 {
		t.Error("second admin received the first admin's cached cases")
	}
	if n := atomic.LoadInt32(&spy.calls); n != 2 {
		t.Errorf("fetch called %d times, want 2", n)
	}
}

func TestClearReportCache(t *testing.T) {
	agg, spy, gate, _, fx := setupAggregator(t)
	ctx := context.Background()
	admin := resolve(t, gate, fx.Admin.ID)
	super := resolve(t, gate, fx.Superadmin.ID)

	agg.GetReportData(ctx, admin, "all_time")
	agg.GetReportData(ctx, super, "all_time")

	agg.ClearReportCache("admin")
	agg.GetReportData(ctx, admin, "all_time")
	agg.GetReportData(ctx, super, "all_time")
	if n := atomic.LoadInt32(&spy.calls); n != 3 {
		t.Errorf("after role clear: fetch called %d times, want 3", n)
	}

	agg.ClearReportCache("")
	agg.GetReportData(ctx, super, "all_time")
	if n := atomic.LoadInt32(&spy.calls); n != 4 {
		t.Errorf("after full clear: fetch called %d times, want 4", n)
	}
}

func TestGetReportDataRejects(t *testing.T) {
	agg, _, gate, _, fx := setupAggregator(t)
	ctx := context.Background()

	if _, err := agg.GetReportData(ctx, resolve(t, gate, fx.Admin.ID), "2_weeks"); !apperror.Is(err, apperror.KindValidation) {
		t.Errorf("bad period: got %v", err)
	}

	owner := testutil.CreateUser(t, fx.DB, "owner@example.com", "customer", &fx.Customer.ID)
	if _, err := agg.GetReportData(ctx, resolve(t, gate, owner.ID), "all_time"); !apperror.Is(err, apperror.KindForbidden) {
		t.Errorf("customer: got %v", err)
	}
}

func TestFetcherLoadsReceipts(t *testing.T) {
	fx := testutil.NewFixture(t)
	testutil.CreateDocument(t, fx.DB, fx.Case.ID, "acenteye_atilan_dekont", "NO_RECEIPT:01/02/2025")
	testutil.CreateDocument(t, fx.DB, fx.Case.ID, "kimlik", "c/kimlik.pdf")
	testutil.CompleteTasks(t, fx.DB, fx.Case.ID, "ilk_gorusme_yapildi")

	data, err := NewGormFetcher(fx.DB).Fetch(context.Background(), Scope{CaseIDs: []string{fx.Case.ID}})
	if err != nil {
		t.Fatal(err)
	}
	if len(data.Documents) != 1 || data.Documents[0].Category != "acenteye_atilan_dekont" {
		t.Errorf("documents = %+v", data.Documents)
	}
	if len(data.Checklist) != 1 || !data.Checklist[0].Completed {
		t.Errorf("checklist = %+v", data.Checklist)
	}
	if data.Cases[0].Customer == nil || data.Cases[0].Customer.ID != fx.Customer.ID {
		t.Error("case customer not loaded")
	}
}
