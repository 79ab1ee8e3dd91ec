package claims

import (
	"context"
	"testing"

	"github.com/bahadkc/deger360/internal/apperror"
	"github.com/bahadkc/deger360/internal/database"
	"github.com/bahadkc/deger360/internal/testutil"
	"github.com/bahadkc/deger360/internal/workflow"
)

func strPtr(s string) *string { return &s }

func TestCasesBoardScoping(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	all, err := e.svc.CasesBoard(ctx, e.principal(t, e.fx.Superadmin.ID))
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("superadmin sees %d cases, want 2", len(all))
	}

	mine, err := e.svc.CasesBoard(ctx, e.principal(t, e.fx.Admin.ID))
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 1 || mine[0].ID != e.fx.Case.ID {
		t.Fatalf("admin board = %+v", mine)
	}
	if mine[0].Customer.FullName != "Ayşe Yılmaz" {
		t.Errorf("customer = %+v", mine[0].Customer)
	}

	lawyer := testutil.CreateUser(t, e.fx.DB, "lawyer@example.com", "lawyer", nil)
	none, err := e.svc.CasesBoard(ctx, e.principal(t, lawyer.ID))
	if err != nil {
		t.Fatal(err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("unassigned lawyer board = %v, want empty", none)
	}
}

func TestDashboardStats(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	testutil.CreateCase(t, e.fx.DB, "Örnek", testutil.AsSample())
	testutil.CreateCase(t, e.fx.DB, "Biten", testutil.WithBoardStage(workflow.StageTamamlandi))

	stats, err := e.svc.DashboardStats(ctx, e.principal(t, e.fx.Superadmin.ID))
	if err != nil {
		t.Fatal(err)
	}
	want := DashboardStats{TotalCases: 3, ActiveCases: 2, CompletedCases: 1}
	if *stats != want {
		t.Errorf("stats = %+v, want %+v", *stats, want)
	}

	stats, err = e.svc.DashboardStats(ctx, e.principal(t, e.fx.Admin.ID))
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalCases != 1 {
		t.Errorf("admin total = %d, want 1", stats.TotalCases)
	}
}

func TestCustomersSearch(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	super := e.principal(t, e.fx.Superadmin.ID)

	got, err := e.svc.Customers(ctx, super, "mehmet", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].FullName != "Mehmet Kaya" || got[0].Case == nil {
		t.Errorf("search result = %+v", got)
	}

	got, err = e.svc.Customers(ctx, e.principal(t, e.fx.Admin.ID), "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != e.fx.Customer.ID {
		t.Errorf("admin customers = %+v", got)
	}
}

func TestUserCasesHidesSkipped(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	customerID := e.fx.Customer.ID
	user := testutil.CreateUser(t, e.fx.DB, "customer@example.com", "customer", &customerID)

	testutil.CreateDocument(t, e.fx.DB, e.fx.Case.ID, workflow.CategoryRuhsat, "a/ruhsat.pdf")
	testutil.CreateDocument(t, e.fx.DB, e.fx.Case.ID, workflow.CategoryKimlik, "a/kimlik.pdf")
	if err := e.svc.SkipDocument(ctx, e.principal(t, e.fx.Admin.ID), e.fx.Case.ID, workflow.CategoryRuhsat, nil); err != nil {
		t.Fatal(err)
	}
	testutil.CompleteTasks(t, e.fx.DB, e.fx.Case.ID, "kimlik_fotokopisi")

	cases, err := e.svc.UserCases(ctx, e.principal(t, user.ID))
	if err != nil {
		t.Fatal(err)
	}
	if len(cases) != 1 {
		t.Fatalf("cases = %d, want 1", len(cases))
	}
	uc := cases[0]
	if len(uc.Documents) != 1 || uc.Documents[0].Category != workflow.CategoryKimlik {
		t.Errorf("documents = %+v", uc.Documents)
	}
	for _, item := range uc.Checklist {
		if item.TaskKey == "ruhsat_fotokopisi" {
			t.Error("skipped task shown to customer")
		}
	}
	if len(uc.Checklist) != 1 {
		t.Errorf("checklist = %+v", uc.Checklist)
	}
	if len(uc.ExpectedDocuments) != len(workflow.ExpectedDocuments)-1 {
		t.Errorf("expected documents = %d, want %d", len(uc.ExpectedDocuments), len(workflow.ExpectedDocuments)-1)
	}
	for _, doc := range uc.ExpectedDocuments {
		if doc.Key == workflow.CategoryRuhsat {
			t.Error("skipped category listed as expected")
		}
	}
}

func TestGetCase(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	detail, err := e.svc.GetCase(ctx, e.principal(t, e.fx.Admin.ID), e.fx.Case.ID)
	if err != nil {
		t.Fatal(err)
	}
	if detail.Case.Customer == nil || detail.Case.Customer.ID != e.fx.Customer.ID {
		t.Errorf("customer not loaded: %+v", detail.Case)
	}
	if len(detail.AdminIDs) != 1 || detail.AdminIDs[0] != e.fx.Admin.ID {
		t.Errorf("admins = %v", detail.AdminIDs)
	}
	if len(detail.Checklist) != len(workflow.Items) {
		t.Errorf("checklist = %d items", len(detail.Checklist))
	}

	_, err = e.svc.GetCase(ctx, e.principal(t, e.fx.Admin.ID), e.fx.OtherCase.ID)
	wantKind(t, err, apperror.KindForbidden, "")
}

func TestUpdateCaseAutoGeneratesTrackingNumber(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.principal(t, e.fx.Admin.ID)

	updated, err := e.svc.UpdateCase(ctx, admin, e.fx.Case.ID,
		&CaseUpdates{VehiclePlate: strPtr("06 XYZ 42")},
		&CustomerUpdates{Email: strPtr("ayse@example.com"), DosyaTakipNumarasi: strPtr(AutoGenerate)})
	if err != nil {
		t.Fatalf("UpdateCase() error = %v", err)
	}
	if updated.VehiclePlate != "06 XYZ 42" {
		t.Errorf("plate = %q", updated.VehiclePlate)
	}
	if got := updated.Customer.DosyaTakipNumarasi; got == nil || *got != "546180" {
		t.Errorf("tracking number = %v, want 546180", got)
	}
}

func TestUpdateCaseKeepsExistingTrackingNumber(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	super := e.principal(t, e.fx.Superadmin.ID)

	updated, err := e.svc.UpdateCase(ctx, super, e.fx.Case.ID, nil, &CustomerUpdates{FullName: strPtr("Ayşe Demir")})
	if err != nil {
		t.Fatal(err)
	}
	if got := updated.Customer.DosyaTakipNumarasi; got == nil || *got != "546179" {
		t.Errorf("tracking number = %v, want 546179", got)
	}

	updated, err = e.svc.UpdateCase(ctx, super, e.fx.OtherCase.ID, nil, &CustomerUpdates{FullName: strPtr("Mehmet Kaya")})
	if err != nil {
		t.Fatal(err)
	}
	if got := updated.Customer.DosyaTakipNumarasi; got == nil || *got != "546180" {
		t.Errorf("tracking number = %v, want 546180", got)
	}
}

func TestUpdateCaseCarriesEmailToLogin(t *testing.T) {
	e := newEnv(t)
	customerID := e.fx.Customer.ID
	login := testutil.CreateUser(t, e.fx.DB, e.fx.Customer.Email, "customer", &customerID)

	_, err := e.svc.UpdateCase(context.Background(), e.principal(t, e.fx.Superadmin.ID), e.fx.Case.ID, nil,
		&CustomerUpdates{Email: strPtr("yeni@example.com"), DosyaTakipNumarasi: strPtr("546179")})
	if err != nil {
		t.Fatal(err)
	}
	var user database.UserAuth
	e.fx.DB.First(&user, "id = ?", login.ID)
	if user.Email != "yeni@example.com" {
		t.Errorf("login email = %q", user.Email)
	}
}

func TestUpdateCaseBoardStageOverride(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	stage := &CaseUpdates{BoardStage: strPtr(workflow.StageTahkim)}

	_, err := e.svc.UpdateCase(ctx, e.principal(t, e.fx.Admin.ID), e.fx.Case.ID, stage, nil)
	wantKind(t, err, apperror.KindForbidden, "")

	updated, err := e.svc.UpdateCase(ctx, e.principal(t, e.fx.Superadmin.ID), e.fx.Case.ID, stage, nil)
	if err != nil {
		t.Fatal(err)
	}
	if updated.BoardStage != workflow.StageTahkim {
		t.Errorf("stage = %q, want override to stick", updated.BoardStage)
	}
}

func TestAssignAdminsReplacesSet(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	super := e.principal(t, e.fx.Superadmin.ID)
	lawyer := testutil.CreateUser(t, e.fx.DB, "lawyer@example.com", "lawyer", nil)

	if err := e.svc.AssignAdmins(ctx, super, e.fx.Case.ID, []string{lawyer.ID, lawyer.ID}); err != nil {
		t.Fatal(err)
	}
	var ids []string
	e.fx.DB.Model(&database.CaseAdmin{}).Where("case_id = ?", e.fx.Case.ID).Pluck("admin_id", &ids)
	if len(ids) != 1 || ids[0] != lawyer.ID {
		t.Errorf("assigned = %v, want only the lawyer", ids)
	}

	err := e.svc.AssignAdmins(ctx, super, e.fx.Case.ID, []string{e.fx.Superadmin.ID})
	wantKind(t, err, apperror.KindValidation, "")

	err = e.svc.AssignAdmins(ctx, e.principal(t, e.fx.Admin.ID), e.fx.Case.ID, nil)
	wantKind(t, err, apperror.KindForbidden, "Admin access required")
}

func TestActivityLogsRecordMutations(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.principal(t, e.fx.Admin.ID)

	if _, err := e.svc.UpdateChecklist(ctx, admin, e.fx.Case.ID, "ilk_gorusme_yapildi", nil); err != nil {
		t.Fatal(err)
	}
	if err := e.svc.SkipDocument(ctx, admin, e.fx.Case.ID, workflow.CategoryKimlik, nil); err != nil {
		t.Fatal(err)
	}

	logs, err := e.svc.ActivityLogs(ctx, admin, e.fx.Case.ID)
	if err != nil {
		t.Fatal(err)
	}
	actions := map[string]bool{}
	for _, l := range logs {
		actions[l.Action] = true
	}
	if !actions[ActionChecklistUpdated] || !actions[ActionDocumentSkipped] {
		t.Errorf("actions = %v", actions)
	}
}
