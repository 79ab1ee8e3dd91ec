package workflow

import "testing"

func TestResolveDocumentTask(t *testing.T) {
	tests := []struct {
		name     string
		category string
		ctx      CaseContext
		want     string
		wantOK   bool
	}{
		{name: "identity mapping", category: "kaza_tespit_tutanagi", want: "kaza_tespit_tutanagi", wantOK: true},
		{name: "renamed task", category: "bilir_kisi_raporu", want: "eksper_raporu_alindi", wantOK: true},
		{name: "license copy", category: "ruhsat", want: "ruhsat_fotokopisi", wantOK: true},
		{name: "receipt in negotiation", category: "sigorta_odeme_dekontu", ctx: CaseContext{BoardStage: StageMuzakere}, want: TaskOdemeDekontuMuzakere, wantOK: true},
		{name: "receipt in arbitration", category: "sigorta_odeme_dekontu", ctx: CaseContext{BoardStage: StageTahkim}, want: TaskOdemeDekontuTahkim, wantOK: true},
		{name: "receipt after rejection", category: "sigorta_odeme_dekontu", ctx: CaseContext{BoardStage: StageOdeme, InsuranceResponse: "rejected"}, want: TaskOdemeDekontuTahkim, wantOK: true},
		{name: "agency receipt is informational", category: "acenteye_atilan_dekont", wantOK: false},
		{name: "unknown category", category: "fatura", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveDocumentTask(tt.category, tt.ctx)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ResolveDocumentTask(%q) = (%q, %v), want (%q, %v)", tt.category, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestIsKnownCategory(t *testing.T) {
	for _, c := range []string{"kimlik", "sigorta_odeme_dekontu", "acenteye_atilan_dekont"} {
		if !IsKnownCategory(c) {
			t.Errorf("%q should be known", c)
		}
	}
	if IsKnownCategory("") || IsKnownCategory("fatura") {
		t.Error("unexpected category accepted")
	}
}

func TestSkippedTaskKeys(t *testing.T) {
	keys := SkippedTaskKeys(map[string]bool{"kimlik": true}, "")
	if !keys["kimlik_fotokopisi"] || len(keys) != 1 {
		t.Errorf("got %v", keys)
	}

	skipped := map[string]bool{"sigorta_odeme_dekontu": true}

	accepted := SkippedTaskKeys(skipped, "accepted")
	if !accepted[TaskOdemeDekontuMuzakere] || accepted[TaskOdemeDekontuTahkim] {
		t.Errorf("accepted: got %v", accepted)
	}

	rejected := SkippedTaskKeys(skipped, "rejected")
	if rejected[TaskOdemeDekontuMuzakere] || !rejected[TaskOdemeDekontuTahkim] {
		t.Errorf("rejected: got %v", rejected)
	}

	pending := SkippedTaskKeys(skipped, "")
	if !pending[TaskOdemeDekontuMuzakere] || !pending[TaskOdemeDekontuTahkim] {
		t.Errorf("pending: got %v", pending)
	}
}
