package workflow

import "github.com/bahadkc/deger360/internal/database"

// Document categories
const (
	CategoryKazaTespitTutanagi           = "kaza_tespit_tutanagi"
	CategoryAracFotograflari             = "arac_fotograflari"
	CategoryRuhsat                       = "ruhsat"
	CategoryKimlik                       = "kimlik"
	CategoryKarsiTarafinRuhsati          = "karsi_tarafin_ruhsati"
	CategoryKarsiTarafinEhliyeti         = "karsi_tarafin_ehliyeti"
	CategoryBilirKisiRaporu              = "bilir_kisi_raporu"
	CategoryBilirkisiRaporu              = "bilirkisi_raporu"
	CategorySigortayaGonderilenIhtarname = "sigortaya_gonderilen_ihtarname"
	CategoryHakemKarari                  = "hakem_karari"
	CategorySigortaOdemeDekontu          = "sigorta_odeme_dekontu"
	CategoryAcenteyeAtilanDekont         = "acenteye_atilan_dekont"
)

// Payment receipt tasks, chosen by where the case is in the process
const (
	TaskOdemeDekontuMuzakere = "sigortanin_yaptigi_odeme_dekontu_muzakere"
	TaskOdemeDekontuTahkim   = "sigortanin_yaptigi_odeme_dekontu_tahkim"
)

// DocumentTaskMapping maps a document category to the checklist task it
// completes. sigorta_odeme_dekontu is resolved per case and
// acenteye_atilan_dekont completes nothing.
var DocumentTaskMapping = map[string]string{
	CategoryKazaTespitTutanagi:           "kaza_tespit_tutanagi",
	CategoryAracFotograflari:             "arac_fotograflari",
	CategoryRuhsat:                       "ruhsat_fotokopisi",
	CategoryKimlik:                       "kimlik_fotokopisi",
	CategoryKarsiTarafinRuhsati:          "karsi_tarafin_ruhsati_alindi",
	CategoryKarsiTarafinEhliyeti:         "karsi_tarafin_ehliyeti_alindi",
	CategoryBilirKisiRaporu:              "eksper_raporu_alindi",
	CategoryBilirkisiRaporu:              "bilirkisi_rapor_hazirlandi",
	CategorySigortayaGonderilenIhtarname: "sigortaya_yapilan_basvuru_dokumani_eklendi",
	CategoryHakemKarari:                  "hakem_karari_dokumani_eklendi",
}

// CaseContext is the case state a category resolution may depend on
type CaseContext struct {
	BoardStage        string
	InsuranceResponse string
}

// ContextOf reads the resolution context from a case row
func ContextOf(c *database.Case) CaseContext {
	ctx := CaseContext{BoardStage: c.BoardStage}
	if c.InsuranceResponse != nil {
		ctx.InsuranceResponse = *c.InsuranceResponse
	}
	return ctx
}

// ResolveDocumentTask returns the checklist task completed by a document of
// the given category. The payment receipt maps to the arbitration task when
// the case is in tahkim or the insurer rejected the claim, and to the
// negotiation task otherwise.
func ResolveDocumentTask(category string, c CaseContext) (string, bool) {
	switch category {
	case CategorySigortaOdemeDekontu:
		if c.BoardStage == StageTahkim || c.InsuranceResponse == database.InsuranceRejected {
			return TaskOdemeDekontuTahkim, true
		}
		return TaskOdemeDekontuMuzakere, true
	case CategoryAcenteyeAtilanDekont:
		return "", false
	}
	task, ok := DocumentTaskMapping[category]
	return task, ok
}

// IsKnownCategory reports whether category belongs to the document vocabulary
func IsKnownCategory(category string) bool {
	if category == CategorySigortaOdemeDekontu || category == CategoryAcenteyeAtilanDekont {
		return true
	}
	_, ok := DocumentTaskMapping[category]
	return ok
}

// SkippedTaskKeys lists the checklist tasks hidden from the customer portal
// because their document category was skipped
func SkippedTaskKeys(skippedCategories map[string]bool, insuranceResponse string) map[string]bool {
	keys := make(map[string]bool)
	for category, task := range DocumentTaskMapping {
		if skippedCategories[category] {
			keys[task] = true
		}
	}

	if skippedCategories[CategorySigortaOdemeDekontu] {
		switch insuranceResponse {
		case database.InsuranceAccepted:
			keys[TaskOdemeDekontuMuzakere] = true
		case database.InsuranceRejected:
			keys[TaskOdemeDekontuTahkim] = true
		default:
			keys[TaskOdemeDekontuMuzakere] = true
			keys[TaskOdemeDekontuTahkim] = true
		}
	}
	return keys
}

// ExpectedDocument describes a document the customer is expected to provide
type ExpectedDocument struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Group       string `json:"category"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

var ExpectedDocuments = []ExpectedDocument{
	{Key: CategoryKazaTespitTutanagi, Name: "Kaza Tespit Tutanağı", Group: "official", Description: "Kaza sonrası düzenlenen resmi tutanak", Required: true},
	{Key: CategoryAracFotograflari, Name: "Araç Fotoğrafları", Group: "expected", Description: "Kaza sonrası çekilen araç hasar fotoğrafları", Required: true},
	{Key: CategoryBilirKisiRaporu, Name: "Bilir Kişi Raporu", Group: "prepared", Description: "Bağımsız bilir kişi tarafından hazırlanan değer kaybı raporu", Required: true},
	{Key: CategoryRuhsat, Name: "Ruhsat", Group: "expected", Description: "Araç ruhsatı", Required: true},
	{Key: CategoryKimlik, Name: "Kimlik", Group: "expected", Description: "Araç sahibinin kimliği", Required: true},
	{Key: CategorySigortayaGonderilenIhtarname, Name: "Sigortaya Gönderilen İhtarname", Group: "legal", Description: "Sigorta şirketine gönderilen resmi ihtarname", Required: true},
	{Key: CategoryHakemKarari, Name: "Hakem Kararı", Group: "legal", Description: "Hakem tarafından verilen karar belgesi", Required: true},
	{Key: CategorySigortaOdemeDekontu, Name: "Sigorta Ödeme Dekontu", Group: "payment", Description: "Sigorta şirketinden alınan ödeme dekontu", Required: true},
}

// DocumentName returns the display name of a category
func DocumentName(key string) string {
	for _, doc := range ExpectedDocuments {
		if doc.Key == key {
			return doc.Name
		}
	}
	return key
}
