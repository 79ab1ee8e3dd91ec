package workflow

// Section is an ordered group of checklist tasks that together define one
// board stage
type Section struct {
	ID         int      `json:"id"`
	Title      string   `json:"title"`
	BoardStage string   `json:"board_stage"`
	TaskKeys   []string `json:"task_keys"`
}

// Item is a configured checklist task
type Item struct {
	Key   string `json:"key"`
	Title string `json:"title"`
}

// Board stages
const (
	StageBasvuruAlindi    = "basvuru_alindi"
	StageEvrakEkspertiz   = "evrak_ekspertiz"
	StageSigortaBasvurusu = "sigorta_basvurusu"
	StageMuzakere         = "muzakere"
	StageOdeme            = "odeme"
	StageTamamlandi       = "tamamlandi"

	// StageTahkim is never derived from the checklist. It only appears
	// when a superadmin overrides board_stage through a case update.
	StageTahkim = "tahkim"
)

// DefaultBoardStage is used when no section can be resolved
const DefaultBoardStage = StageBasvuruAlindi

var Sections = []Section{
	{
		ID:         1,
		Title:      "Başvuru Alındı",
		BoardStage: StageBasvuruAlindi,
		TaskKeys:   []string{"ilk_gorusme_yapildi", "musteri_arac_bilgileri"},
	},
	{
		ID:         2,
		Title:      "Evrak Toplama ve Bilir Kişi",
		BoardStage: StageEvrakEkspertiz,
		TaskKeys: []string{
			"kaza_tespit_tutanagi", "arac_fotograflari", "ruhsat_fotokopisi", "kimlik_fotokopisi",
			"arac_incelendi", "deger_kaybi_hesaplandi", "bilir_kisi_raporu_alindi",
		},
	},
	{
		ID:         3,
		Title:      "Sigorta Başvurusu",
		BoardStage: StageSigortaBasvurusu,
		TaskKeys:   []string{"evraklar_talep_edildi", "sigorta_basvurusu_yapildi", "basvuru_inceleme_basladi"},
	},
	{
		ID:         4,
		Title:      "Müzakere",
		BoardStage: StageMuzakere,
		TaskKeys:   []string{"sigorta_kabul_cevabi", "odeme_bekleniyor"},
	},
	{
		ID:         5,
		Title:      "Ödeme",
		BoardStage: StageOdeme,
		TaskKeys:   []string{"musteriye_odeme_yapildi", "musteri_bilgilendirildi"},
	},
	{
		ID:         6,
		Title:      "Tamamlandı",
		BoardStage: StageTamamlandi,
		TaskKeys:   []string{"dava_tamamlandi"},
	},
}

var Items = []Item{
	// Başvuru Alındı
	{Key: "ilk_gorusme_yapildi", Title: "İlk görüşme yapıldı"},
	{Key: "musteri_arac_bilgileri", Title: "Müşteri ve araç bilgileri toplandı"},

	// Evrak Toplama
	{Key: "kaza_tespit_tutanagi", Title: "Kaza tespit tutanağı alındı"},
	{Key: "arac_fotograflari", Title: "Araç fotoğrafları alındı"},
	{Key: "ruhsat_fotokopisi", Title: "Ruhsat fotokopisi alındı"},
	{Key: "kimlik_fotokopisi", Title: "Kimlik fotokopisi alındı"},

	// Bilir Kişi Raporu
	{Key: "arac_incelendi", Title: "Araç İncelendi"},
	{Key: "deger_kaybi_hesaplandi", Title: "Değer Kaybı Hesaplandı"},
	{Key: "bilir_kisi_raporu_alindi", Title: "Bilir Kişi Raporu alındı"},

	// Sigorta Başvurusu
	{Key: "evraklar_talep_edildi", Title: "Evraklar talep edildi"},
	{Key: "sigorta_basvurusu_yapildi", Title: "Karşı tarafın sigortasına başvuru yapıldı"},
	{Key: "basvuru_inceleme_basladi", Title: "Başvuru alındı, inceleme başladı"},

	// Müzakere
	{Key: "sigorta_kabul_cevabi", Title: "Sigortadan kabul cevabı geldi"},
	{Key: "odeme_bekleniyor", Title: "Ödeme bekleniyor"},

	// Ödeme
	{Key: "musteriye_odeme_yapildi", Title: "Müşteriye ödeme yapıldı"},
	{Key: "musteri_bilgilendirildi", Title: "Müşteri bilgilendirildi"},

	// Tamamlandı
	{Key: "dava_tamamlandi", Title: "Dava tamamlandı"},
}

// TaskTitle returns the configured title for a task, or the key itself
func TaskTitle(key string) string {
	for _, item := range Items {
		if item.Key == key {
			return item.Title
		}
	}
	return key
}

// StageTitle returns the section title for a board stage label
func StageTitle(boardStage string) string {
	for _, s := range Sections {
		if s.BoardStage == boardStage {
			return s.Title
		}
	}
	if boardStage == StageTahkim {
		return "Tahkim"
	}
	return boardStage
}
