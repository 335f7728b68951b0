package nlp

import "fleet-insights/internal/models"

// Keyword tables for the Turkish question classifier. All entries are stored
// in normalized form (see Normalize): lowercase, diacritics folded to ASCII.

// MonthKeywords maps normalized Turkish month names to month numbers.
var MonthKeywords = map[string]int{
	"ocak": 1, "subat": 2, "mart": 3, "nisan": 4,
	"mayis": 5, "haziran": 6, "temmuz": 7, "agustos": 8,
	"eylul": 9, "ekim": 10, "kasim": 11, "aralik": 12,
}

var (
	materialBaseWords = []string{
		"malzeme", "parca", "malzemeler", "parcalar", "yedek parca",
	}

	// materialNoiseWords are phrases that ride along with material words but
	// never name an actual material ("trend", "nasil degisti" etc.).
	materialNoiseWords = []string{
		"trend", "trendler", "trendleri",
		"degisim", "degisti", "degisimi",
		"nasil", "nasil degisti", "kullanimi nasil",
		"kullanim", "kullanimi", "kullanimi nasil degisti",
	}

	materialUsageSignals = []string{
		"malzeme kullanim", "kullanilan malzemeler", "malzeme tuketimi",
		"parca kullanim", "malzeme kullanimi", "kullanim dagilimi",
		"malzeme dagilimi", "hangi malzemeler", "hangi malzeme",
		"hangi parcalar", "degisen", "degistirilen", "kullanilan",
	}

	maintenanceKeywords = []string{
		"bakim", "bakim islemi", "bakim sayisi", "periyodik bakim",
	}

	repairKeywords = []string{"onarim", "tamir", "tamiri"}

	historyKeywords = []string{
		"gecmis", "gecmisi", "gecmisleri", "servis gecmisi",
		"bakim gecmisi", "bakim gecmisini", "bakim kaydi",
		"bakim kayitlari", "kayit", "kayitlar", "kayitlari",
	}

	costKeywords = []string{
		"maliyet", "harcama", "tutar", "ucret", "fiyat", "para", "butce",
	}

	costSignals = []string{
		"toplam maliyet", "toplam tutar", "toplam harcama",
		"bakim maliyeti", "bakim ucreti", "ne kadar", "kac lira", "kac tl",
	}

	faultKeywords = []string{
		"ariza", "fault", "hata", "sorun", "problem", "ariza kodu",
		"hangi arizalar", "en sik ariza", "ariza dagilim",
		"tekrar eden", "tekrarlayan",
	}

	vehicleKeywords = []string{
		"arac", "araclar", "kamyon", "otobus", "bus", "vehicle", "plaka",
	}

	vehicleTypeKeywords = []string{
		"arac tipi", "arac tipleri", "hangi arac tipi",
		"tip bazinda", "tipe gore",
	}

	vehicleModelKeywords = []string{
		"arac modeli", "arac modelleri", "arac modellerinin",
		"hangi model", "model bazinda", "modele gore",
		"modellere gore", "modellerinin", "modeli",
	}

	customerKeywords = []string{
		"musteri", "musteriler", "musterinin", "customer", "firma", "sirket",
	}

	serviceKeywords = []string{
		"servis", "lokasyon", "location", "sube", "servis noktasi",
	}

	seasonKeywords = []string{
		"mevsim", "sezon", "kis", "yaz", "bahar", "ilkbahar", "sonbahar",
		"mevsimsel", "seasonal",
	}

	nextMaintenanceKeywords = []string{
		"bir sonraki bakimda", "sonraki bakimda", "bir sonraki serviste",
		"sonraki serviste", "siradaki", "sonrasinda", "ardindan",
		"ne degisiyor", "ne geliyor",
	}

	topListKeywords = []string{
		"en cok", "en fazla", "en sik", "en yuksek", "en dusuk", "en az",
		"ilk", "top", "sirala", "siralama", "listele",
	}

	topSignals = []string{"en cok", "en fazla", "en sik", "top "}

	topEntitySignals = append(append([]string{}, topSignals...),
		"ilk", "en yuksek", "en dusuk", "en az")

	timeSeriesKeywords = []string{
		"yillara", "aylara", "haftalara", "gunlere",
		"yillara gore", "aylara gore", "zamana gore", "zaman icinde",
		"nasil degisti", "nasil degisiyor", "degisim", "trend",
		"gunlere gore", "gun bazinda", "gunluk dagilim",
		"haftanin gunleri", "haftanin gunlerine gore",
		"gunlerine gore", "gunlerine", "gunlerinde",
	}

	seasonalShapeKeywords = []string{
		"mevsim", "sezon", "kis", "yaz", "bahar", "sonbahar",
		"mevsime gore", "mevsimlere gore", "mevsimsel", "hangi mevsim",
	}

	distributionKeywords = []string{
		"dagilim", "dagilimi", "dagiliyor", "oran", "orani",
		"yuzde", "yuzdesi", "distribution", "nasil dagiliyor",
		"sayilari", "sayisi", "sayi", "adetleri", "adeti", "adet",
	}

	pivotKeywords = []string{
		"gore dagilimi", "bazinda dagilimi", "capraz", "pivot",
		"matris", "tablo", "ve gore", "x ve y",
	}

	topPerGroupKeywords = []string{
		"her bir", "her biri icin", "bazinda en", "gore en",
		"her mevsim icin", "mevsimlere gore en", "mevsime gore en",
		"mevsimde en", "mevsimlerde en",
		"her model icin", "modellere gore en", "modellerine gore en",
		"modellerde en",
		"her tip icin", "tiplere gore en", "tiplerine gore en",
		"her arac icin",
	}

	detailListKeywords = []string{
		"listele", "goster", "kayitlar", "kayitlari", "detay", "detayli",
		"tum", "hepsi", "tamamini",
	}

	comparisonKeywords = []string{
		"karsilastir", "compare", "fark", "farki", "arasinda", "mi daha",
		// spaces keep "vs" from matching inside words like "mevsim"
		"ile karsilastir", " vs ", "versus",
	}

	trendKeywords = []string{
		"trend", "artis", "dusus", "azalis", "yukselis", "gerileme",
		"artan", "azalan", "degisim", "fiyat artisi", "maliyet artisi",
	}

	sequenceKeywords = []string{
		"sonra", "ardindan", "onu takiben", "sonrasinda", "akabinde",
		"ne geliyor", "ne degisiyor",
	}

	summaryKeywords = []string{
		"toplam", "ortalama", "kac tane", "ne kadar", "ozet", "genel", "butun",
	}

	distributionShapeKeywords = distributionKeywords
)

// intentOrder fixes the detector's iteration order; ranging over the trigger
// maps would make tie-breaks nondeterministic. First listed wins a tie.
var intentOrder = []models.QuestionType{
	models.QuestionMaterialUsage,
	models.QuestionCostAnalysis,
	models.QuestionFaultAnalysis,
	models.QuestionMaintenanceHistory,
	models.QuestionVehicleAnalysis,
	models.QuestionCustomerAnalysis,
	models.QuestionServiceAnalysis,
	models.QuestionNextMaintenance,
	models.QuestionPatternAnalysis,
	models.QuestionComparison,
}

// intentTriggers scores the topic of a question (the WHAT layer).
var intentTriggers = map[models.QuestionType][]string{
	models.QuestionMaterialUsage:      concat(materialBaseWords, materialUsageSignals),
	models.QuestionCostAnalysis:       concat(costKeywords, costSignals),
	models.QuestionFaultAnalysis:      faultKeywords,
	models.QuestionMaintenanceHistory: concat(historyKeywords, maintenanceKeywords),
	models.QuestionVehicleAnalysis:    concat(vehicleKeywords, vehicleTypeKeywords, vehicleModelKeywords),
	models.QuestionCustomerAnalysis:   customerKeywords,
	models.QuestionServiceAnalysis:    serviceKeywords,
	models.QuestionNextMaintenance:    nextMaintenanceKeywords,
	models.QuestionPatternAnalysis:    concat(nextMaintenanceKeywords, sequenceKeywords),
	models.QuestionComparison:         comparisonKeywords,
}

var shapeOrder = []models.OutputShape{
	models.ShapeTopList,
	models.ShapeDetailList,
	models.ShapeTimeSeries,
	models.ShapeSeasonal,
	models.ShapeDistribution,
	models.ShapePivot,
	models.ShapeTopPerGroup,
	models.ShapeComparison,
	models.ShapeSequence,
	models.ShapeTrend,
	models.ShapeSummary,
}

// shapeTriggers scores the presentation of the answer (the HOW layer).
var shapeTriggers = map[models.OutputShape][]string{
	models.ShapeTopList:      topListKeywords,
	models.ShapeDetailList:   detailListKeywords,
	models.ShapeTimeSeries:   timeSeriesKeywords,
	models.ShapeSeasonal:     seasonalShapeKeywords,
	models.ShapeDistribution: distributionShapeKeywords,
	models.ShapePivot:        pivotKeywords,
	models.ShapeTopPerGroup:  topPerGroupKeywords,
	models.ShapeComparison:   comparisonKeywords,
	models.ShapeSequence:     sequenceKeywords,
	models.ShapeTrend:        trendKeywords,
	models.ShapeSummary:      summaryKeywords,
}

var dimensionOrder = []string{
	"materialName", "faultCode", "vehicle", "vehicleType", "vehicleModel",
	"customer", "serviceLocation", "verbType", "year", "month", "season",
	"dayOfWeek",
}

// dimensionTriggers detects which dimension the question groups by.
var dimensionTriggers = map[string][]string{
	"materialName":    concat(materialBaseWords, []string{"malzeme", "parca", "hangi malzeme"}),
	"faultCode":       {"ariza", "ariza kodu", "hata kodu", "fault"},
	"vehicle":         {"plaka", "arac", "aracin", "bu arac"},
	"vehicleType":     vehicleTypeKeywords,
	"vehicleModel":    vehicleModelKeywords,
	"customer":        customerKeywords,
	"serviceLocation": serviceKeywords,
	"verbType":        {"bakim", "onarim", "kontrol", "islem", "islem tipi"},
	"year":            {"yil", "yilda", "yilinda", "yili"},
	"month":           {"ay", "ayda", "ayinda", "ayi"},
	"season":          seasonKeywords,
	"dayOfWeek": {
		"gunlere gore", "gunlere", "gun bazinda", "gunluk",
		"gunlerine gore", "gunlerine", "gunlerinde",
		"haftanin gunu", "haftanin gunleri",
		"hafta ici", "hafta sonu",
		"pazartesi", "sali", "carsamba", "persembe", "cuma", "cumartesi", "pazar",
	},
}

func concat(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}
