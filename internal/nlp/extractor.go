package nlp

import (
	"regexp"
	"strconv"
	"strings"

	"fleet-insights/internal/models"
)

// DefaultTopLimit is used when a top-list question names no explicit N.
const DefaultTopLimit = 10

// MaxTopLimit caps explicit top-N requests.
const MaxTopLimit = 50

var (
	yearRe         = regexp.MustCompile(`\b(19[0-9]{2}|20[0-9]{2}|2100)\b`)
	numericMonthRe = regexp.MustCompile(`\b(1[0-2]|[1-9])\s*ay(?:i|da|inda|larda|larinda)?\b`)
	relMonthRe     = regexp.MustCompile(`\bson\s+(\d+)\s*ay(?:da|inda|lik)?(?:\s+icinde)?\b`)
	relYearRe      = regexp.MustCompile(`\bson\s+(\d+)\s*yil(?:da|inda|lik)?(?:\s+icinde)?\b`)

	digitRunRe   = regexp.MustCompile(`\d+`)
	modelFullRe  = regexp.MustCompile(`\b(rhc\s+\d+\s+\d+)\b`)
	modelShortRe = regexp.MustCompile(`\b(rhc\s+\d+)\b`)
	customerRe   = regexp.MustCompile(`musteri\D*(\d+)`)
	serviceRe    = regexp.MustCompile(`\b(r\d{3,4})\b`)
	faultCodeRe  = regexp.MustCompile(`\b([A-Z]{2,}\d+[A-Z\d]*)\b`)
	quotedRe     = regexp.MustCompile(`["']([^"']+)["']`)

	topLimitRes = []*regexp.Regexp{
		regexp.MustCompile(`\btop\s*(\d{1,3})\b`),
		regexp.MustCompile(`\bilk\s*(\d{1,3})\b`),
		regexp.MustCompile(`\ben\s+cok\s*(\d{1,3})\b`),
		regexp.MustCompile(`\ben\s+fazla\s*(\d{1,3})\b`),
		regexp.MustCompile(`\b(\d{1,3})\s*(?:adet|tane)\b`),
		// "en cok kullanilan 5 malzeme" style: a small count right before
		// the counted entity word
		regexp.MustCompile(`\b(\d{1,2})\s+(?:malzeme|parca|arac|musteri|ariza|servis|model|kayit)\b`),
	}

	conditionalWithNounRe = regexp.MustCompile(`(\w+)\s+malzemesi\s+(?:kullanildiginda|kullanilirsa|degistirildiginde)`)
	conditionalBareRe     = regexp.MustCompile(`(\w+)\s+(?:kullanildiginda|kullanilirsa|degistirildiginde)`)
	comparisonSplitRe     = regexp.MustCompile(`(.+?)\s+(?:ile|ve)\s+(.+)`)
)

// vehicleTypeAliases maps normalized mention to canonical type.
var vehicleTypeAliases = map[string]string{
	"otobus":  "bus",
	"bus":     "bus",
	"kamyon":  "truck",
	"truck":   "truck",
	"minibus": "minibus",
}

var manufacturerAliases = map[string]string{
	"man":      "man",
	"mercedes": "mercedes",
	"benz":     "mercedes",
	"iveco":    "iveco",
	"ford":     "ford",
	"temsa":    "temsa",
}

// compoundConcepts are fixed phrases where "ve" joins one concept, not two
// comparison operands.
var compoundConcepts = []string{
	"bakim ve onarim", "bakim onarim",
	"yuk ve yolcu", "yolcu ve yuk",
	"satis ve servis", "servis ve satis",
	"giris ve cikis", "cikis ve giris",
}

// materialExcludeWords keeps question words and generic verbs out of the
// fallback material-keyword window.
var materialExcludeWords = map[string]bool{
	"hangileri": true, "neler": true, "nelerdir": true, "nedir": true,
	"hangisi": true, "hangisidir": true, "ne": true, "nasil": true,
	"kullanildi": true, "kullanilmis": true, "kullanilan": true,
	"degisti": true, "degismis": true, "degisen": true,
	"yapildi": true, "yapilmis": true, "yapilan": true,
	"kullanimi": true, "kullanim": true,
	"degisim": true, "degisimi": true,
	"trend": true, "trendler": true, "trendleri": true, "trendi": true,
	"yillara": true, "yillik": true,
}

// Extractor pulls structured entities out of free-text questions.
// Best effort: it never fails, every field of the result is optional.
type Extractor struct{}

// NewExtractor returns a ready extractor. Stateless and safe for concurrent
// use.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns every entity recognized in the question. Fault codes are
// matched against the original text because normalization destroys their
// uppercase shape; everything else works on the normalized form.
func (x *Extractor) Extract(question string) models.ExtractedEntities {
	qn := Normalize(question)
	var e models.ExtractedEntities

	x.extractTime(qn, &e)
	x.extractVehicles(qn, &e)
	x.extractLocations(qn, &e)
	x.extractMaterials(question, qn, &e)
	x.extractTopSignal(qn, &e)
	x.extractComparison(qn, &e)
	x.extractFaultCodes(question, &e)

	if ContainsAny(qn, nextMaintenanceKeywords) {
		e.ConditionMaterial = extractConditionalMaterial(qn)
	}
	return e
}

func (x *Extractor) extractTime(qn string, e *models.ExtractedEntities) {
	for _, m := range yearRe.FindAllStringSubmatch(qn, -1) {
		y, _ := strconv.Atoi(m[1])
		if !containsInt(e.Years, y) {
			e.Years = append(e.Years, y)
		}
	}
	if m := ExtractMonth(qn); m > 0 {
		e.Months = append(e.Months, m)
	}
	if s := ExtractSeason(qn); s != "" {
		e.Seasons = append(e.Seasons, s)
	}
	if unit, value, ok := ExtractRelativePeriod(qn); ok {
		e.RelativeUnit = unit
		e.RelativeValue = value
	}
}

// ExtractMonth finds a month either by Turkish name or numeric "N. ay"
// phrasing, bounded to [1,12].
func ExtractMonth(qn string) int {
	for key, month := range MonthKeywords {
		if strings.Contains(qn, key) {
			return month
		}
	}
	if m := numericMonthRe.FindStringSubmatch(qn); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil && v >= 1 && v <= 12 {
			return v
		}
	}
	return 0
}

// ExtractSeason checks autumn before spring because the spring keyword is a
// substring of the autumn keyword.
func ExtractSeason(qn string) string {
	switch {
	case strings.Contains(qn, "sonbahar") ||
		(strings.Contains(qn, "son") && strings.Contains(qn, "bahar")):
		return models.SeasonAutumn
	case strings.Contains(qn, "ilkbahar") || strings.Contains(qn, "bahar"):
		return models.SeasonSpring
	case strings.Contains(qn, "kis"):
		return models.SeasonWinter
	case strings.Contains(qn, "yaz"):
		return models.SeasonSummer
	}
	return ""
}

// ExtractRelativePeriod catches "son N ay" / "son N yil" phrasings.
func ExtractRelativePeriod(qn string) (unit string, value int, ok bool) {
	if m := relMonthRe.FindStringSubmatch(qn); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil && v > 0 {
			return "month", v, true
		}
	}
	if m := relYearRe.FindStringSubmatch(qn); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil && v > 0 {
			return "year", v, true
		}
	}
	return "", 0, false
}

// ExtractTopLimit pulls an explicit top-N out of the question, clamped to
// [1, MaxTopLimit], falling back to def when absent.
func ExtractTopLimit(qn string, def int) int {
	for _, re := range topLimitRes {
		if m := re.FindStringSubmatch(qn); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				if n < 1 {
					n = 1
				}
				if n > MaxTopLimit {
					n = MaxTopLimit
				}
				return n
			}
		}
	}
	return def
}

func (x *Extractor) extractVehicles(qn string, e *models.ExtractedEntities) {
	// Vehicle IDs are 5-6 digit runs. Digit-run scanning replaces the
	// lookaround pattern the docs describe: a run longer than 6 digits is
	// not an ID.
	for _, run := range digitRunRe.FindAllString(qn, -1) {
		if len(run) >= 5 && len(run) <= 6 && !containsStr(e.VehicleIDs, run) {
			e.VehicleIDs = append(e.VehicleIDs, run)
		}
	}

	for alias, canonical := range vehicleTypeAliases {
		if strings.Contains(qn, alias) && !containsStr(e.VehicleTypes, canonical) {
			e.VehicleTypes = append(e.VehicleTypes, canonical)
		}
	}

	e.VehicleModels = extractVehicleModels(qn)

	for alias, canonical := range manufacturerAliases {
		if strings.Contains(qn, alias) && !containsStr(e.Manufacturers, canonical) {
			e.Manufacturers = append(e.Manufacturers, canonical)
		}
	}
}

// extractVehicleModels recognizes "rhc 404 400" (full designation plus its
// base and variant parts) and plain "rhc 404".
func extractVehicleModels(qn string) []string {
	var out []string
	add := func(s string) {
		if s != "" && !containsStr(out, s) {
			out = append(out, s)
		}
	}

	for _, m := range modelFullRe.FindAllStringSubmatch(qn, -1) {
		full := strings.Join(strings.Fields(m[1]), " ")
		add(full)
		parts := strings.Fields(full)
		if len(parts) >= 3 {
			add(parts[0] + " " + parts[1])
			add(parts[2])
		}
	}
	if len(out) == 0 {
		for _, m := range modelShortRe.FindAllStringSubmatch(qn, -1) {
			add(strings.Join(strings.Fields(m[1]), " "))
		}
	}
	return out
}

func (x *Extractor) extractLocations(qn string, e *models.ExtractedEntities) {
	for _, m := range customerRe.FindAllStringSubmatch(qn, -1) {
		if !containsStr(e.CustomerIDs, m[1]) {
			e.CustomerIDs = append(e.CustomerIDs, m[1])
		}
	}
	for _, m := range serviceRe.FindAllStringSubmatch(qn, -1) {
		loc := strings.ToUpper(m[1])
		if !containsStr(e.ServiceLocations, loc) {
			e.ServiceLocations = append(e.ServiceLocations, loc)
		}
	}
}

func (x *Extractor) extractMaterials(original, qn string, e *models.ExtractedEntities) {
	// Quoted names come from the original text; normalization strips the
	// quote characters.
	for _, m := range quotedRe.FindAllStringSubmatch(original, -1) {
		kw := Normalize(m[1])
		if len(kw) > 2 {
			e.MaterialKeywords = append(e.MaterialKeywords, kw)
		}
	}
	if len(e.MaterialKeywords) > 0 {
		return
	}

	// Fallback: up to two words right after a material base word, skipping
	// question words and generic verbs.
	for _, signal := range materialBaseWords {
		idx := strings.Index(qn, signal)
		if idx < 0 {
			continue
		}
		window := qn[idx:]
		if len(window) > 50 {
			window = window[:50]
		}
		words := strings.Fields(window)
		if len(words) < 2 {
			continue
		}
		end := 3
		if end > len(words) {
			end = len(words)
		}
		candidate := strings.Join(words[1:end], " ")
		if candidate == "" || isMaterialNoise(candidate) {
			continue
		}
		e.MaterialKeywords = append(e.MaterialKeywords, candidate)
		break
	}
}

func isMaterialNoise(candidate string) bool {
	if materialExcludeWords[candidate] {
		return true
	}
	for _, tok := range strings.Fields(candidate) {
		if materialExcludeWords[tok] {
			return true
		}
	}
	return false
}

func extractConditionalMaterial(qn string) string {
	if m := conditionalWithNounRe.FindStringSubmatch(qn); m != nil {
		switch m[1] {
		case "bir", "bu", "o", "hangi":
		default:
			return m[1]
		}
	}
	if m := conditionalBareRe.FindStringSubmatch(qn); m != nil {
		switch m[1] {
		case "bir", "bu", "o", "hangi", "malzemesi":
		default:
			return m[1]
		}
	}
	return ""
}

func (x *Extractor) extractTopSignal(qn string, e *models.ExtractedEntities) {
	if !ContainsAny(qn, topListKeywords) {
		return
	}
	e.HasTopSignal = true
	e.TopLimit = ExtractTopLimit(qn, DefaultTopLimit)
}

func (x *Extractor) extractComparison(qn string, e *models.ExtractedEntities) {
	for _, cc := range compoundConcepts {
		if strings.Contains(qn, cc) {
			return
		}
	}
	m := comparisonSplitRe.FindStringSubmatch(qn)
	if m == nil {
		return
	}
	left := strings.TrimSpace(m[1])
	right := strings.TrimSpace(m[2])
	if len(strings.Fields(left)) <= 3 && len(strings.Fields(right)) <= 3 &&
		ContainsAny(qn, comparisonKeywords) {
		e.ComparisonEntities = []string{left, right}
	}
}

func (x *Extractor) extractFaultCodes(original string, e *models.ExtractedEntities) {
	for _, m := range faultCodeRe.FindAllStringSubmatch(original, -1) {
		if !containsStr(e.FaultCodes, m[1]) {
			e.FaultCodes = append(e.FaultCodes, m[1])
		}
	}
}

func containsStr(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func containsInt(list []int, v int) bool {
	for _, n := range list {
		if n == v {
			return true
		}
	}
	return false
}
