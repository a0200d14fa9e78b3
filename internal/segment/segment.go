// Package segment classifies vehicles into market segments. The classifier is
// a pure function shared by the scoring engine and the gap analyzer; both rely
// on its rule ordering being stable.
package segment

import (
	"strings"
)

// Vehicle class labels.
const (
	ClassHatchback  = "hatchback"
	ClassSedan      = "sedan"
	ClassWagon      = "wagon"
	ClassSUV        = "suv"
	ClassCrossover  = "crossover"
	ClassMPV        = "mpv"
	ClassPickup     = "pickup"
	ClassCommercial = "commercial"
	ClassSports     = "sports"
	ClassOther      = "other"
)

type pattern struct {
	substr string
	class  string
}

// Per-brand model-name conventions. These are evaluated before the generic
// table because naming differs sharply by brand ("Corolla Cross" is an SUV,
// plain "Corolla" a sedan, and only the brand table knows that).
var brandPatterns = map[string][]pattern{
	"toyota": {
		{"corolla cross", ClassSUV},
		{"yaris cross", ClassSUV},
		{"corolla", ClassSedan},
		{"yaris", ClassHatchback},
		{"c-hr", ClassCrossover},
		{"rav4", ClassSUV},
		{"hilux", ClassPickup},
		{"proace", ClassCommercial},
	},
	"renault": {
		{"clio", ClassHatchback},
		{"megane sedan", ClassSedan},
		{"megane e-tech", ClassCrossover},
		{"megane", ClassHatchback},
		{"taliant", ClassSedan},
		{"captur", ClassCrossover},
		{"austral", ClassSUV},
		{"kangoo", ClassCommercial},
		{"express", ClassCommercial},
	},
	"fiat": {
		{"egea cross", ClassCrossover},
		{"egea hatchback", ClassHatchback},
		{"egea", ClassSedan},
		{"panda", ClassHatchback},
		{"doblo", ClassCommercial},
		{"fiorino", ClassCommercial},
		{"ducato", ClassCommercial},
	},
	"hyundai": {
		{"i10", ClassHatchback},
		{"i20", ClassHatchback},
		{"i30", ClassHatchback},
		{"elantra", ClassSedan},
		{"bayon", ClassCrossover},
		{"kona", ClassCrossover},
		{"tucson", ClassSUV},
		{"santa fe", ClassSUV},
		{"ioniq", ClassCrossover},
	},
	"volkswagen": {
		{"polo", ClassHatchback},
		{"golf", ClassHatchback},
		{"jetta", ClassSedan},
		{"passat variant", ClassWagon},
		{"passat", ClassSedan},
		{"t-cross", ClassCrossover},
		{"taigo", ClassCrossover},
		{"t-roc", ClassCrossover},
		{"tiguan", ClassSUV},
		{"touareg", ClassSUV},
		{"caddy", ClassCommercial},
		{"transporter", ClassCommercial},
		{"amarok", ClassPickup},
	},
	"ford": {
		{"focus", ClassSedan},
		{"fiesta", ClassHatchback},
		{"puma", ClassCrossover},
		{"kuga", ClassSUV},
		{"ranger", ClassPickup},
		{"transit custom", ClassCommercial},
		{"transit courier", ClassCommercial},
		{"transit", ClassCommercial},
		{"tourneo", ClassMPV},
		{"mustang", ClassSports},
	},
	"peugeot": {
		{"208", ClassHatchback},
		{"308", ClassHatchback},
		{"408", ClassCrossover},
		{"2008", ClassCrossover},
		{"3008", ClassSUV},
		{"5008", ClassSUV},
		{"rifter", ClassMPV},
		{"partner", ClassCommercial},
		{"expert", ClassCommercial},
	},
	"dacia": {
		{"sandero stepway", ClassCrossover},
		{"sandero", ClassHatchback},
		{"jogger", ClassMPV},
		{"duster", ClassSUV},
		{"spring", ClassHatchback},
	},
	"opel": {
		{"corsa", ClassHatchback},
		{"astra", ClassHatchback},
		{"mokka", ClassCrossover},
		{"crossland", ClassCrossover},
		{"grandland", ClassSUV},
		{"combo", ClassCommercial},
	},
	"kia": {
		{"picanto", ClassHatchback},
		{"rio", ClassHatchback},
		{"ceed", ClassHatchback},
		{"stonic", ClassCrossover},
		{"niro", ClassCrossover},
		{"sportage", ClassSUV},
		{"sorento", ClassSUV},
		{"ev9", ClassSUV},
	},
	"togg": {
		{"t10x", ClassSUV},
		{"t10f", ClassSedan},
	},
}

// Generic cross-brand fallback patterns, ordered. Hybrid-marker names are
// checked before pure-electric markers for the same reason the normalizer
// checks hybrid substrings first.
var genericPatterns = []pattern{
	{"hybrid cross", ClassCrossover},
	{"cross", ClassCrossover},
	{"suv", ClassSUV},
	{"4x4", ClassSUV},
	{"stepway", ClassCrossover},
	{"pick-up", ClassPickup},
	{"pickup", ClassPickup},
	{"panelvan", ClassCommercial},
	{"panel van", ClassCommercial},
	{"kombi", ClassCommercial},
	{"van", ClassCommercial},
	{"kamyonet", ClassCommercial},
	{"mpv", ClassMPV},
	{"tourer", ClassWagon},
	{"station", ClassWagon},
	{"sw", ClassWagon},
	{"sedan", ClassSedan},
	{"hatchback", ClassHatchback},
	{" hb", ClassHatchback},
	{"coupe", ClassSports},
	{"cabrio", ClassSports},
	{"roadster", ClassSports},
	{"gt", ClassSports},
}

// Classify maps (brand, model name) to a vehicle class label. Deterministic
// and stateless: brand-specific rules first, generic keywords second, Other
// as the final bucket.
func Classify(brand, model string) string {
	b := strings.ToLower(strings.TrimSpace(brand))
	m := strings.ToLower(strings.TrimSpace(model))
	if rules, ok := brandPatterns[b]; ok {
		for _, p := range rules {
			if strings.Contains(m, p.substr) {
				return p.class
			}
		}
	}
	for _, p := range genericPatterns {
		if strings.Contains(m, p.substr) {
			return p.class
		}
	}
	return ClassOther
}

// Price band breakpoints, half-open on the right: a price belongs to the
// first band whose upper bound exceeds it.
var bandBounds = []int64{500_000, 1_000_000, 1_500_000, 2_000_000, 3_000_000, 5_000_000}

var bandLabels = []string{
	"0-500K", "500K-1M", "1M-1.5M", "1.5M-2M", "2M-3M", "3M-5M", "5M+",
}

// PriceBand returns the fixed band label for a price.
func PriceBand(price int64) string {
	for i, bound := range bandBounds {
		if price < bound {
			return bandLabels[i]
		}
	}
	return bandLabels[len(bandBounds)]
}

// BandLabels returns all band labels in ascending price order.
func BandLabels() []string {
	out := make([]string, len(bandLabels))
	copy(out, bandLabels)
	return out
}

// Key is the transient composite segment key used by the statistics engines:
// vehicle class × normalized fuel × price band. Never persisted.
func Key(class, fuel string, price int64) string {
	return class + "|" + fuel + "|" + PriceBand(price)
}
