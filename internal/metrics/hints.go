package metrics

import (
	"strings"
	"unicode"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// labelPhrases are the label spellings each default pattern accepts.
var labelPhrases = map[Key][]string{
	PregnancyRate:             {"taxa de prenhez", "prenhez"},
	ConceptionRate:            {"taxa de concepção", "concepção"},
	CalvingIntervalDays:       {"intervalo entre partos"},
	InseminationsPerPregnancy: {"inseminações por prenhez"},
	TotalInseminations:        {"quantidade de ia", "total de ia"},
	TotalCalvings:             {"total de partos"},
	AbortionRate:              {"taxa de aborto", "aborto"},
}

// Unit cost for every edit, so a single OCR misread counts as 1.
var editOptions = levenshtein.Options{
	InsCost: 1,
	DelCost: 1,
	SubCost: 1,
	Matches: levenshtein.IdenticalRunes,
}

// Hint is a near-miss label found in the text for an indicator that was not
// extracted, usually an OCR misspelling.
type Hint struct {
	Key      Key    `json:"key"`
	Expected string `json:"expected"`
	Found    string `json:"found"`
	Distance int    `json:"distance"`
}

// Hints looks for near-miss labels of the keys missing from extracted.
// At most one hint per key is returned, the closest one.
func Hints(text string, extracted Set) []Hint {
	var words []string
	for _, w := range strings.Fields(Normalize(text)) {
		w = strings.TrimFunc(w, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
		if w != "" {
			words = append(words, w)
		}
	}
	if len(words) == 0 {
		return nil
	}

	var hints []Hint
	for _, k := range Keys {
		if extracted.Has(k) {
			continue
		}
		if h, ok := closestLabel(k, words); ok {
			hints = append(hints, h)
		}
	}
	return hints
}

func closestLabel(k Key, words []string) (Hint, bool) {
	best := Hint{Key: k, Distance: -1}
	for _, phrase := range labelPhrases[k] {
		n := len(strings.Fields(phrase))
		limit := maxDistance(phrase)
		target := []rune(phrase)
		for i := 0; i+n <= len(words); i++ {
			candidate := strings.Join(words[i:i+n], " ")
			d := levenshtein.DistanceForStrings([]rune(candidate), target, editOptions)
			if d == 0 || d > limit {
				continue
			}
			if best.Distance < 0 || d < best.Distance {
				best.Expected = phrase
				best.Found = candidate
				best.Distance = d
			}
		}
	}
	return best, best.Distance > 0
}

// Short labels tolerate a single edit.
func maxDistance(phrase string) int {
	if len([]rune(phrase)) < 10 {
		return 1
	}
	return 2
}
