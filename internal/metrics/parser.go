package metrics

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultPatterns holds the label patterns of each extracted indicator.
// The value is always the last capture group.
var DefaultPatterns = map[Key]string{
	PregnancyRate:             `(taxa\s*de\s*prenhez|prenhez)\D+(\d{1,3}[,.]?\d*)\s*%`,
	ConceptionRate:            `(taxa\s*de\s*concep(ç|c)ão|concep(ç|c)ão)\D+(\d{1,3}[,.]?\d*)\s*%`,
	CalvingIntervalDays:       `(intervalo\s*entre\s*partos)\D+(\d{2,4})\s*d`,
	InseminationsPerPregnancy: `(insemin(a|á)ções\s*por\s*prenhez)\D+(\d+[,.]?\d*)`,
	TotalInseminations:        `(quantidade\s*de\s*ia|total\s*de\s*ia)\D+(\d+)`,
	TotalCalvings:             `(total\s*de\s*partos)\D+(\d+)`,
	AbortionRate:              `(taxa\s*de\s*aborto|aborto)\D+(\d{1,3}[,.]?\d*)\s*%`,
}

// Parser applies one compiled pattern per indicator to OCR text.
// A Parser is safe for concurrent use.
type Parser struct {
	patterns map[Key]*regexp.Regexp
}

// NewParser compiles the default patterns, replaced by overrides where given.
func NewParser(overrides map[Key]string) (*Parser, error) {
	compiled := make(map[Key]*regexp.Regexp, len(Keys))
	for _, k := range Keys {
		src := DefaultPatterns[k]
		if o, ok := overrides[k]; ok {
			src = o
		}
		re, err := compilePattern(k, src)
		if err != nil {
			return nil, err
		}
		compiled[k] = re
	}
	for k := range overrides {
		if _, ok := compiled[k]; !ok {
			return nil, &PatternError{Key: k, Pattern: overrides[k], Err: ErrUnknownKey}
		}
	}
	return &Parser{patterns: compiled}, nil
}

// DefaultParser returns a parser with the built-in patterns.
func DefaultParser() *Parser {
	p, err := NewParser(nil)
	if err != nil {
		panic(err)
	}
	return p
}

func compilePattern(k Key, src string) (*regexp.Regexp, error) {
	if !strings.HasPrefix(src, "(?i)") {
		src = "(?i)" + src
	}
	re, err := regexp.Compile(src)
	if err != nil {
		return nil, &PatternError{Key: k, Pattern: src, Err: fmt.Errorf("%w: %v", ErrInvalidPattern, err)}
	}
	if re.NumSubexp() == 0 {
		return nil, &PatternError{Key: k, Pattern: src, Err: fmt.Errorf("%w: no capture group", ErrInvalidPattern)}
	}
	return re, nil
}

// Normalize prepares OCR text for matching: NFC composition, lower case and
// every whitespace run collapsed into one space.
func Normalize(text string) string {
	text = norm.NFC.String(text)
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// Parse extracts every indicator whose pattern matches the text.
// Indicators whose captured value does not parse as a number are skipped.
func (p *Parser) Parse(text string) Set {
	normalized := Normalize(text)

	entries := make([]Entry, 0, len(Keys))
	for _, k := range Keys {
		m := p.patterns[k].FindStringSubmatch(normalized)
		if m == nil {
			continue
		}
		v, ok := parseNumber(m[len(m)-1])
		if !ok {
			continue
		}
		entries = append(entries, Entry{Key: k, Value: v})
	}
	return NewSet(entries...)
}

// Parse extracts indicators with the default patterns.
func Parse(text string) Set {
	return defaultParser.Parse(text)
}

var defaultParser = DefaultParser()

func parseNumber(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(raw), ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
