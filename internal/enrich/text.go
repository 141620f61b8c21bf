package enrich

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	htmlTagPattern    = regexp.MustCompile(`<.*?>`)
	urlPattern        = regexp.MustCompile(`http\S+|www\S+`)
	disallowedPattern = regexp.MustCompile(`[^a-zA-Z0-9\s\p{Zs}\.\,\!\?\-\$\%]`)
	whitespacePattern = regexp.MustCompile(`[\s\p{Zs}]+`)

	moneyPattern   = regexp.MustCompile(`\$\d+(?:\.\d+)?(?:\s?(?:million|billion|trillion|M|B|T))?`)
	percentPattern = regexp.MustCompile(`\d+(?:\.\d+)?%`)
)

// FinancialTerms are matched as case-insensitive substrings
var FinancialTerms = []string{
	"stock", "market", "share", "invest", "trading", "bond", "etf",
	"dividend", "earnings", "revenue", "profit", "loss", "ceo", "company",
	"bank", "economy", "fed", "interest", "rate", "inflation", "gdp",
	"ipo", "merger", "acquisition",
}

// CleanText normalizes free text for analysis. It is pure, total and
// idempotent: CleanText(CleanText(s)) == CleanText(s).
func CleanText(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ToLower(s)
	s = htmlTagPattern.ReplaceAllString(s, "")
	s = urlPattern.ReplaceAllString(s, "")
	s = disallowedPattern.ReplaceAllString(s, "")
	// dropping characters can glue a new url token together
	s = urlPattern.ReplaceAllString(s, "")
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// CleanValue cleans strings and maps every other value to ""
func CleanValue(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return CleanText(s)
}

func MoneyMentions(text string) int {
	return len(moneyPattern.FindAllStringIndex(text, -1))
}

func PercentageMentions(text string) int {
	return len(percentPattern.FindAllStringIndex(text, -1))
}

func HasFinancialTerms(text string) bool {
	lower := strings.ToLower(text)
	for _, term := range FinancialTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// Signals are the values derived from cleaned text
type Signals struct {
	WordCount          int
	CharCount          int
	HasFinancialTerms  bool
	MoneyMentions      int
	PercentageMentions int
}

// Analyze derives every signal from already-cleaned text
func Analyze(cleaned string) Signals {
	return Signals{
		WordCount:          len(strings.Fields(cleaned)),
		CharCount:          utf8.RuneCountInString(cleaned),
		HasFinancialTerms:  HasFinancialTerms(cleaned),
		MoneyMentions:      MoneyMentions(cleaned),
		PercentageMentions: PercentageMentions(cleaned),
	}
}
