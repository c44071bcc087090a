package analyzer

import "strings"

// Product pairs a banking product abbreviation with its full name. Detection
// is bidirectional: either surface form in the query counts as a match.
type Product struct {
	Abbreviation string
	FullName     string
}

// Lexicon holds the domain vocabulary the analyzer and retrievers share.
type Lexicon struct {
	Products       []Product
	FinancialTerms []string
}

// DefaultLexicon returns the banking product vocabulary used for product
// detection and domain-term boosts.
func DefaultLexicon() *Lexicon {
	return &Lexicon{
		Products: []Product{
			{"td", "term deposit"},
			{"fca", "foreign currency account"},
			{"sa", "savings account"},
			{"ca", "current account"},
			{"fd", "fixed deposit"},
			{"rd", "recurring deposit"},
			{"od", "overdraft"},
			{"loc", "line of credit"},
			{"hl", "home loan"},
			{"pl", "personal loan"},
			{"cc", "credit card"},
			{"dc", "debit card"},
			{"kyc", "know your customer"},
			{"atm", "automated teller machine"},
			{"neft", "national electronic funds transfer"},
			{"rtgs", "real time gross settlement"},
		},
		FinancialTerms: []string{
			"interest", "rate", "deposit", "withdrawal", "balance", "fee",
			"charge", "penalty", "maturity", "tenure", "principal",
			"collateral", "currency", "exchange", "transfer", "account",
			"loan", "credit", "debit", "statement", "overdraft", "limit",
		},
	}
}

// MatchProducts returns the full names of products whose abbreviation or
// full name appears in the lowercased query, in lexicon order.
func (l *Lexicon) MatchProducts(lowerQuery string) []string {
	var matched []string
	for _, p := range l.Products {
		if containsWord(lowerQuery, p.Abbreviation) || strings.Contains(lowerQuery, p.FullName) {
			matched = append(matched, p.FullName)
		}
	}
	return matched
}

// MatchFinancialTerms returns domain terms present in the lowercased text.
func (l *Lexicon) MatchFinancialTerms(lowerText string) []string {
	var matched []string
	for _, t := range l.FinancialTerms {
		if containsWord(lowerText, t) {
			matched = append(matched, t)
		}
	}
	return matched
}

// SurfaceForms returns every product surface form, for pattern-based entity
// extraction.
func (l *Lexicon) SurfaceForms() []string {
	forms := make([]string, 0, len(l.Products)*2)
	for _, p := range l.Products {
		forms = append(forms, p.Abbreviation, p.FullName)
	}
	return forms
}

// ContainsWord reports whether term occurs in text on word boundaries.
// Abbreviation matching needs this: "ca" inside "can" is not a hit.
func ContainsWord(text, term string) bool {
	return containsWord(text, term)
}

// containsWord reports whether term occurs in text on word boundaries.
func containsWord(text, term string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], term)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(term)
		beforeOK := start == 0 || !isWordChar(text[start-1])
		afterOK := end == len(text) || !isWordChar(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}
