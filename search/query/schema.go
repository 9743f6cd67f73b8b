package query

// Analyzer describes the autocomplete analyzer applied to text fields:
// lowercase followed by edge n-grams.
type Analyzer struct {
	Name    string
	MinGram int
	MaxGram int
}

// DefaultAnalyzer returns the 1..20 edge n-gram autocomplete analyzer.
func DefaultAnalyzer() Analyzer {
	return Analyzer{Name: "autocomplete", MinGram: 1, MaxGram: 20}
}

// Schema describes an index. Every text field is analysed with Analyzer
// and also gets an exact match KeywordSuffix sub-field.
type Schema struct {
	TextFields    []string
	KeywordFields []string
	NumericFields []string
	DateFields    []string
	Analyzer      Analyzer
}
