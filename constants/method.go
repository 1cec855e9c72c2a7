package constants

// Method tags the extraction path that produced a record.
type Method string

// Stable values (returned to callers and stored in the result log).
const (
	MethodRegexHeuristic Method = "regex_heuristic"
	MethodGeminiVision   Method = "gemini_vision"
	MethodHybrid         Method = "hybrid_regex_vision"
	MethodLLMFallback    Method = "llm_fallback"
	MethodNone           Method = "none"
)

// MatchMethod tags how a field-level match was decided.
type MatchMethod string

const (
	MatchExact           MatchMethod = "exact"
	MatchFuzzyComponents MatchMethod = "fuzzy_components"
	MatchFuzzyFull       MatchMethod = "fuzzy_full"
	MatchExactDate       MatchMethod = "exact_date"
	MatchNormalized      MatchMethod = "normalized_comparison"
	MatchMissingData     MatchMethod = "missing_data"
	MatchParsingError    MatchMethod = "parsing_error"
)
