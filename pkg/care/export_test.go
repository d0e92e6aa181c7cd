package care

var (
	ExtractCandidatesForTest = extractCandidates
	FindObjectEndForTest     = findObjectEnd
)
