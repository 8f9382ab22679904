package config

const (
	defaultRoot                = "~/daybook"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLookAheadDays       = 5
	defaultMinDescriptionChars = 120
	defaultMasterFile          = "actions.md"
	defaultStaleAfterDays      = 14
	defaultEnrichmentBaseURL   = "https://openrouter.ai/api/v1/chat/completions"
	defaultEnrichmentModel     = "google/gemini-3-flash-preview"
	defaultEnrichmentTimeout   = 120
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			Root: defaultRoot,
		},
		LookAhead: LookAhead{
			BusinessDays:        defaultLookAheadDays,
			MinDescriptionChars: defaultMinDescriptionChars,
		},
		Actions: Actions{
			MasterFile:     defaultMasterFile,
			StaleAfterDays: defaultStaleAfterDays,
		},
		Enrichment: Enrichment{
			BaseURL:        defaultEnrichmentBaseURL,
			Model:          defaultEnrichmentModel,
			TimeoutSeconds: defaultEnrichmentTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
