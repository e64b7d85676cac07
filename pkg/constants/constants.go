// Package constants provides shared constants used throughout the populate codebase.
// This includes timeouts, limits, file permissions, and the fixed values the
// enrichment pipeline depends on.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for HTTP requests to lookup sources
	DefaultHTTPTimeout = 30 * time.Second

	// ModelTimeout is the timeout for one generative model call
	ModelTimeout = 2 * time.Minute

	// DefaultLockTTL bounds how long an entity lock survives a crashed holder
	DefaultLockTTL = 10 * time.Minute
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Model constants
const (
	// DefaultTemperature is the fixed sampling temperature for every model call
	DefaultTemperature = 0.25

	// DefaultModelProvider is the generative model backend used when none is configured
	DefaultModelProvider = "gemini"

	// DefaultGeminiModel is the Gemini model used when none is configured
	DefaultGeminiModel = "gemini-2.0-flash"

	// DefaultMistralModel is the Mistral model used when none is configured
	DefaultMistralModel = "open-mixtral-8x7b"
)

// Source constants
const (
	// WikipediaAPIURL is the MediaWiki action API endpoint
	WikipediaAPIURL = "https://en.wikipedia.org/w/api.php"

	// DuckDuckGoAPIURL is the DuckDuckGo Instant Answer endpoint
	DuckDuckGoAPIURL = "https://api.duckduckgo.com/"

	// WikipediaTopK is the number of pages summarized per encyclopedia lookup
	WikipediaTopK = 3

	// SearchMaxResults is the number of related topics kept per search lookup
	SearchMaxResults = 4

	// SourceMaxChars caps the text contributed by one source
	SourceMaxChars = 4000

	// UserAgent identifies the tool to public APIs
	UserAgent = "populate/1.0 (+https://github.com/emetrics/populate)"
)

// Path constants
const (
	// DefaultDBPath is the default sqlite database path
	DefaultDBPath = "populate.db"

	// DefaultLogFile is the append-only process log
	DefaultLogFile = "populate.log"

	// ConfigName is the config file name searched in $HOME and the working directory
	ConfigName = ".populate"
)
