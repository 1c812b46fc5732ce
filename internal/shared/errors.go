package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Input validation errors
	ErrInvalidQuery    = fmt.Errorf("invalid query")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")

	// Upstream catalog errors
	ErrUpstreamAuth     = fmt.Errorf("catalog rejected credentials")
	ErrRateLimited      = fmt.Errorf("catalog rate limit exceeded")
	ErrAPIRequest       = fmt.Errorf("API request failed")
	ErrPlaylistNotFound = fmt.Errorf("playlist not found")

	// LLM errors. Request errors are fatal to a discovery run; parse errors
	// are only fatal when lenient recovery yields no usable structure.
	ErrLLMRequest = fmt.Errorf("completion request failed")
	ErrLLMParse   = fmt.Errorf("completion response did not match schema")

	// Cache errors degrade to misses and are never fatal.
	ErrCacheUnavailable = fmt.Errorf("cache store unavailable")
	ErrCacheMiss        = fmt.Errorf("cache miss")
	ErrResultExpired    = fmt.Errorf("result expired")
)
