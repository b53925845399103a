package types

// ValidationConfig controls compiled-schema validation limits and caching
type ValidationConfig struct {
	// Schema size/depth limits
	MaxSchemaSize  int // Max schema size in bytes (default: 1MB)
	MaxSchemaDepth int // Max schema nesting depth (default: 10)

	// $ref resolution
	AllowedSchemes []string // URL schemes $ref may load from (default: none)

	// Caching
	EnableCache  bool // Enable compiled schema caching (default: true)
	MaxCacheSize int  // Max cached schemas (default: 256)

	AssertFormat bool // Enable format assertions (default: true)
}

// DefaultValidationConfig returns secure defaults
func DefaultValidationConfig() *ValidationConfig {
	return &ValidationConfig{
		MaxSchemaSize:  1024 * 1024,
		MaxSchemaDepth: 10,
		AllowedSchemes: nil,
		EnableCache:    true,
		MaxCacheSize:   256,
		AssertFormat:   true,
	}
}
