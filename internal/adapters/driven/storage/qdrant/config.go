package qdrant

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Default connection values.
const (
	DefaultURL     = "http://localhost:6333"
	DefaultTimeout = 10 * time.Second
)

// Config describes the target collection.
type Config struct {
	URL        string
	Collection string

	// VectorSize is the embedding dimension the collection is created with.
	VectorSize int

	// Timeout bounds each HTTP request. Zero selects DefaultTimeout.
	Timeout time.Duration
}

type ConfigErrorCode string

const (
	ConfigErrorMissingURL        ConfigErrorCode = "missing_url"
	ConfigErrorInvalidURL        ConfigErrorCode = "invalid_url"
	ConfigErrorMissingCollection ConfigErrorCode = "missing_collection"
	ConfigErrorInvalidVectorSize ConfigErrorCode = "invalid_vector_size"
)

type ConfigError struct {
	Code  ConfigErrorCode
	Value string
	Cause error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "invalid qdrant config"
	}
	switch e.Code {
	case ConfigErrorMissingURL:
		return "QDRANT_URL is required"
	case ConfigErrorInvalidURL:
		return fmt.Sprintf(
			"invalid QDRANT_URL=%q; expected absolute URL like http://localhost:6333",
			e.Value,
		)
	case ConfigErrorMissingCollection:
		return "QDRANT_COLLECTION is required"
	case ConfigErrorInvalidVectorSize:
		return fmt.Sprintf(
			"invalid VECTOR_SIZE=%q; expected positive integer",
			e.Value,
		)
	default:
		return "invalid qdrant config"
	}
}

func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// ValidateConfig checks that the URL is absolute, the collection is named and
// the vector size is positive.
func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.URL) == "" {
		return &ConfigError{Code: ConfigErrorMissingURL}
	}
	parsed, err := url.Parse(cfg.URL)
	if err != nil || strings.TrimSpace(parsed.Scheme) == "" || strings.TrimSpace(parsed.Host) == "" {
		return &ConfigError{
			Code:  ConfigErrorInvalidURL,
			Value: cfg.URL,
			Cause: err,
		}
	}
	if strings.TrimSpace(cfg.Collection) == "" {
		return &ConfigError{Code: ConfigErrorMissingCollection}
	}
	if cfg.VectorSize <= 0 {
		return &ConfigError{
			Code:  ConfigErrorInvalidVectorSize,
			Value: strconv.Itoa(cfg.VectorSize),
		}
	}
	return nil
}
