package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rohankatakam/reqtrack/internal/errors"
)

// ValidationContext specifies which configuration a command needs.
type ValidationContext string

const (
	// ValidationContextRun - running a single request requires storage.
	ValidationContextRun ValidationContext = "run"
	// ValidationContextWatch - watch mode requires storage and the
	// filesystem event responder's settings.
	ValidationContextWatch ValidationContext = "watch"
	// ValidationContextInspect - inspect needs only storage, read-only.
	ValidationContextInspect ValidationContext = "inspect"
	// ValidationContextAll validates every section.
	ValidationContextAll ValidationContext = "all"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// AddError adds an error to the validation result.
func (vr *ValidationResult) AddError(format string, args ...interface{}) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, fmt.Sprintf(format, args...))
}

// AddWarning adds a warning to the validation result.
func (vr *ValidationResult) AddWarning(format string, args ...interface{}) {
	vr.Warnings = append(vr.Warnings, fmt.Sprintf(format, args...))
}

// HasErrors returns true if there are any errors.
func (vr *ValidationResult) HasErrors() bool {
	return !vr.Valid || len(vr.Errors) > 0
}

// Error returns a formatted error message.
func (vr *ValidationResult) Error() string {
	if !vr.HasErrors() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")
	for _, err := range vr.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err))
	}

	if len(vr.Warnings) > 0 {
		sb.WriteString("\nwarnings:\n")
		for _, warn := range vr.Warnings {
			sb.WriteString(fmt.Sprintf("  - %s\n", warn))
		}
	}

	return sb.String()
}

// Validate validates configuration for the given context with auto-detected mode.
func (c *Config) Validate(ctx ValidationContext) *ValidationResult {
	return c.ValidateWithMode(ctx, DetectMode())
}

// ValidateWithMode validates configuration for the given context and deployment mode.
func (c *Config) ValidateWithMode(ctx ValidationContext, mode DeploymentMode) *ValidationResult {
	result := &ValidationResult{Valid: true}

	switch ctx {
	case ValidationContextRun:
		c.validateStorage(result, mode)
		c.validateCache(result)
	case ValidationContextWatch:
		c.validateStorage(result, mode)
		c.validateWatch(result)
	case ValidationContextInspect:
		c.validateStorage(result, mode)
	case ValidationContextAll:
		c.validateStorage(result, mode)
		c.validateCache(result)
		c.validateWatch(result)
		c.validateGraphMirror(result, mode)
	}

	return result
}

// ValidateOrFatal validates configuration and panics with a *errors.Error if invalid.
func (c *Config) ValidateOrFatal(ctx ValidationContext) {
	c.ValidateOrFatalWithMode(ctx, DetectMode())
}

// ValidateOrFatalWithMode validates with an explicit mode and panics if invalid.
func (c *Config) ValidateOrFatalWithMode(ctx ValidationContext, mode DeploymentMode) {
	result := c.ValidateWithMode(ctx, mode)
	if result.HasErrors() {
		fmt.Println(result.Error())
		fmt.Printf("\ndeployment mode: %s (%s)\n", mode, mode.Description())
		panic(errors.ConfigError(result.Error()))
	}

	if len(result.Warnings) > 0 {
		fmt.Println("configuration warnings:")
		for _, warn := range result.Warnings {
			fmt.Printf("  - %s\n", warn)
		}
	}
}

func (c *Config) validateStorage(result *ValidationResult, mode DeploymentMode) {
	switch c.Storage.Type {
	case "", "file":
		if c.Storage.FilePath == "" {
			result.AddWarning("storage.file_path is not set, will use default")
		}
	case "bolt":
		if c.Storage.BoltPath == "" {
			result.AddError("storage.bolt_path is required when storage.type is bolt")
		}
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			result.AddError("storage.sqlite_path is required when storage.type is sqlite")
		}
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			result.AddError("POSTGRES_DSN is required when storage.type is postgres")
			break
		}
		if !strings.HasPrefix(c.Storage.PostgresDSN, "postgres://") && !strings.HasPrefix(c.Storage.PostgresDSN, "postgresql://") {
			result.AddError("POSTGRES_DSN must start with postgres:// or postgresql://")
		}
		if strings.Contains(c.Storage.PostgresDSN, "sslmode=disable") {
			if mode.RequiresSecureCredentials() {
				result.AddError("PostgreSQL DSN has sslmode=disable, not allowed in %s mode", mode)
			} else {
				result.AddWarning("PostgreSQL DSN has sslmode=disable")
			}
		}
		for _, insecure := range []string{"password", "postgres", "changeme"} {
			if strings.Contains(c.Storage.PostgresDSN, ":"+insecure+"@") {
				if mode.RequiresSecureCredentials() {
					result.AddError("PostgreSQL DSN uses a common default password (%s), not allowed in %s mode. Set a secure password via %s.", insecure, mode, mode.ConfigSource())
				} else if mode.AllowsDevelopmentDefaults() {
					result.AddWarning("PostgreSQL DSN uses a common default password (%s); fine for local development, change it before deploying.", insecure)
				}
			}
		}
	case "redis":
		if c.Storage.RedisAddr == "" {
			result.AddError("REDIS_ADDR is required when storage.type is redis")
		}
	default:
		result.AddError("storage.type %q is not one of file, bolt, sqlite, postgres, redis", c.Storage.Type)
	}
}

func (c *Config) validateCache(result *ValidationResult) {
	if c.Cache.Directory == "" {
		result.AddWarning("cache.directory is not set, will use default")
	}
	if c.Cache.MaxSize <= 0 {
		result.AddWarning("cache.max_size is invalid or not set, will use default (2GB)")
	}
}

func (c *Config) validateWatch(result *ValidationResult) {
	if c.Watch.DebounceInterval <= 0 {
		result.AddWarning("watch.debounce_interval is invalid, will use default (50ms)")
	}
	if c.Watch.RateLimitPerSec <= 0 {
		result.AddWarning("watch.rate_limit_per_sec is invalid, will use default")
	}
}

func (c *Config) validateGraphMirror(result *ValidationResult, mode DeploymentMode) {
	if !c.GraphMirror.Enabled {
		return
	}
	if c.GraphMirror.URI == "" {
		result.AddError("graph_mirror.uri is required when graph_mirror.enabled is true")
	} else if _, err := url.Parse(c.GraphMirror.URI); err != nil {
		result.AddError("graph_mirror.uri is invalid: %v", err)
	}
	if c.GraphMirror.Password == "" {
		if mode.RequiresSecureCredentials() {
			result.AddError("NEO4J_PASSWORD is required in %s mode when the graph mirror is enabled", mode)
		} else {
			result.AddWarning("NEO4J_PASSWORD is not set")
		}
		return
	}

	for _, insecure := range []string{"neo4j", "password", "changeme"} {
		if c.GraphMirror.Password == insecure {
			if mode.RequiresSecureCredentials() {
				result.AddError("NEO4J_PASSWORD is set to an insecure default (%s), not allowed in %s mode. Set a secure password via %s.", insecure, mode, mode.ConfigSource())
			} else if mode.AllowsDevelopmentDefaults() {
				result.AddWarning("NEO4J_PASSWORD is set to a common password (%s); fine for local development.", insecure)
			}
		}
	}
}

// RequireStorage returns an error if the configured storage backend is invalid.
func (c *Config) RequireStorage() error {
	result := &ValidationResult{Valid: true}
	c.validateStorage(result, DetectMode())
	if result.HasErrors() {
		return errors.ConfigError(result.Error())
	}
	return nil
}
