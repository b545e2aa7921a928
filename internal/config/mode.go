package config

import (
	"os"
	"strings"
)

// DeploymentMode represents the context reqtrack is running in, which
// governs how strict config validation is and whether dev-friendly
// defaults (local storage, unauthenticated local databases) are
// acceptable.
type DeploymentMode string

const (
	// ModeDevelopment is a source checkout run directly with `go run`
	// or a local build.
	// - .env files are read for storage/graph-mirror credentials
	// - Local file/bolt/sqlite storage or a local Postgres/Redis/Neo4j
	//   container with default passwords is acceptable
	ModeDevelopment DeploymentMode = "development"

	// ModePackaged is a single binary release (GoReleaser or similar).
	// - No .env file is assumed; credentials come from the environment
	//   or an explicit config file
	// - Insecure default passwords on postgres/redis/neo4j backends are
	//   rejected
	ModePackaged DeploymentMode = "packaged"

	// ModeCI is a CI/CD pipeline run.
	// - All configuration comes from environment variables
	// - No interactive prompts, strictest validation
	ModeCI DeploymentMode = "ci"
)

// DetectMode determines the deployment context based on environment.
func DetectMode() DeploymentMode {
	// Explicit mode override (highest priority)
	if mode := os.Getenv("REQTRACK_MODE"); mode != "" {
		switch strings.ToLower(mode) {
		case "development", "dev":
			return ModeDevelopment
		case "packaged", "pkg", "production", "prod":
			return ModePackaged
		case "ci", "cicd":
			return ModeCI
		}
	}

	// CI environment detection
	if isCI() {
		return ModeCI
	}

	// Development mode indicators (in order of priority)
	// 1. .env file exists (local storage/container credentials)
	if _, err := os.Stat(".env"); err == nil {
		return ModeDevelopment
	}

	// 2. Inside git repository with go.mod (source development)
	if _, err := os.Stat(".git"); err == nil {
		if _, err := os.Stat("go.mod"); err == nil {
			return ModeDevelopment
		}
	}

	// 3. go.mod exists (running from source)
	if _, err := os.Stat("go.mod"); err == nil {
		return ModeDevelopment
	}

	// 4. Makefile exists (development environment)
	if _, err := os.Stat("Makefile"); err == nil {
		return ModeDevelopment
	}

	// Otherwise: packaged installation (direct binary)
	return ModePackaged
}

// isCI detects if running in a CI/CD environment
func isCI() bool {
	// Common CI environment variables
	ciEnvVars := []string{
		"CI",                     // Generic CI indicator
		"CONTINUOUS_INTEGRATION", // Generic CI indicator
		"GITHUB_ACTIONS",         // GitHub Actions
		"GITLAB_CI",              // GitLab CI
		"CIRCLECI",               // CircleCI
		"TRAVIS",                 // Travis CI
		"JENKINS_URL",            // Jenkins
		"BUILDKITE",              // Buildkite
		"DRONE",                  // Drone CI
		"TF_BUILD",               // Azure Pipelines
	}

	for _, envVar := range ciEnvVars {
		if os.Getenv(envVar) != "" {
			return true
		}
	}

	return false
}

// String returns the string representation of the mode
func (m DeploymentMode) String() string {
	return string(m)
}

// AllowsDevelopmentDefaults returns true if mode allows the insecure
// local-container default passwords validateStorage/validateGraphMirror
// otherwise reject.
func (m DeploymentMode) AllowsDevelopmentDefaults() bool {
	return m == ModeDevelopment
}

// RequiresSecureCredentials returns true if mode requires secure
// passwords on the storage and graph-mirror backends.
func (m DeploymentMode) RequiresSecureCredentials() bool {
	return m == ModePackaged || m == ModeCI
}

// Description returns a human-readable description of the mode
func (m DeploymentMode) Description() string {
	switch m {
	case ModeDevelopment:
		return "local development (source checkout)"
	case ModePackaged:
		return "packaged installation (binary release)"
	case ModeCI:
		return "CI/CD pipeline"
	default:
		return "unknown mode"
	}
}

// ConfigSource returns where credentials should come from in mode, for
// use in validation error messages.
func (m DeploymentMode) ConfigSource() string {
	switch m {
	case ModeDevelopment:
		return ".env file"
	case ModePackaged:
		return "environment variables or a config file"
	case ModeCI:
		return "environment variables only"
	default:
		return "unknown"
	}
}
