// Package config loads and validates the workflow file that drives an
// ingestion run. Precedence, highest first: flags, environment variables,
// workflow file, defaults.
package config

import (
	"github.com/metalake-labs/dremiometa/internal/dremio"
	"github.com/metalake-labs/dremiometa/internal/sink"
)

// FilterRules is one include/exclude regular-expression pair.
type FilterRules struct {
	Includes []string `koanf:"includes" yaml:"includes"`
	Excludes []string `koanf:"excludes" yaml:"excludes"`
}

// FiltersConfig scopes the enumeration.
type FiltersConfig struct {
	Databases FilterRules `koanf:"databases" yaml:"databases"`
	Schemas   FilterRules `koanf:"schemas" yaml:"schemas"`
	Tables    FilterRules `koanf:"tables" yaml:"tables"`
}

// SourceConfig names the Dremio being harvested and how to reach it.
type SourceConfig struct {
	// Name is the service name stamped on every emitted entity.
	Name       string        `koanf:"name" yaml:"name"`
	Connection dremio.Config `koanf:"connection" yaml:"connection"`
	Filters    FiltersConfig `koanf:"filters" yaml:"filters"`
}

// ProfilerConfig controls the sampling profiler.
type ProfilerConfig struct {
	Enabled    bool  `koanf:"enabled" yaml:"enabled"`
	SampleSize int64 `koanf:"sampleSize" yaml:"sampleSize"`
}

// QueryHistoryConfig controls lineage extraction from executed queries.
type QueryHistoryConfig struct {
	Enabled bool `koanf:"enabled" yaml:"enabled"`
	// Query overrides the default sys.jobs query; the system table moves
	// between Dremio versions.
	Query string `koanf:"query" yaml:"query"`
	Limit int    `koanf:"limit" yaml:"limit"`
}

// LineageConfig controls the lineage extractor.
type LineageConfig struct {
	Enabled         bool               `koanf:"enabled" yaml:"enabled"`
	ViewDefinitions bool               `koanf:"viewDefinitions" yaml:"viewDefinitions"`
	QueryHistory    QueryHistoryConfig `koanf:"queryHistory" yaml:"queryHistory"`
}

// ProceduresConfig controls UDF harvesting.
type ProceduresConfig struct {
	Enabled bool `koanf:"enabled" yaml:"enabled"`
	// Query overrides the default sys.user_defined_functions query.
	Query string `koanf:"query" yaml:"query"`
}

// RunConfig holds run-local settings.
type RunConfig struct {
	// StatePath is the run history database.
	StatePath string `koanf:"statePath" yaml:"statePath"`
	LogLevel  string `koanf:"logLevel" yaml:"logLevel"`
}

// Config is the complete workflow.
type Config struct {
	Source     SourceConfig     `koanf:"source" yaml:"source"`
	Profiler   ProfilerConfig   `koanf:"profiler" yaml:"profiler"`
	Lineage    LineageConfig    `koanf:"lineage" yaml:"lineage"`
	Procedures ProceduresConfig `koanf:"procedures" yaml:"procedures"`
	Sink       sink.Config      `koanf:"sink" yaml:"sink"`
	Run        RunConfig        `koanf:"run" yaml:"run"`

	// Verbose and OutputFormat come from persistent flags, not the file.
	Verbose      bool   `koanf:"verbose" yaml:"verbose"`
	OutputFormat string `koanf:"output" yaml:"output"`
}

// Filters compiles the configured filter expressions.
func (c *Config) Filters() (dremio.Filters, error) {
	return dremio.NewFilters(
		c.Source.Filters.Databases.Includes, c.Source.Filters.Databases.Excludes,
		c.Source.Filters.Schemas.Includes, c.Source.Filters.Schemas.Excludes,
		c.Source.Filters.Tables.Includes, c.Source.Filters.Tables.Excludes,
	)
}
