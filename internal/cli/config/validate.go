package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	goyaml "gopkg.in/yaml.v3"
)

var validSinkTypes = map[string]bool{
	"": true, "jsonl": true, "sqlite": true, "postgres": true, "duckdb": true,
}

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

// Validate checks the semantic constraints of a loaded workflow.
func (c *Config) Validate() error {
	if c.Source.Name == "" {
		return fmt.Errorf("source: name is required")
	}
	if err := c.Source.Connection.Validate(); err != nil {
		return err
	}
	if _, err := c.Filters(); err != nil {
		return fmt.Errorf("source.filters: %w", err)
	}
	if c.Profiler.Enabled && c.Profiler.SampleSize <= 0 {
		return fmt.Errorf("profiler: sampleSize must be positive")
	}
	if c.Lineage.QueryHistory.Enabled && c.Lineage.QueryHistory.Limit <= 0 {
		return fmt.Errorf("lineage.queryHistory: limit must be positive")
	}
	if !validSinkTypes[c.Sink.Type] {
		return fmt.Errorf("sink: unknown type %q", c.Sink.Type)
	}
	if c.Sink.Type == "postgres" && c.Sink.DSN == "" {
		return fmt.Errorf("sink: postgres requires a dsn")
	}
	if (c.Sink.Type == "sqlite" || c.Sink.Type == "duckdb") && c.Sink.DSN == "" && c.Sink.Path == "" {
		return fmt.Errorf("sink: %s requires a path or dsn", c.Sink.Type)
	}
	if c.Run.LogLevel != "" && !validLogLevels[c.Run.LogLevel] {
		return fmt.Errorf("run: unknown logLevel %q", c.Run.LogLevel)
	}
	return nil
}

// strictWorkflow mirrors the workflow file shape for unknown-key detection.
// Timeout stays a string here; duration parsing happens in the koanf load.
type strictWorkflow struct {
	Source struct {
		Name       string `yaml:"name"`
		Connection struct {
			HostPort                       string            `yaml:"hostPort"`
			Username                       string            `yaml:"username"`
			Password                       string            `yaml:"password"`
			UseEncryption                  bool              `yaml:"UseEncryption"`
			DisableCertificateVerification bool              `yaml:"disableCertificateVerification"`
			Timeout                        string            `yaml:"timeout"`
			Options                        map[string]string `yaml:"options"`
		} `yaml:"connection"`
		Filters FiltersConfig `yaml:"filters"`
	} `yaml:"source"`
	Profiler   ProfilerConfig   `yaml:"profiler"`
	Lineage    LineageConfig    `yaml:"lineage"`
	Procedures ProceduresConfig `yaml:"procedures"`
	Sink       struct {
		Type string `yaml:"type"`
		Path string `yaml:"path"`
		DSN  string `yaml:"dsn"`
	} `yaml:"sink"`
	Run RunConfig `yaml:"run"`
}

// CheckUnknownKeys strictly decodes the workflow file and reports keys the
// schema does not define. Typos in workflow files otherwise fail silently
// by leaving a default in place.
func CheckUnknownKeys(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading workflow file: %w", err)
	}
	var w strictWorkflow
	dec := goyaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&w); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("workflow file: %w", err)
	}
	return nil
}
