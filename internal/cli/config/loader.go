package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// envPrefix is the environment variable namespace. Nesting uses a double
// underscore: DREMIOMETA_SOURCE__CONNECTION__PASSWORD.
const envPrefix = "DREMIOMETA_"

// canonicalSegments restores the workflow file's mixed-case key spellings
// after environment variable names are lowercased.
var canonicalSegments = map[string]string{
	"hostport":                       "hostPort",
	"useencryption":                  "UseEncryption",
	"disablecertificateverification": "disableCertificateVerification",
	"samplesize":                     "sampleSize",
	"viewdefinitions":                "viewDefinitions",
	"queryhistory":                   "queryHistory",
	"statepath":                      "statePath",
	"loglevel":                       "logLevel",
}

func envToKey(s string) string {
	segments := strings.Split(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__")
	for i, seg := range segments {
		if canonical, ok := canonicalSegments[seg]; ok {
			segments[i] = canonical
		}
	}
	return strings.Join(segments, ".")
}

// Load reads the workflow file and merges environment variables and changed
// flags over it. Precedence, highest first: flags, environment, file,
// defaults.
func Load(workflowFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if workflowFile != "" {
		if err := k.Load(file.Provider(workflowFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading workflow file %s: %w", workflowFile, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envToKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return f.Name, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("loading flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decoding workflow: %w", err)
	}

	// Secrets and endpoints are commonly injected via ${VAR} references.
	cfg.Source.Connection.HostPort = expandEnvVars(cfg.Source.Connection.HostPort)
	cfg.Source.Connection.Username = expandEnvVars(cfg.Source.Connection.Username)
	cfg.Source.Connection.Password = expandEnvVars(cfg.Source.Connection.Password)
	cfg.Sink.DSN = expandEnvVars(cfg.Sink.DSN)

	return &cfg, nil
}

// expandEnvVars expands ${VAR} references against the process environment.
// Unset variables are left as written so validation can name them.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[2 : len(match)-1]); val != "" {
			return val
		}
		return match
	})
}
