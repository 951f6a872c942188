package config

// Defaults applied before the workflow file loads.
const (
	DefaultStatePath   = ".dremiometa/state.db"
	DefaultLogLevel    = "info"
	DefaultOutput      = "auto"
	DefaultSampleSize  = 10000
	DefaultQueryLimit  = 500
	DefaultSinkType    = "jsonl"
	DefaultSinkPath    = "-"
	DefaultServiceName = "dremio"
)

func defaults() map[string]interface{} {
	m := map[string]interface{}{
		"source.name":                  DefaultServiceName,
		"profiler.enabled":             false,
		"profiler.sampleSize":          DefaultSampleSize,
		"lineage.enabled":              true,
		"lineage.viewDefinitions":      true,
		"lineage.queryHistory.enabled": false,
		"lineage.queryHistory.limit":   DefaultQueryLimit,
		"procedures.enabled":           true,
		"sink.type":                    DefaultSinkType,
		"sink.path":                    DefaultSinkPath,
		"run.statePath":                DefaultStatePath,
		"run.logLevel":                 DefaultLogLevel,
		"verbose":                      false,
		"output":                       DefaultOutput,
	}
	// Self-signed coordinator certs are the norm, so verification is off
	// unless the workflow enables it.
	m["source.connection.disableCertificateVerification"] = true
	return m
}
