package instrumentation

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"
)

// Config holds the OpenTelemetry settings.
type Config struct {
	ServiceName       string
	ServiceVersion    string
	ServiceInstanceID string // defaults to the hostname

	// Enabled turns metrics and tracing on (INSTRUMENTATION_ENABLED).
	Enabled bool

	// MetricsExporter is prometheus, otlp or stdout.
	MetricsExporter string
	// TracingExporter is otlp, stdout or none.
	TracingExporter string

	// OTLPEndpoint is host:port without a scheme, e.g. localhost:4318.
	OTLPEndpoint string
	// OTLPInsecure sends OTLP over plain HTTP. Local development only.
	OTLPInsecure bool

	// TraceSamplingRate is the parent-based ratio, 0.0 to 1.0.
	TraceSamplingRate float64

	// PrometheusEndpoint is the path served by the metrics server.
	PrometheusEndpoint string

	// DetailedLabels adds the caller's email domain to tool metrics.
	// Keep it off in production unless the user base is small.
	DetailedLabels bool

	AuditLogging AuditLoggingConfig
}

// AuditLoggingConfig controls the audit log of tool calls and auth events.
type AuditLoggingConfig struct {
	Enabled bool

	// IncludePII logs full email addresses instead of hashes. Route audit
	// logs to restricted storage before turning this on.
	IncludePII bool

	// LogLevel is debug, info, warn or error.
	LogLevel string
}

// Environment variables read by ConfigFromEnv.
const (
	EnvServiceName       = "OTEL_SERVICE_NAME"
	EnvServiceInstanceID = "OTEL_SERVICE_INSTANCE_ID"
	EnvEnabled           = "INSTRUMENTATION_ENABLED"
	EnvMetricsExporter   = "METRICS_EXPORTER"
	EnvTracingExporter   = "TRACING_EXPORTER"
	EnvOTLPEndpoint      = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvOTLPInsecure      = "OTEL_EXPORTER_OTLP_INSECURE"
	EnvSamplingRate      = "OTEL_TRACES_SAMPLER_ARG"
	EnvPrometheusPath    = "PROMETHEUS_ENDPOINT"
	EnvDetailedLabels    = "METRICS_DETAILED_LABELS"
	EnvAuditEnabled      = "AUDIT_LOGGING_ENABLED"
	EnvAuditIncludePII   = "AUDIT_LOGGING_INCLUDE_PII"
	EnvAuditLevel        = "AUDIT_LOGGING_LEVEL"
)

// DefaultConfig returns the configuration from the process environment.
func DefaultConfig() Config {
	return ConfigFromEnv(os.LookupEnv)
}

// ConfigFromEnv builds a Config from lookup, falling back to defaults for
// unset or unparsable values.
func ConfigFromEnv(lookup func(string) (string, bool)) Config {
	env := envDefaults{lookup: lookup}
	return Config{
		ServiceName:        env.str(EnvServiceName, "taskcal"),
		ServiceVersion:     "unknown",
		ServiceInstanceID:  env.str(EnvServiceInstanceID, ""),
		Enabled:            env.bool(EnvEnabled, true),
		MetricsExporter:    env.str(EnvMetricsExporter, ExporterPrometheus),
		TracingExporter:    env.str(EnvTracingExporter, ExporterNone),
		OTLPEndpoint:       env.str(EnvOTLPEndpoint, ""),
		OTLPInsecure:       env.bool(EnvOTLPInsecure, false),
		TraceSamplingRate:  env.float(EnvSamplingRate, 0.1),
		PrometheusEndpoint: env.str(EnvPrometheusPath, "/metrics"),
		DetailedLabels:     env.bool(EnvDetailedLabels, false),
		AuditLogging: AuditLoggingConfig{
			Enabled:    env.bool(EnvAuditEnabled, true),
			IncludePII: env.bool(EnvAuditIncludePII, false),
			LogLevel:   env.str(EnvAuditLevel, "info"),
		},
	}
}

// Validate checks exporter names, the sampling rate and that OTLP
// exporters have an endpoint.
func (c *Config) Validate() error {
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %f", c.TraceSamplingRate)
	}
	if c.MetricsExporter != "" && !slices.Contains(metricsExporters, c.MetricsExporter) {
		return fmt.Errorf("invalid metrics exporter %q, must be one of: prometheus, otlp, stdout", c.MetricsExporter)
	}
	if c.TracingExporter != "" && !slices.Contains(tracingExporters, c.TracingExporter) {
		return fmt.Errorf("invalid tracing exporter %q, must be one of: otlp, stdout, none", c.TracingExporter)
	}
	if c.OTLPEndpoint == "" {
		if c.TracingExporter == ExporterOTLP {
			return fmt.Errorf("OTLP endpoint is required when using OTLP tracing exporter")
		}
		if c.MetricsExporter == ExporterOTLP {
			return fmt.Errorf("OTLP endpoint is required when using OTLP metrics exporter")
		}
	}
	return nil
}

var (
	metricsExporters = []string{ExporterPrometheus, ExporterOTLP, ExporterStdout}
	tracingExporters = []string{ExporterOTLP, ExporterStdout, ExporterNone}
)

type envDefaults struct {
	lookup func(string) (string, bool)
}

func (e envDefaults) str(key, def string) string {
	if v, ok := e.lookup(key); ok && v != "" {
		return v
	}
	return def
}

func (e envDefaults) bool(key string, def bool) bool {
	v, err := strconv.ParseBool(e.str(key, strconv.FormatBool(def)))
	if err != nil {
		return def
	}
	return v
}

func (e envDefaults) float(key string, def float64) float64 {
	v, ok := e.lookup(key)
	if !ok || v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// Metric label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusUnknown = "unknown"

	AuthOperationRegister = "register"
	AuthOperationLogin    = "login"
	AuthOperationToken    = "token"
	AuthResultSuccess     = "success"
	AuthResultFailure     = "failure"

	ExcludedUndated   = "undated"
	ExcludedMalformed = "malformed"
)

// Exporter names.
const (
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)

// DefaultMetricInterval is the export interval of push exporters.
const DefaultMetricInterval = 10 * time.Second
