package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	GroupMe GroupMeConfig
	Output  OutputConfig
	Sink    SinkConfig
	HTTP    HTTPConfig
}

type GroupMeConfig struct {
	Token          string
	TokenFile      string
	BaseURL        string
	RPS            int
	LegacyTokenEnv string
}

type OutputConfig struct {
	Dir            string
	NonInteractive bool
}

type SinkConfig struct {
	SQLitePath string
	BatchSize  int
	FlushMaxMS int
}

type HTTPConfig struct {
	Addr      string
	RatePerIP int
	Burst     int
}

const (
	defaultOutputDir = "output"
	defaultRPS       = 10
	defaultBatchSize = 1
	defaultFlushMS   = 0
)

func Load() Config {
	cfg := Config{}

	cfg.GroupMe.Token = strings.TrimSpace(os.Getenv("GMQ_TOKEN"))
	if cfg.GroupMe.Token == "" {
		cfg.GroupMe.Token = strings.TrimSpace(os.Getenv("GROUPME_TOKEN"))
		if cfg.GroupMe.Token != "" {
			cfg.GroupMe.LegacyTokenEnv = "GROUPME_TOKEN"
		}
	}
	cfg.GroupMe.TokenFile = strings.TrimSpace(os.Getenv("GMQ_TOKEN_FILE"))
	if cfg.GroupMe.TokenFile == "" {
		cfg.GroupMe.TokenFile = strings.TrimSpace(os.Getenv("GROUPME_TOKEN_FILE"))
	}
	cfg.GroupMe.BaseURL = strings.TrimSpace(os.Getenv("GMQ_API_BASE_URL"))
	cfg.GroupMe.RPS = readInt("GMQ_API_RPS", defaultRPS)

	cfg.Output.Dir = strings.TrimSpace(os.Getenv("GMQ_OUTPUT_DIR"))
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = defaultOutputDir
	}
	cfg.Output.NonInteractive = readBool("GMQ_NON_INTERACTIVE", false)

	cfg.Sink.SQLitePath = strings.TrimSpace(os.Getenv("GMQ_SINK_SQLITE_PATH"))
	cfg.Sink.BatchSize = readInt("GMQ_SINK_BATCH_SIZE", defaultBatchSize)
	cfg.Sink.FlushMaxMS = readInt("GMQ_SINK_FLUSH_MAX_MS", defaultFlushMS)

	cfg.HTTP.Addr = strings.TrimSpace(os.Getenv("GMQ_HTTP_ADDR"))
	cfg.HTTP.RatePerIP = readInt("GMQ_HTTP_RATE_PER_IP", 0)
	cfg.HTTP.Burst = readInt("GMQ_HTTP_BURST", 0)

	return cfg
}

func readInt(name string, def int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	if n <= 0 {
		return def
	}
	return n
}

func readBool(name string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

// SinkEnabled reports whether an SQLite archive path was configured.
func (c Config) SinkEnabled() bool {
	return c.Sink.SQLitePath != ""
}

func (c Config) Batch() int {
	if c.Sink.BatchSize <= 0 {
		return defaultBatchSize
	}
	return c.Sink.BatchSize
}

func (c Config) FlushInterval() time.Duration {
	if c.Sink.FlushMaxMS <= 0 {
		return 0
	}
	return time.Duration(c.Sink.FlushMaxMS) * time.Millisecond
}

type Summary struct {
	Token          string `json:"token,omitempty"`
	TokenFile      string `json:"token_file,omitempty"`
	BaseURL        string `json:"base_url,omitempty"`
	RPS            int    `json:"rps"`
	OutputDir      string `json:"output_dir"`
	NonInteractive bool   `json:"non_interactive"`
	SQLitePath     string `json:"sqlite_path,omitempty"`
	BatchSize      int    `json:"batch"`
	FlushMaxMS     int    `json:"flush_ms"`
	HTTPAddr       string `json:"http_addr,omitempty"`
}

// Summary is the redacted view safe to log at startup.
func (c Config) Summary() Summary {
	return Summary{
		Token:          redactString(c.GroupMe.Token),
		TokenFile:      c.GroupMe.TokenFile,
		BaseURL:        c.GroupMe.BaseURL,
		RPS:            c.GroupMe.RPS,
		OutputDir:      c.Output.Dir,
		NonInteractive: c.Output.NonInteractive,
		SQLitePath:     c.Sink.SQLitePath,
		BatchSize:      c.Batch(),
		FlushMaxMS:     c.Sink.FlushMaxMS,
		HTTPAddr:       c.HTTP.Addr,
	}
}

func (c Config) SummaryJSON() []byte {
	data, err := json.Marshal(c.Summary())
	if err != nil {
		return []byte("{}")
	}
	return data
}

func redactString(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	return "***REDACTED*** (len=" + strconv.Itoa(len(value)) + ")"
}
