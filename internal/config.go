package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSocketPath   = "/tmp/imessage-exporter.sock"
	DefaultHTTPEndpoint = "http://localhost:3000"
	DefaultRemoteDSN    = "postgres://localhost:5432/lynx?sslmode=disable"
	DefaultDBUser       = "root"
	DefaultDBPass       = "root"
	DefaultListenAddr   = ":3000"
	DefaultPlatform     = "macOS"
)

// Config holds exporter settings. Values come from defaults, then an optional
// YAML file, then the environment (including a .env file).
type Config struct {
	// DBPath is the sink target: a directory for the embedded store, a URL for
	// the HTTP sink, or a socket path. "remote" selects the network endpoint.
	DBPath         string `yaml:"db_path"`
	DBUser         string `yaml:"db_user"`
	DBPass         string `yaml:"db_pass"`
	DBRemote       string `yaml:"db_remote"`
	TLSCert        string `yaml:"tls_cert"`
	TLSKey         string `yaml:"tls_key"`
	Sink           string `yaml:"sink"`
	BatchSize      int    `yaml:"batch_size"`
	CustomName     string `yaml:"custom_name"`
	UseCallerID    bool   `yaml:"use_caller_id"`
	AttachmentRoot string `yaml:"attachment_root"`
	Platform       string `yaml:"platform"`
	ListenAddr     string `yaml:"listen_addr"`
	SocketPath     string `yaml:"socket_path"`
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		LogWarn("Ignoring invalid %s=%q: %v", key, value, err)
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		LogWarn("Ignoring invalid %s=%q: %v", key, value, err)
		return defaultValue
	}
	return b
}

// DefaultConfig returns the built-in settings
func DefaultConfig() *Config {
	return &Config{
		DBUser:     DefaultDBUser,
		DBPass:     DefaultDBPass,
		DBRemote:   DefaultRemoteDSN,
		Sink:       "embedded",
		BatchSize:  DefaultBatchSize,
		Platform:   DefaultPlatform,
		ListenAddr: DefaultListenAddr,
		SocketPath: DefaultSocketPath,
	}
}

// LoadConfig builds the effective configuration. path may be empty.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	conf := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, conf); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	conf.DBPath = getEnv("DBPATH", conf.DBPath)
	// DBUSER and DBPASS only apply as a pair
	if user, pass := os.Getenv("DBUSER"), os.Getenv("DBPASS"); user != "" && pass != "" {
		conf.DBUser, conf.DBPass = user, pass
	}
	conf.DBRemote = getEnv("DBREMOTE", conf.DBRemote)
	conf.TLSCert = getEnv("TLS_CERT", conf.TLSCert)
	conf.TLSKey = getEnv("TLS_KEY", conf.TLSKey)
	conf.Sink = getEnv("EXPORT_SINK", conf.Sink)
	conf.BatchSize = getEnvInt("EXPORT_BATCH_SIZE", conf.BatchSize)
	conf.CustomName = getEnv("EXPORT_CUSTOM_NAME", conf.CustomName)
	conf.UseCallerID = getEnvBool("EXPORT_USE_CALLER_ID", conf.UseCallerID)
	conf.AttachmentRoot = getEnv("EXPORT_ATTACHMENT_ROOT", conf.AttachmentRoot)
	conf.Platform = getEnv("EXPORT_PLATFORM", conf.Platform)
	conf.ListenAddr = getEnv("EXPORT_LISTEN_ADDR", conf.ListenAddr)

	if conf.BatchSize < 1 {
		conf.BatchSize = DefaultBatchSize
	}
	return conf, nil
}

// DefaultStoreDir returns the embedded store directory used when DBPATH is unset
func DefaultStoreDir() string {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(string(filepath.Separator), "export", "db")
	}
	return filepath.Join(cacheDir, "export", "db")
}
