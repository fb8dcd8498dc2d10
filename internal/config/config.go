package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Graph struct {
		DSN          string `yaml:"dsn"`
		Host         string `yaml:"host"`
		Port         int    `yaml:"port"`
		User         string `yaml:"user"`
		Password     string `yaml:"password"`
		Database     string `yaml:"database"`
		SSLMode      string `yaml:"sslmode"`
		MaxOpenConns int    `yaml:"max_open_conns"`
	} `yaml:"graph"`
	Documents struct {
		Endpoint     string `yaml:"endpoint"`
		Region       string `yaml:"region"`
		Bucket       string `yaml:"bucket"`
		BucketPrefix string `yaml:"bucket_prefix"`
		Deployment   string `yaml:"deployment"`
		AccessKey    string `yaml:"access_key"`
		SecretKey    string `yaml:"secret_key"`
	} `yaml:"documents"`
	Reports struct {
		RedisURL string `yaml:"redis_url"`
		Queue    string `yaml:"queue"`
	} `yaml:"reports"`
	Sync struct {
		Force           bool     `yaml:"force"`
		Graceful        bool     `yaml:"graceful"`
		Debug           bool     `yaml:"debug"`
		DocumentClasses []string `yaml:"document_classes"`
	} `yaml:"sync"`
}

func Default() Config {
	var cfg Config
	cfg.Graph.Port = 5432
	cfg.Graph.SSLMode = "disable"
	cfg.Graph.MaxOpenConns = 10
	cfg.Documents.Region = "us-east-1"
	cfg.Reports.Queue = "thoth_sync_reports"
	return cfg
}

func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, err
			}
		} else {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, err
			}
		}
	}

	applyEnv(&cfg)

	if cfg.GraphDSN() == "" {
		return cfg, errors.New("missing graph.dsn (or KNOWLEDGE_GRAPH_DSN / KNOWLEDGE_GRAPH_HOST)")
	}

	return cfg, nil
}

// GraphDSN returns the explicit DSN or one assembled from the host parts.
func (c Config) GraphDSN() string {
	if c.Graph.DSN != "" {
		return c.Graph.DSN
	}
	if c.Graph.Host == "" {
		return ""
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", c.Graph.Host, c.Graph.Port),
		Path:   "/" + c.Graph.Database,
	}
	if c.Graph.User != "" {
		if c.Graph.Password != "" {
			u.User = url.UserPassword(c.Graph.User, c.Graph.Password)
		} else {
			u.User = url.User(c.Graph.User)
		}
	}
	if c.Graph.SSLMode != "" {
		u.RawQuery = "sslmode=" + url.QueryEscape(c.Graph.SSLMode)
	}
	return u.String()
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("KNOWLEDGE_GRAPH_DSN"); v != "" {
		cfg.Graph.DSN = v
	}
	if v := os.Getenv("KNOWLEDGE_GRAPH_HOST"); v != "" {
		cfg.Graph.Host = v
	}
	if v := os.Getenv("KNOWLEDGE_GRAPH_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Graph.Port = p
		}
	}
	if v := os.Getenv("KNOWLEDGE_GRAPH_USER"); v != "" {
		cfg.Graph.User = v
	}
	if v := os.Getenv("KNOWLEDGE_GRAPH_PASSWORD"); v != "" {
		cfg.Graph.Password = v
	}
	if v := os.Getenv("KNOWLEDGE_GRAPH_DATABASE"); v != "" {
		cfg.Graph.Database = v
	}
	if v := os.Getenv("KNOWLEDGE_GRAPH_SSL_MODE"); v != "" {
		cfg.Graph.SSLMode = v
	}
	if v := os.Getenv("THOTH_S3_ENDPOINT_URL"); v != "" {
		cfg.Documents.Endpoint = v
	}
	if v := os.Getenv("THOTH_CEPH_REGION"); v != "" {
		cfg.Documents.Region = v
	}
	if v := os.Getenv("THOTH_CEPH_BUCKET"); v != "" {
		cfg.Documents.Bucket = v
	}
	if v := os.Getenv("THOTH_CEPH_BUCKET_PREFIX"); v != "" {
		cfg.Documents.BucketPrefix = v
	}
	if v := os.Getenv("THOTH_DEPLOYMENT_NAME"); v != "" {
		cfg.Documents.Deployment = v
	}
	if v := os.Getenv("THOTH_CEPH_KEY_ID"); v != "" {
		cfg.Documents.AccessKey = v
	}
	if v := os.Getenv("THOTH_CEPH_SECRET_KEY"); v != "" {
		cfg.Documents.SecretKey = v
	}
	if v := os.Getenv("THOTH_SYNC_REDIS_URL"); v != "" {
		cfg.Reports.RedisURL = v
	}
	if v := os.Getenv("THOTH_SYNC_REPORT_QUEUE"); v != "" {
		cfg.Reports.Queue = v
	}
	if v := os.Getenv("THOTH_SYNC_FORCE_SYNC"); v != "" {
		cfg.Sync.Force = ParseBool(v, cfg.Sync.Force)
	}
	if v := os.Getenv("THOTH_SYNC_GRACEFUL"); v != "" {
		cfg.Sync.Graceful = ParseBool(v, cfg.Sync.Graceful)
	}
	if v := os.Getenv("THOTH_SYNC_DEBUG"); v != "" {
		cfg.Sync.Debug = ParseBool(v, cfg.Sync.Debug)
	}
	if v := os.Getenv("THOTH_SYNC_DOCUMENT_CLASSES"); v != "" {
		cfg.Sync.DocumentClasses = SplitCSV(v)
	}
}

func ParseBool(input string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func SplitCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		val := strings.TrimSpace(part)
		if val == "" {
			continue
		}
		out = append(out, val)
	}
	return out
}
