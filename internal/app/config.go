package app

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mailpath/mailpath-backend/internal/platform/logger"
	"github.com/mailpath/mailpath-backend/internal/utils"
)

type Config struct {
	ServiceName         string   `yaml:"service_name"`
	Environment         string   `yaml:"environment"`
	Version             string   `yaml:"version"`
	Port                string   `yaml:"port"`
	AllowedOrigins      []string `yaml:"allowed_origins"`
	AnalysisConcurrency int      `yaml:"analysis_concurrency"`
}

// LoadConfig reads environment variables first, then overlays an optional
// YAML file named by CONFIG_FILE. File values win where both are set.
func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		ServiceName:         utils.GetEnv("SERVICE_NAME", "mailpath-backend", log),
		Environment:         utils.GetEnv("ENVIRONMENT", "development", log),
		Version:             utils.GetEnv("SERVICE_VERSION", "dev", log),
		Port:                utils.GetEnv("PORT", "8080", log),
		AnalysisConcurrency: utils.GetEnvAsInt("ANALYSIS_CONCURRENCY", 4, log),
	}
	if origins := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
			}
		}
	}

	path := strings.TrimSpace(os.Getenv("CONFIG_FILE"))
	if path == "" {
		return cfg
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Warn("config file unreadable, using environment only", "path", path, "error", err)
		return cfg
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		log.Warn("config file invalid, using environment only", "path", path, "error", err)
	}
	if cfg.AnalysisConcurrency < 1 {
		cfg.AnalysisConcurrency = 1
	}
	return cfg
}
