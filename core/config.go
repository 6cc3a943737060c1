package core

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Directory and provider backend names accepted in Config.
const (
	DirectoryRDSData  = "rds-data"
	DirectoryPostgres = "postgres"

	ProviderCognito = "cognito"
	ProviderOIDC    = "oidc"
	ProviderLocal   = "local"
)

// Config holds runtime settings shared by the login function and the API process.
type Config struct {
	Port           string   `yaml:"port"`            // HTTP listen port (e.g., "3000")
	LogDir         string   `yaml:"log_dir"`         // Directory to write application logs (empty -> stdout only)
	LogLevel       string   `yaml:"log_level"`       // zerolog level name
	AllowedOrigins []string `yaml:"allowed_origins"` // allowed origins for CORS

	DirectoryBackend string `yaml:"directory_backend"` // rds-data | postgres
	DBResourceARN    string `yaml:"db_resource_arn"`   // Aurora cluster ARN for the Data API
	DBSecretARN      string `yaml:"db_secret_arn"`     // Secrets Manager ARN holding DB credentials
	DBName           string `yaml:"db_name"`           // database name for the Data API
	DatabaseURL      string `yaml:"database_url"`      // PostgreSQL DSN

	ProviderBackend  string `yaml:"provider_backend"` // cognito | oidc | local
	AWSRegion        string `yaml:"aws_region"`
	UserPoolID       string `yaml:"user_pool_id"`
	ClientID         string `yaml:"client_id"`
	OIDCIssuer       string `yaml:"oidc_issuer"`
	OIDCClientSecret string `yaml:"oidc_client_secret"`
	LocalTokenSecret string `yaml:"local_token_secret"` // HS256 key for the local provider
	LocalIssuer      string `yaml:"local_issuer"`

	NoticesPerPage int `yaml:"notices_per_page"` // default page size for GET /notices

	BootstrapEnabled      bool   `yaml:"-"`                       // whether dbinit seeds rows and the local credential (env only)
	BootstrapUsername     string `yaml:"bootstrap_username"`      // employee that receives a generated local password
	BootstrapPasswordPath string `yaml:"bootstrap_password_path"` // where to write it (empty -> log output)
}

// Load populates Config from an optional YAML file (CONFIG_FILE) and environment
// variables. Environment values win over file values; defaults fill the rest.
func Load() Config {
	var base Config
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if fileCfg, err := LoadFile(path); err == nil {
			base = fileCfg
		}
	}
	return Config{
		Port:           firstNonEmpty(os.Getenv("PORT"), base.Port, "3000"),
		LogDir:         firstNonEmpty(os.Getenv("LOG_DIR"), base.LogDir),
		LogLevel:       firstNonEmpty(os.Getenv("LOG_LEVEL"), base.LogLevel, "info"),
		AllowedOrigins: firstNonEmptyList(parseCSV(os.Getenv("ALLOWED_ORIGINS")), base.AllowedOrigins),

		DirectoryBackend: firstNonEmpty(os.Getenv("DIRECTORY_BACKEND"), base.DirectoryBackend, DirectoryRDSData),
		DBResourceARN:    firstNonEmpty(os.Getenv("DB_ARN"), base.DBResourceARN),
		DBSecretARN:      firstNonEmpty(os.Getenv("SECRET_ARN"), base.DBSecretARN),
		DBName:           firstNonEmpty(os.Getenv("DB_NAME"), base.DBName),
		DatabaseURL:      firstNonEmpty(os.Getenv("DATABASE_URL"), os.Getenv("POSTGRES_URL"), base.DatabaseURL),

		ProviderBackend:  firstNonEmpty(os.Getenv("PROVIDER_BACKEND"), base.ProviderBackend, ProviderCognito),
		AWSRegion:        firstNonEmpty(os.Getenv("AWS_REGION"), os.Getenv("COGNITO_REGION"), base.AWSRegion),
		UserPoolID:       firstNonEmpty(os.Getenv("USERPOOL_ID"), os.Getenv("COGNITO_USER_POOL_ID"), base.UserPoolID),
		ClientID:         firstNonEmpty(os.Getenv("CLIENT_ID"), os.Getenv("COGNITO_CLIENT_ID"), base.ClientID),
		OIDCIssuer:       firstNonEmpty(os.Getenv("OIDC_ISSUER"), base.OIDCIssuer),
		OIDCClientSecret: firstNonEmpty(os.Getenv("OIDC_CLIENT_SECRET"), base.OIDCClientSecret),
		LocalTokenSecret: firstNonEmpty(os.Getenv("LOCAL_TOKEN_SECRET"), base.LocalTokenSecret),
		LocalIssuer:      firstNonEmpty(os.Getenv("LOCAL_ISSUER"), base.LocalIssuer, "employee-portal-local"),

		NoticesPerPage: intFromEnv("NOTICES_PER_PAGE", firstPositive(base.NoticesPerPage, 20)),

		BootstrapEnabled:      boolFromEnv("BOOTSTRAP_ENABLED", true),
		BootstrapUsername:     firstNonEmpty(os.Getenv("BOOTSTRAP_USERNAME"), base.BootstrapUsername),
		BootstrapPasswordPath: firstNonEmpty(os.Getenv("BOOTSTRAP_PASSWORD_PATH"), base.BootstrapPasswordPath),
	}
}

// LoadFile reads a YAML config file without applying defaults.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that the selected backends have what they need.
func (c Config) Validate() error {
	var errs []error
	switch c.DirectoryBackend {
	case DirectoryRDSData:
		if c.DBResourceARN == "" || c.DBSecretARN == "" || c.DBName == "" {
			errs = append(errs, errors.New("rds-data directory requires DB_ARN, SECRET_ARN and DB_NAME"))
		}
	case DirectoryPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("postgres directory requires DATABASE_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown directory backend %q", c.DirectoryBackend))
	}

	switch c.ProviderBackend {
	case ProviderCognito:
		if c.UserPoolID == "" || c.ClientID == "" {
			errs = append(errs, errors.New("cognito provider requires USERPOOL_ID and CLIENT_ID"))
		}
	case ProviderOIDC:
		if c.OIDCIssuer == "" || c.ClientID == "" {
			errs = append(errs, errors.New("oidc provider requires OIDC_ISSUER and CLIENT_ID"))
		}
	case ProviderLocal:
		if c.LocalTokenSecret == "" {
			errs = append(errs, errors.New("local provider requires LOCAL_TOKEN_SECRET"))
		}
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("local provider requires DATABASE_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown provider backend %q", c.ProviderBackend))
	}
	return errors.Join(errs...)
}

// CognitoIssuer returns the OIDC issuer URL of the configured user pool.
func (c Config) CognitoIssuer() string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", c.AWSRegion, c.UserPoolID)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

func firstNonEmptyList(lists ...[]string) []string {
	for _, l := range lists {
		if len(l) > 0 {
			return l
		}
	}
	return nil
}

// boolFromEnv reads a boolean from env var name, falling back to defaultVal when empty or invalid.
func boolFromEnv(name string, defaultVal bool) bool {
	if v := os.Getenv(name); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

// intFromEnv reads an int from env var name, falling back to defaultVal when empty or invalid.
func intFromEnv(name string, defaultVal int) int {
	if v := os.Getenv(name); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

// parseCSV splits comma-separated list and trims spaces; empty entries are skipped.
func parseCSV(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}
