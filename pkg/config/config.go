package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App       App       `yaml:"app"`
	Logger    Logger    `yaml:"logger"`
	Database  Database  `yaml:"database"`
	Allows    Allows    `yaml:"allows"`
	Gateway   Gateway   `yaml:"gateway"`
	Webhook   Webhook   `yaml:"webhook"`
	Ledger    Ledger    `yaml:"ledger"`
	Nats      Nats      `yaml:"nats"`
	Reconcile Reconcile `yaml:"reconcile"`
	Campaign  Campaign  `yaml:"campaign"`
}

type App struct {
	Name string `yaml:"name"`
	Port string `yaml:"port"`
	Host string `yaml:"host"`
}

type Logger struct {
	Mode       string `yaml:"mode"` // development or production
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

type Database struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
	Name string `yaml:"name"`
}

type Allows struct {
	Methods []string `yaml:"methods"`
	Origins []string `yaml:"origins"`
	Headers []string `yaml:"headers"`
}

// Gateway selects the WhatsApp gateway driver. Per-organization credentials
// live in the organizations table; the values here are the defaults used when
// an organization has none of its own.
type Gateway struct {
	Driver      string        `yaml:"driver"` // remote or local
	BaseURL     string        `yaml:"base_url"`
	InstanceID  string        `yaml:"instance_id"`
	Token       string        `yaml:"token"`
	ClientToken string        `yaml:"client_token"`
	Timeout     time.Duration `yaml:"timeout"`
	LocalStore  string        `yaml:"local_store"` // directory for whatsmeow sqlite files
}

type Webhook struct {
	ConnectionURL string        `yaml:"connection_url"`
	LeadsURL      string        `yaml:"leads_url"`
	Timeout       time.Duration `yaml:"timeout"`
}

type Ledger struct {
	Driver    string `yaml:"driver"` // bolt or redis
	Path      string `yaml:"path"`
	RedisAddr string `yaml:"redis_addr"`
	RedisPass string `yaml:"redis_pass"`
	RedisDB   int    `yaml:"redis_db"`
}

type Nats struct {
	URL            string `yaml:"url"`
	ChangedSubject string `yaml:"changed_subject"`
	RefreshSubject string `yaml:"refresh_subject"`
}

type Reconcile struct {
	Schedule string `yaml:"schedule"`
	Workers  int    `yaml:"workers"`
}

type Campaign struct {
	SendDelay time.Duration `yaml:"send_delay"`
}

func InitConfig() *Config {
	var configs Config
	file_name, _ := filepath.Abs("./config.yaml")
	yaml_file, _ := os.ReadFile(file_name)
	yaml.Unmarshal(yaml_file, &configs)

	configs.applyEnv()
	configs.applyDefaults()

	return &configs
}

// applyEnv overrides file values with environment variables (for Docker).
func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"DB_HOST":                &c.Database.Host,
		"DB_PORT":                &c.Database.Port,
		"DB_USER":                &c.Database.User,
		"DB_PASSWORD":            &c.Database.Pass,
		"DB_NAME":                &c.Database.Name,
		"APP_HOST":               &c.App.Host,
		"APP_PORT":               &c.App.Port,
		"APP_NAME":               &c.App.Name,
		"LOG_MODE":               &c.Logger.Mode,
		"GATEWAY_DRIVER":         &c.Gateway.Driver,
		"GATEWAY_BASE_URL":       &c.Gateway.BaseURL,
		"GATEWAY_INSTANCE_ID":    &c.Gateway.InstanceID,
		"GATEWAY_TOKEN":          &c.Gateway.Token,
		"GATEWAY_CLIENT_TOKEN":   &c.Gateway.ClientToken,
		"GATEWAY_LOCAL_STORE":    &c.Gateway.LocalStore,
		"WEBHOOK_CONNECTION_URL": &c.Webhook.ConnectionURL,
		"WEBHOOK_LEADS_URL":      &c.Webhook.LeadsURL,
		"LEDGER_DRIVER":          &c.Ledger.Driver,
		"LEDGER_PATH":            &c.Ledger.Path,
		"REDIS_ADDR":             &c.Ledger.RedisAddr,
		"REDIS_PASSWORD":         &c.Ledger.RedisPass,
		"NATS_URL":               &c.Nats.URL,
		"RECONCILE_SCHEDULE":     &c.Reconcile.Schedule,
	}
	for key, target := range overrides {
		if v := os.Getenv(key); v != "" {
			*target = v
		}
	}

	if v := os.Getenv("CAMPAIGN_SEND_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Campaign.SendDelay = d
		}
	}
	if v := os.Getenv("RECONCILE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Reconcile.Workers = n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "wa-connector"
	}
	if c.App.Port == "" {
		c.App.Port = "8000"
	}
	if c.Logger.Mode == "" {
		c.Logger.Mode = "development"
	}
	if c.Gateway.Driver == "" {
		c.Gateway.Driver = "remote"
	}
	if c.Gateway.BaseURL == "" {
		c.Gateway.BaseURL = "https://api.z-api.io"
	}
	if c.Gateway.Timeout == 0 {
		c.Gateway.Timeout = 30 * time.Second
	}
	if c.Gateway.LocalStore == "" {
		c.Gateway.LocalStore = "./data/sessions"
	}
	if c.Webhook.Timeout == 0 {
		c.Webhook.Timeout = 10 * time.Second
	}
	if c.Ledger.Driver == "" {
		c.Ledger.Driver = "bolt"
	}
	if c.Ledger.Path == "" {
		c.Ledger.Path = "./data/ledger.db"
	}
	if c.Nats.ChangedSubject == "" {
		c.Nats.ChangedSubject = "connection.changed"
	}
	if c.Nats.RefreshSubject == "" {
		c.Nats.RefreshSubject = "connection.refresh"
	}
	if c.Reconcile.Schedule == "" {
		c.Reconcile.Schedule = "@every 1m"
	}
	if c.Reconcile.Workers <= 0 {
		c.Reconcile.Workers = 8
	}
	if c.Campaign.SendDelay == 0 {
		c.Campaign.SendDelay = time.Second
	}
}
