package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// 通知模式，两种互斥：aggregate 汇总一次派发，per-symbol 每标的完成即派发
const (
	NotifyModeAggregate = "aggregate"
	NotifyModePerSymbol = "per-symbol"
)

// Config 应用配置
type Config struct {
	App struct {
		Name string `yaml:"name"`
		Env  string `yaml:"env"`
	} `yaml:"app"`

	// 自选标的与展示名映射
	Symbols []string          `yaml:"symbols"`
	NameMap map[string]string `yaml:"name_map"`

	// 流水线参数
	Workers      int    `yaml:"workers"`
	LookbackDays int    `yaml:"lookback_days"`
	Classifier   string `yaml:"classifier"` // letters | suffix

	Model struct {
		APIURL      string   `yaml:"api_url"`
		APIKey      string   `yaml:"api_key"`
		Name        string   `yaml:"name"`
		Temperature *float64 `yaml:"temperature"` // 未设置时缺省 0.2，显式 0 合法
	} `yaml:"model"`

	Notification struct {
		Mode       string `yaml:"mode"` // aggregate | per-symbol
		WebhookURL string `yaml:"webhook_url"`
		ReportDir  string `yaml:"report_dir"`
	} `yaml:"notification"`

	Database struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		DBName   string `yaml:"dbname"`
		SSLMode  string `yaml:"sslmode"`
	} `yaml:"database"`

	DataSources struct {
		AKShare struct {
			BaseURL string        `yaml:"base_url"`
			Timeout time.Duration `yaml:"timeout"`
		} `yaml:"akshare"`
	} `yaml:"data_sources"`

	Search struct {
		BochaKeys  []string `yaml:"bocha_keys"`
		TavilyKeys []string `yaml:"tavily_keys"`
	} `yaml:"search"`

	NATS struct {
		Enabled   bool   `yaml:"enabled"`
		URL       string `yaml:"url"`
		ClusterID string `yaml:"cluster_id"`
		ClientID  string `yaml:"client_id"`
		Subject   string `yaml:"subject"`
	} `yaml:"nats"`

	Schedule struct {
		Enabled bool   `yaml:"enabled"`
		Spec    string `yaml:"spec"` // cron 表达式
	} `yaml:"schedule"`

	MarketReview struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"market_review"`

	API struct {
		Port string `yaml:"port"`
	} `yaml:"api"`

	LogDir string `yaml:"log_dir"`
}

// LoadConfig 从文件加载配置：先读 .env，再解析 YAML，最后环境变量覆盖
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	overrideFromEnv(&config)
	applyDefaults(&config)

	return &config, nil
}

// applyDefaults 填充缺省值
func applyDefaults(config *Config) {
	if config.Workers <= 0 {
		config.Workers = 3
	}
	if config.LookbackDays <= 0 {
		config.LookbackDays = 30
	}
	if config.Classifier == "" {
		config.Classifier = "letters"
	}
	if config.Notification.Mode == "" {
		config.Notification.Mode = NotifyModeAggregate
	}
	if config.Notification.ReportDir == "" {
		config.Notification.ReportDir = "./reports"
	}
	if config.Model.Temperature == nil {
		t := 0.2
		config.Model.Temperature = &t
	}
	if config.Schedule.Spec == "" {
		config.Schedule.Spec = "0 30 17 * * 1-5"
	}
	if config.API.Port == "" {
		config.API.Port = "8080"
	}
	if config.LogDir == "" {
		config.LogDir = "./logs"
	}
}

// overrideFromEnv 使用环境变量覆盖配置
func overrideFromEnv(config *Config) {
	if env := os.Getenv("APP_ENV"); env != "" {
		config.App.Env = env
	}

	// 模型凭据
	if env := os.Getenv("MODEL_API_URL"); env != "" {
		config.Model.APIURL = env
	}
	if env := os.Getenv("MODEL_API_KEY"); env != "" {
		config.Model.APIKey = env
	}
	if env := os.Getenv("MODEL_NAME"); env != "" {
		config.Model.Name = env
	}

	// 数据库配置
	if env := os.Getenv("DB_HOST"); env != "" {
		config.Database.Host = env
	}
	if env := os.Getenv("DB_PORT"); env != "" {
		if port, err := strconv.Atoi(env); err == nil && port > 0 {
			config.Database.Port = port
		}
	}
	if env := os.Getenv("DB_USER"); env != "" {
		config.Database.User = env
	}
	if env := os.Getenv("DB_PASSWORD"); env != "" {
		config.Database.Password = env
	}
	if env := os.Getenv("DB_NAME"); env != "" {
		config.Database.DBName = env
	}

	// 通知渠道
	if env := os.Getenv("WEBHOOK_URL"); env != "" {
		config.Notification.WebhookURL = env
	}
	if env := os.Getenv("NOTIFY_MODE"); env != "" {
		config.Notification.Mode = env
	}

	// 搜索服务（逗号分隔的多个key）
	if env := os.Getenv("BOCHA_API_KEYS"); env != "" {
		config.Search.BochaKeys = splitKeys(env)
	}
	if env := os.Getenv("TAVILY_API_KEYS"); env != "" {
		config.Search.TavilyKeys = splitKeys(env)
	}

	// AKShare 服务
	if env := os.Getenv("AKSHARE_BASE_URL"); env != "" {
		config.DataSources.AKShare.BaseURL = env
	}

	// NATS配置
	if env := os.Getenv("NATS_URL"); env != "" {
		config.NATS.URL = env
	}
	if env := os.Getenv("NATS_CLUSTER_ID"); env != "" {
		config.NATS.ClusterID = env
	}
	if env := os.Getenv("NATS_CLIENT_ID"); env != "" {
		config.NATS.ClientID = env
	}
}

func splitKeys(s string) []string {
	parts := strings.Split(s, ",")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			keys = append(keys, p)
		}
	}
	return keys
}

// GetDefaultConfigPath 获取默认配置文件路径
func GetDefaultConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "configs/app.yaml"
}
