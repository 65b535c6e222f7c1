package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// 默认值
const (
	DefaultAPIBaseURL    = "http://localhost:5000"
	DefaultAPITimeout    = 10 * time.Second
	DefaultPollBase      = 5 * time.Second
	DefaultPollFast      = 2 * time.Second
	DefaultWebListen     = ":8090"
	DefaultLogLevel      = "info"
	DefaultActionTimeout = 15 * time.Second
)

// Config 控制面板配置
type Config struct {
	APIBaseURL    string        // 策略后端地址
	APITimeout    time.Duration // 单个请求超时
	PollBase      time.Duration // 基础轮询间隔
	PollFast      time.Duration // 策略运行时的快速轮询间隔
	ActionTimeout time.Duration // 动作（含随后刷新）超时
	WebListen     string        // web 模式监听地址
	MetricsListen string        // 独立的 metrics/pprof 监听地址（可选）
	LogLevel      string        // 日志级别
	LogFile       string        // 日志文件路径（可选）
	TUILogFile    string        // TUI 运行期间的日志文件（可选）
	Timezone      string        // 成交时间显示时区，空为本地
}

// ConfigFile 配置文件结构（用于 YAML/JSON 解析），时长用 "5s" 形式
type ConfigFile struct {
	API struct {
		BaseURL string `yaml:"base_url" json:"base_url"`
		Timeout string `yaml:"timeout" json:"timeout"`
	} `yaml:"api" json:"api"`
	Poll struct {
		Base string `yaml:"base" json:"base"`
		Fast string `yaml:"fast" json:"fast"`
	} `yaml:"poll" json:"poll"`
	ActionTimeout string `yaml:"action_timeout" json:"action_timeout"`
	Web           struct {
		Listen string `yaml:"listen" json:"listen"`
	} `yaml:"web" json:"web"`
	Metrics struct {
		Listen string `yaml:"listen" json:"listen"`
	} `yaml:"metrics" json:"metrics"`
	Log struct {
		Level   string `yaml:"level" json:"level"`
		File    string `yaml:"file" json:"file"`
		TUIFile string `yaml:"tui_file" json:"tui_file"`
	} `yaml:"log" json:"log"`
	Timezone string `yaml:"timezone" json:"timezone"`
}

// Default 默认配置
func Default() *Config {
	return &Config{
		APIBaseURL:    DefaultAPIBaseURL,
		APITimeout:    DefaultAPITimeout,
		PollBase:      DefaultPollBase,
		PollFast:      DefaultPollFast,
		ActionTimeout: DefaultActionTimeout,
		WebListen:     DefaultWebListen,
		LogLevel:      DefaultLogLevel,
	}
}

// Load 加载配置。优先级：环境变量 > 配置文件 > 默认值。
// filePath 为空时只读环境变量。
func Load(filePath string) (*Config, error) {
	cfg := Default()

	if filePath != "" {
		cf, err := loadConfigFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("加载配置文件失败 %s: %w", filePath, err)
		}
		if err := cfg.applyFile(cf); err != nil {
			return nil, fmt.Errorf("配置文件 %s: %w", filePath, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadConfigFile 加载配置文件（支持 YAML 和 JSON）
func loadConfigFile(filePath string) (*ConfigFile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cf ConfigFile
	switch ext := strings.ToLower(filepath.Ext(filePath)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cf); err != nil {
			return nil, fmt.Errorf("解析 YAML 配置文件失败: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cf); err != nil {
			return nil, fmt.Errorf("解析 JSON 配置文件失败: %w", err)
		}
	default:
		return nil, fmt.Errorf("不支持的配置文件格式: %s (支持 .yaml, .yml, .json)", ext)
	}
	return &cf, nil
}

func (c *Config) applyFile(cf *ConfigFile) error {
	setString(&c.APIBaseURL, cf.API.BaseURL)
	setString(&c.WebListen, cf.Web.Listen)
	setString(&c.MetricsListen, cf.Metrics.Listen)
	setString(&c.LogLevel, cf.Log.Level)
	setString(&c.LogFile, cf.Log.File)
	setString(&c.TUILogFile, cf.Log.TUIFile)
	setString(&c.Timezone, cf.Timezone)

	for _, d := range []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"api.timeout", cf.API.Timeout, &c.APITimeout},
		{"poll.base", cf.Poll.Base, &c.PollBase},
		{"poll.fast", cf.Poll.Fast, &c.PollFast},
		{"action_timeout", cf.ActionTimeout, &c.ActionTimeout},
	} {
		if err := setDuration(d.dst, d.name, d.raw); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.APIBaseURL = getEnv("PANEL_API_BASE_URL", c.APIBaseURL)
	c.WebListen = getEnv("PANEL_WEB_LISTEN", c.WebListen)
	c.MetricsListen = getEnv("PANEL_METRICS_LISTEN", c.MetricsListen)
	c.LogLevel = getEnv("PANEL_LOG_LEVEL", c.LogLevel)
	c.LogFile = getEnv("PANEL_LOG_FILE", c.LogFile)
	c.TUILogFile = getEnv("PANEL_TUI_LOG_FILE", c.TUILogFile)
	c.Timezone = getEnv("PANEL_TIMEZONE", c.Timezone)

	var err error
	if c.APITimeout, err = parseDurationEnv("PANEL_API_TIMEOUT", c.APITimeout); err != nil {
		return err
	}
	if c.PollBase, err = parseDurationEnv("PANEL_POLL_BASE", c.PollBase); err != nil {
		return err
	}
	if c.PollFast, err = parseDurationEnv("PANEL_POLL_FAST", c.PollFast); err != nil {
		return err
	}
	if c.ActionTimeout, err = parseDurationEnv("PANEL_ACTION_TIMEOUT", c.ActionTimeout); err != nil {
		return err
	}
	return nil
}

// Validate 验证配置
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIBaseURL) == "" {
		return fmt.Errorf("PANEL_API_BASE_URL 未配置")
	}
	if !strings.HasPrefix(c.APIBaseURL, "http://") && !strings.HasPrefix(c.APIBaseURL, "https://") {
		return fmt.Errorf("PANEL_API_BASE_URL 必须以 http:// 或 https:// 开头: %s", c.APIBaseURL)
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("PANEL_API_TIMEOUT 必须大于 0")
	}
	if c.PollBase <= 0 {
		return fmt.Errorf("PANEL_POLL_BASE 必须大于 0")
	}
	if c.PollFast <= 0 {
		return fmt.Errorf("PANEL_POLL_FAST 必须大于 0")
	}
	if c.PollFast >= c.PollBase {
		return fmt.Errorf("PANEL_POLL_FAST (%s) 必须小于 PANEL_POLL_BASE (%s)", c.PollFast, c.PollBase)
	}
	if c.ActionTimeout <= 0 {
		return fmt.Errorf("PANEL_ACTION_TIMEOUT 必须大于 0")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("PANEL_TIMEZONE 无效: %w", err)
	}
	return nil
}

// Location 显示时区
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, name, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	d, err := parseDuration(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = d
	return nil
}

// parseDuration 支持 "5s" 形式，也接受纯数字（按秒）
func parseDuration(raw string) (time.Duration, error) {
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return time.Duration(n * float64(time.Second)), nil
	}
	return time.ParseDuration(raw)
}

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDurationEnv 解析时长环境变量
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	d, err := parseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s 格式错误: %w", key, err)
	}
	return d, nil
}
