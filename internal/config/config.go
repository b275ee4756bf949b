package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server  ServerConfig
	Store   StoreConfig
	Auth    AuthConfig
	Metrics MetricsConfig
	Widget  WidgetConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	store, err := loadStoreConfig()
	if err != nil {
		return nil, err
	}

	auth, err := loadAuthConfig()
	if err != nil {
		return nil, err
	}

	metricsEnabled, err := parseBoolEnv("METRICS_ENABLED", true)
	if err != nil {
		return nil, err
	}

	widget, err := loadWidgetConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:  server,
		Store:   store,
		Auth:    auth,
		Metrics: MetricsConfig{Enabled: metricsEnabled},
		Widget:  widget,
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// StoreConfig 描述会话存储后端。
type StoreConfig struct {
	Driver string // memory, sqlite 或 postgres
	DSN    string
}

func loadStoreConfig() (StoreConfig, error) {
	driver := strings.ToLower(getEnvOrDefault("STORE_DRIVER", "sqlite"))
	switch driver {
	case "memory", "sqlite", "postgres":
	default:
		return StoreConfig{}, fmt.Errorf("invalid STORE_DRIVER value %q", driver)
	}

	dsn := getEnvOrDefault("STORE_DSN", "workcity-chat.db")
	if driver == "postgres" && strings.TrimSpace(os.Getenv("STORE_DSN")) == "" {
		return StoreConfig{}, fmt.Errorf("STORE_DSN is required for the postgres driver")
	}

	return StoreConfig{Driver: driver, DSN: dsn}, nil
}

// AuthConfig maps bearer tokens to the capabilities they grant.
type AuthConfig struct {
	Tokens map[string][]string
}

// loadAuthConfig 解析 AUTH_TOKENS，格式为 "token=cap|cap,token2=cap"。
func loadAuthConfig() (AuthConfig, error) {
	tokens, err := parseTokens(os.Getenv("AUTH_TOKENS"))
	if err != nil {
		return AuthConfig{}, err
	}
	return AuthConfig{Tokens: tokens}, nil
}

func parseTokens(raw string) (map[string][]string, error) {
	tokens := make(map[string][]string)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		token, caps, ok := strings.Cut(entry, "=")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			return nil, fmt.Errorf("invalid AUTH_TOKENS entry %q: want token=capability", entry)
		}

		for _, c := range strings.Split(caps, "|") {
			if c = strings.TrimSpace(c); c != "" {
				tokens[token] = append(tokens[token], c)
			}
		}
		if len(tokens[token]) == 0 {
			return nil, fmt.Errorf("invalid AUTH_TOKENS entry %q: no capabilities", entry)
		}
	}
	return tokens, nil
}

// MetricsConfig 控制 /metrics 端点。
type MetricsConfig struct {
	Enabled bool
}

// WidgetConfig 描述命令行聊天窗口的配置。
type WidgetConfig struct {
	APIURL           string
	LiveURL          string // 为空时直接使用离线模式
	AuthToken        string
	CurrentUser      string
	ContextLabel     string
	HandshakeTimeout time.Duration
	ReplyDelay       time.Duration
	AutoSession      bool
}

func loadWidgetConfig() (WidgetConfig, error) {
	handshake, err := parseDurationEnv("WIDGET_HANDSHAKE_TIMEOUT", 2*time.Second)
	if err != nil {
		return WidgetConfig{}, err
	}

	replyDelay, err := parseDurationEnv("WIDGET_REPLY_DELAY", time.Second)
	if err != nil {
		return WidgetConfig{}, err
	}

	autoSession, err := parseBoolEnv("WIDGET_AUTO_SESSION", false)
	if err != nil {
		return WidgetConfig{}, err
	}

	return WidgetConfig{
		APIURL:           getEnvOrDefault("WIDGET_API_URL", "http://localhost:8080/api"),
		LiveURL:          strings.TrimSpace(os.Getenv("WIDGET_LIVE_URL")),
		AuthToken:        strings.TrimSpace(os.Getenv("WIDGET_AUTH_TOKEN")),
		CurrentUser:      strings.TrimSpace(os.Getenv("WIDGET_CURRENT_USER")),
		ContextLabel:     getEnvOrDefault("WIDGET_CONTEXT_LABEL", "Web"),
		HandshakeTimeout: handshake,
		ReplyDelay:       replyDelay,
		AutoSession:      autoSession,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

// parseDurationEnv 接受 "1500ms" 这类写法，纯数字按毫秒处理。
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	millis, err := parseOptionalIntEnv(key)
	if err == nil {
		if millis == nil {
			return defaultValue, nil
		}
		if *millis < 0 {
			return 0, fmt.Errorf("invalid %s value %d: must not be negative", key, *millis)
		}
		return time.Duration(*millis) * time.Millisecond, nil
	}

	raw := strings.TrimSpace(os.Getenv(key))
	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val < 0 {
		return 0, fmt.Errorf("invalid %s value %q: must not be negative", key, raw)
	}
	return val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
