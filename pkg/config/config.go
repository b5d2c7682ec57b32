package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL      = "http://localhost:8000"
	DefaultCircuitPath  = "/circuit"
	DefaultDynamicsPath = "/dynamics"
	DefaultTimeout      = 60 * time.Second
	DefaultCacheTTL     = 10 * time.Minute
)

// Config はレンダリングサービスへの接続設定です。
type Config struct {
	BaseURL      string        `yaml:"base_url"`
	CircuitPath  string        `yaml:"circuit_path"`
	DynamicsPath string        `yaml:"dynamics_path"`
	Timeout      time.Duration `yaml:"timeout"`

	// AllowPrivateHosts はローカルで動かすサービスから画像を取得するために SSRF チェックを外します。
	AllowPrivateHosts bool          `yaml:"allow_private_hosts"`
	CacheTTL          time.Duration `yaml:"cache_ttl"`
	// DownloadJPEGQuality が 1 以上ならダウンロード画像を JPEG に変換します。
	DownloadJPEGQuality int `yaml:"download_jpeg_quality"`
}

// Default は元のフロントエンドと同じ接続先のデフォルト設定です。
func Default() Config {
	return Config{
		BaseURL:           DefaultBaseURL,
		CircuitPath:       DefaultCircuitPath,
		DynamicsPath:      DefaultDynamicsPath,
		Timeout:           DefaultTimeout,
		AllowPrivateHosts: true,
		CacheTTL:          DefaultCacheTTL,
	}
}

// Load はデフォルト値、YAML ファイル、環境変数の順に設定を重ねます。
// path が空、またはファイルが存在しない場合は YAML を読みません。
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("設定ファイルの読み込みに失敗しました: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("設定ファイル %s の解析に失敗しました: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("QCV_BASE_URL"); ok && v != "" {
		c.BaseURL = v
	}
	if v, ok := lookup("QCV_CIRCUIT_PATH"); ok && v != "" {
		c.CircuitPath = v
	}
	if v, ok := lookup("QCV_DYNAMICS_PATH"); ok && v != "" {
		c.DynamicsPath = v
	}
	if v, ok := lookup("QCV_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("QCV_TIMEOUT: %w", err)
		}
		c.Timeout = d
	}
	if v, ok := lookup("QCV_CACHE_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("QCV_CACHE_TTL: %w", err)
		}
		c.CacheTTL = d
	}
	if v, ok := lookup("QCV_ALLOW_PRIVATE_HOSTS"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("QCV_ALLOW_PRIVATE_HOSTS: %w", err)
		}
		c.AllowPrivateHosts = b
	}
	if v, ok := lookup("QCV_DOWNLOAD_JPEG_QUALITY"); ok && v != "" {
		q, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("QCV_DOWNLOAD_JPEG_QUALITY: %w", err)
		}
		c.DownloadJPEGQuality = q
	}
	return nil
}

// Validate は設定値の整合性を確認します。
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("base_url: host is required")
	}
	for name, p := range map[string]string{"circuit_path": c.CircuitPath, "dynamics_path": c.DynamicsPath} {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("%s: must start with '/'", name)
		}
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout: must not be negative")
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache_ttl: must not be negative")
	}
	if c.DownloadJPEGQuality < 0 || c.DownloadJPEGQuality > 100 {
		return fmt.Errorf("download_jpeg_quality: must be within [0, 100]")
	}
	return nil
}

// CircuitURL は POST /circuit の完全な URL です。
func (c Config) CircuitURL() string {
	return joinURL(c.BaseURL, c.CircuitPath)
}

// DynamicsURL は POST /dynamics の完全な URL です。
func (c Config) DynamicsURL() string {
	return joinURL(c.BaseURL, c.DynamicsPath)
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + path
}
