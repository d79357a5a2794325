// Package fetch 下载远程页面
package fetch

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

const (
	DefaultTimeout      = 15 * time.Second
	DefaultMaxBodyBytes = 10 << 20
	DefaultUserAgent    = "faleproxy/1.0"
)

// ErrInvalidURL URL 不是合法的 http/https 地址
var ErrInvalidURL = errors.New("invalid URL")

// Config 下载配置
type Config struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
	UserAgent    string        `mapstructure:"user_agent"`
}

// DefaultConfig 返回默认下载配置
func DefaultConfig() Config {
	return Config{
		Timeout:      DefaultTimeout,
		MaxBodyBytes: DefaultMaxBodyBytes,
		UserAgent:    DefaultUserAgent,
	}
}

// Page 下载得到的页面
type Page struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        string
}

// Fetcher 获取页面内容
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Page, error)
}

// HTTPFetcher 基于 net/http 的 Fetcher，不做重试和缓存
type HTTPFetcher struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

// New 创建 HTTPFetcher
func New(config Config, logger *zap.Logger) *HTTPFetcher {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &HTTPFetcher{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger,
	}
}

// Fetch 下载 rawURL 并将响应体按声明的字符集解码为 UTF-8
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	target, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "request %s", target.Redacted())
	}
	defer resp.Body.Close()

	f.logger.Debug("fetched page",
		zap.String("url", target.Redacted()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Newf("request failed with status code %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	// 限制作用于原始字节，解码后长度可能变化
	raw, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBodyBytes+1))
	if err != nil {
		return nil, errors.Wrap(err, "read response body")
	}
	if int64(len(raw)) > f.config.MaxBodyBytes {
		return nil, errors.Newf("response body exceeds %d bytes", f.config.MaxBodyBytes)
	}

	reader, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		return nil, errors.Wrap(err, "detect charset")
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "decode response body")
	}

	return &Page{
		URL:         target.String(),
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Body:        string(body),
	}, nil
}

// ParseURL 校验 rawURL 为带主机名的 http/https 绝对地址
func ParseURL(rawURL string) (*url.URL, error) {
	rawURL = strings.TrimSpace(rawURL)
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "invalid URL %q", rawURL), ErrInvalidURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Mark(errors.Newf("invalid URL %q: unsupported scheme %q", rawURL, u.Scheme), ErrInvalidURL)
	}
	if u.Host == "" {
		return nil, errors.Mark(errors.Newf("invalid URL %q: missing host", rawURL), ErrInvalidURL)
	}
	return u, nil
}

// Validate 校验下载配置
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&c.MaxBodyBytes, validation.Min(int64(0))),
	)
}
