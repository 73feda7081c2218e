package httpx

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
)

// DefaultUserAgent 是浏览器风格的 UA；部分公开 API 会拒绝非浏览器客户端。
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Transport 把“固定 UA + 代理 + keep-alive 策略”固化为统一策略。
//
// 上层（leetcode client）只关心请求内容与响应解析，不关心网络策略细节。
// 不做重试：单条失败由上层跳过。
type Transport struct {
	Base http.RoundTripper

	// UserAgent 会覆盖请求上已有的 UA（包括 HTTP 库自带的默认 UA）。
	UserAgent string

	// DisableKeepAlives 决定是否对 Request 设置 Close=true（额外保险）。
	DisableKeepAlives bool
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	if t.Base == nil {
		return nil, errors.New("nil base transport")
	}

	// Clone：避免在 RoundTripper 内部“污染”调用方的 request。
	r := req.Clone(req.Context())
	if ua := strings.TrimSpace(t.UserAgent); ua != "" {
		r.Header.Set("User-Agent", ua)
	}
	if t.DisableKeepAlives {
		r.Close = true
	}
	return t.Base.RoundTrip(r)
}

// Options 描述一个 client 的网络策略。
type Options struct {
	ProxyURL  string
	UserAgent string
	// Timeout 为 0 表示不设总超时（请求可能无限阻塞）。
	Timeout time.Duration
}

// NewClient 构造带统一策略的 HTTP client。
//
// 规则：
// - proxyURL 非空：必须走代理，且禁用 keep-alive（每请求新连接）
// - UA 固定为 opts.UserAgent（为空时用 DefaultUserAgent）
// - 底层 TLS 指纹按 Cloudflare 友好的方式配置（目标站点在 Cloudflare 之后）
func NewClient(opts Options) (*http.Client, error) {
	base := &http.Transport{
		Proxy:               nil,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	disableKeepAlives := false
	if proxyURL := strings.TrimSpace(opts.ProxyURL); proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, err
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, errors.New("proxy url 缺少 scheme 或 host：" + proxyURL)
		}
		base.Proxy = http.ProxyURL(u)
		// proxy 模式强制每请求新连接（代理池轮换依赖该行为）。
		base.DisableKeepAlives = true
		disableKeepAlives = true
	}

	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = DefaultUserAgent
	}

	tr := &Transport{
		Base:              cloudflarebp.AddCloudFlareByPass(base),
		UserAgent:         ua,
		DisableKeepAlives: disableKeepAlives,
	}
	return &http.Client{
		Transport: tr,
		Timeout:   opts.Timeout,
	}, nil
}
