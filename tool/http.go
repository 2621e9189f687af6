package tool

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/loomlabs/loom"
)

// HTTPToolOption configures the HTTP request tool.
type HTTPToolOption func(*httpToolConfig)

type httpToolConfig struct {
	client          *http.Client
	allowedHosts    []string
	blockedHosts    []string
	maxResponseSize int64
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client *http.Client) HTTPToolOption {
	return func(c *httpToolConfig) {
		c.client = client
	}
}

// WithAllowedHosts restricts requests to the given hosts.
// An empty list allows any host not explicitly blocked.
func WithAllowedHosts(hosts ...string) HTTPToolOption {
	return func(c *httpToolConfig) {
		c.allowedHosts = hosts
	}
}

// WithBlockedHosts rejects requests to the given hosts.
func WithBlockedHosts(hosts ...string) HTTPToolOption {
	return func(c *httpToolConfig) {
		c.blockedHosts = hosts
	}
}

// WithMaxResponseSize caps how many bytes of the response body are
// returned. Default is 256KB.
func WithMaxResponseSize(bytes int64) HTTPToolOption {
	return func(c *httpToolConfig) {
		c.maxResponseSize = bytes
	}
}

type httpArgs struct {
	URL     string            `json:"url" desc:"The URL to request, must start with http:// or https://" required:"true"`
	Method  string            `json:"method" desc:"HTTP method" enum:"GET,POST,PUT,PATCH,DELETE,HEAD"`
	Body    string            `json:"body" desc:"Request body to send"`
	Headers map[string]string `json:"headers" desc:"Additional request headers"`
}

// NewHTTPTool creates a tool that performs HTTP requests and returns
// the status line, selected headers, and the response body.
// The tool is marked dangerous.
func NewHTTPTool(opts ...HTTPToolOption) (loom.Definition, Handler) {
	cfg := &httpToolConfig{
		client:          &http.Client{Timeout: 30 * time.Second},
		maxResponseSize: 256 * 1024,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	def, h := MustBind("http_request",
		"Make an HTTP request to a URL and return the response status, headers, and body. "+
			"Defaults to GET when no method is given.",
		func(ctx context.Context, args httpArgs) (string, error) {
			if !strings.HasPrefix(args.URL, "http://") && !strings.HasPrefix(args.URL, "https://") {
				return "", fmt.Errorf("URL must start with http:// or https://")
			}

			parsed, err := url.Parse(args.URL)
			if err != nil {
				return "", fmt.Errorf("invalid URL: %w", err)
			}
			if err := cfg.checkHost(parsed.Hostname()); err != nil {
				return "", err
			}

			method := strings.ToUpper(args.Method)
			if method == "" {
				method = http.MethodGet
			}

			var body io.Reader
			if args.Body != "" {
				body = strings.NewReader(args.Body)
			}

			req, err := http.NewRequestWithContext(ctx, method, args.URL, body)
			if err != nil {
				return "", err
			}
			for k, v := range args.Headers {
				req.Header.Set(k, v)
			}

			resp, err := cfg.client.Do(req)
			if err != nil {
				return "", err
			}
			defer resp.Body.Close()

			data, err := io.ReadAll(io.LimitReader(resp.Body, cfg.maxResponseSize))
			if err != nil {
				return "", err
			}

			return formatHTTPResponse(resp, data), nil
		})
	def.Dangerous = true
	return def, h
}

func (c *httpToolConfig) checkHost(host string) error {
	for _, blocked := range c.blockedHosts {
		if strings.EqualFold(host, blocked) {
			return fmt.Errorf("host %q is blocked", host)
		}
	}
	if len(c.allowedHosts) == 0 {
		return nil
	}
	for _, allowed := range c.allowedHosts {
		if strings.EqualFold(host, allowed) {
			return nil
		}
	}
	return fmt.Errorf("host %q is not in the allowed list", host)
}

func formatHTTPResponse(resp *http.Response, body []byte) string {
	var b strings.Builder
	fmt.Fprintf(&b, "HTTP %s\n", resp.Status)

	for _, key := range []string{"Content-Type", "Content-Length", "Date", "Server"} {
		if v := resp.Header.Get(key); v != "" {
			fmt.Fprintf(&b, "%s: %s\n", key, v)
		}
	}

	b.WriteString("\n")
	b.Write(body)
	return b.String()
}
