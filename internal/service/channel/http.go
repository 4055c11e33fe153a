package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxErrorBodySize = 512

// NewHTTPClient 提供方共用的 HTTP 客户端，出站请求带上链路追踪
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// providerError 提供方调用失败，会被转换成失败的 SendResult
type providerError struct {
	code    string
	message string
}

func (e *providerError) Error() string {
	return e.code + ": " + e.message
}

// toFailure 把调用过程中的错误转换成失败结果
func toFailure(err error) SendResult {
	var pe *providerError
	if errors.As(err, &pe) {
		return Failed(pe.code, pe.message)
	}
	return Failed(CodeInternalError, err.Error())
}

type httpClient struct {
	client  *http.Client
	baseURL string
	headers map[string]string
}

func newHTTPClient(client *http.Client, baseURL string, headers map[string]string) *httpClient {
	if client == nil {
		client = NewHTTPClient(10 * time.Second)
	}
	return &httpClient{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: headers,
	}
}

// postJSON 非 2xx 返回 HTTP_<状态码>，连接层面的问题返回 NETWORK_ERROR
func (c *httpClient) postJSON(ctx context.Context, path string, body any, result any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("序列化请求失败: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		var ne net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
			return &providerError{code: CodeTimeout, message: err.Error()}
		}
		return &providerError{code: CodeNetworkError, message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return &providerError{
			code:    fmt.Sprintf("HTTP_%d", resp.StatusCode),
			message: strings.TrimSpace(string(respBody)),
		}
	}
	if result != nil {
		if err = json.NewDecoder(resp.Body).Decode(result); err != nil {
			return &providerError{code: CodeInvalidResponse, message: err.Error()}
		}
	}
	return nil
}
