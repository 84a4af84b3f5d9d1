package pushover

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Outcome 一次投递的结果分类，只有 OutcomeDelivered 算成功。
type Outcome int

const (
	// OutcomeTransportFailure 无法连接推送接口（网络错误、超时）。
	OutcomeTransportFailure Outcome = iota
	// OutcomeRejected 接口可达，但返回了非 2xx 状态码。
	OutcomeRejected
	// OutcomeAcceptedButFailed 状态码成功，但响应体报告失败。
	OutcomeAcceptedButFailed
	// OutcomeDelivered 传输和响应体都成功。
	OutcomeDelivered
)

var outcomeNames = [...]string{
	"transport_failure",
	"rejected",
	"accepted_but_failed",
	"delivered",
}

func (o Outcome) String() string {
	if int(o) >= 0 && int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return "unknown"
}

// Result 一次投递的完整结果，失败时携带诊断信息。
type Result struct {
	Outcome    Outcome
	StatusCode int
	Request    string   // 接口返回的请求 ID
	Errors     []string // 接口返回的错误列表
	Err        error    // 传输或解析错误
}

// Delivered 是否投递成功。
func (r Result) Delivered() bool {
	return r.Outcome == OutcomeDelivered
}

// response 推送接口响应体。
type response struct {
	Status  int      `json:"status"`
	Request string   `json:"request"`
	Errors  []string `json:"errors"`
}

// Client Pushover API 客户端。
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient 创建客户端。httpClient 为 nil 时使用不带超时的默认客户端。
func NewClient(endpoint string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: httpClient,
	}
}

// Send 提交一条消息并对结果分类。不重试，也不返回 error：
// 所有失败都体现在 Result 中。
func (c *Client) Send(ctx context.Context, msg Message) Result {
	body, err := json.Marshal(msg.normalize())
	if err != nil {
		return Result{Outcome: OutcomeTransportFailure, Err: fmt.Errorf("序列化请求体失败: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{Outcome: OutcomeTransportFailure, Err: fmt.Errorf("创建请求失败: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{Outcome: OutcomeTransportFailure, Err: fmt.Errorf("请求失败: %w", err)}
	}
	defer resp.Body.Close()

	data, readErr := io.ReadAll(resp.Body)
	res := Result{StatusCode: resp.StatusCode}

	var r response
	decodeErr := readErr
	if decodeErr == nil {
		decodeErr = json.Unmarshal(data, &r)
	}
	if decodeErr == nil {
		res.Request = r.Request
		res.Errors = r.Errors
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		res.Outcome = OutcomeRejected
		if decodeErr != nil {
			res.Err = fmt.Errorf("API 错误 (状态码 %d): %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}
		return res
	}

	if decodeErr != nil {
		res.Outcome = OutcomeAcceptedButFailed
		res.Err = fmt.Errorf("解析响应失败: %w", decodeErr)
		return res
	}
	if r.Status != 1 {
		res.Outcome = OutcomeAcceptedButFailed
		return res
	}

	res.Outcome = OutcomeDelivered
	return res
}
