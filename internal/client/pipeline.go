package client

import (
	"context"
	"net/http"
	"time"

	"github.com/gogf/gf/v2/encoding/gjson"
	"github.com/gogf/gf/v2/frame/g"
	"github.com/gogf/gf/v2/os/gctx"
	"github.com/gogf/gf/v2/util/grand"
	"github.com/iimeta/kling/internal/auth"
	"github.com/iimeta/kling/internal/consts"
	"github.com/iimeta/kling/internal/errors"
	"github.com/iimeta/kling/utility/logger"
)

// 重试策略, 配置值, 无可变状态
type RetryPolicy struct {
	MaxAttempts int           // 最大尝试次数, 含首次请求
	BaseDelay   time.Duration // 首次退避时长
	MaxDelay    time.Duration // 退避时长上限
	Timeout     time.Duration // 单次逻辑调用的总超时, 与尝试次数无关
}

func DefaultRetryPolicy(maxRetries int, timeout time.Duration) RetryPolicy {

	if maxRetries <= 0 {
		maxRetries = 1
	}

	return RetryPolicy{
		MaxAttempts: maxRetries,
		BaseDelay:   2 * time.Second,
		MaxDelay:    10 * time.Second,
		Timeout:     timeout,
	}
}

// 请求管道, 执行一次逻辑调用: 附加鉴权, 分类响应结果, 按策略重试
type pipeline struct {
	baseUrl string
	signer  *auth.Signer
	policy  RetryPolicy
}

// 执行一次逻辑调用, 成功返回响应中的data部分
// idempotent为false时(创建类调用)仅对未到达服务端的失败和限流重试
func (p *pipeline) Request(ctx context.Context, method, path string, query map[string]string, body interface{}, idempotent bool) (*gjson.Json, error) {

	if p.policy.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.policy.Timeout)
		defer cancel()
	}

	var (
		lastErr     error
		authRetried bool
		attempt     = 1
	)

	for {

		data, err := p.do(ctx, method, path, query, body)
		if err == nil {
			return data, nil
		}

		lastErr = err

		// 鉴权失败强制换签, 在正常重试预算之外额外重试一次, 不复用被拒绝的令牌
		if errors.IsAuthError(err) {
			if authRetried {
				return nil, err
			}
			authRetried = true
			p.signer.Renew(ctx)
			logger.Warningf(ctx, "pipeline auth error, token renewed, retrying, error: %v", err)
			continue
		}

		if !p.retryable(err, idempotent) || attempt >= p.policy.MaxAttempts {
			return nil, err
		}

		delay := p.backoff(attempt)
		logger.Debugf(ctx, "pipeline attempt %d/%d failed, retrying in %s, error: %v", attempt, p.policy.MaxAttempts, delay, err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, lastErr
		case <-timer.C:
		}

		attempt++
	}
}

// 发出一次HTTP请求并分类结果
func (p *pipeline) do(ctx context.Context, method, path string, query map[string]string, body interface{}) (*gjson.Json, error) {

	token, err := p.signer.Token(ctx)
	if err != nil {
		return nil, err
	}

	client := g.Client().
		SetHeader("Authorization", "Bearer "+token).
		SetHeader(consts.TRACE_ID, gctx.CtxId(ctx))

	url := p.baseUrl + path

	var response *gclientResponse

	switch method {
	case http.MethodGet:
		resp, err := client.Get(ctx, url, toGetParams(query))
		if err != nil {
			return nil, err
		}
		response = &gclientResponse{resp.StatusCode, resp.ReadAllString()}
		_ = resp.Close()
	case http.MethodPost:
		resp, err := client.ContentJson().Post(ctx, url, body)
		if err != nil {
			return nil, err
		}
		response = &gclientResponse{resp.StatusCode, resp.ReadAllString()}
		_ = resp.Close()
	default:
		return nil, errors.Newf("unsupported method: %s", method)
	}

	result, err := gjson.LoadContent([]byte(response.body))
	if err != nil || result == nil {
		return nil, errors.NewError(response.statusCode, -1, "invalid response body: "+response.body)
	}

	code := result.Get("code").Int()

	if response.statusCode == http.StatusOK && code == 0 {
		return result.GetJson("data"), nil
	}

	message := result.Get("message").String()
	if message == "" {
		message = http.StatusText(response.statusCode)
	}

	return nil, errors.NewErrorWithRequestId(response.statusCode, code, message, result.Get("request_id").String())
}

type gclientResponse struct {
	statusCode int
	body       string
}

func (p *pipeline) retryable(err error, idempotent bool) bool {

	if !errors.IsRetryableError(err) {
		return false
	}

	if idempotent {
		return true
	}

	// 创建类调用不幂等, 服务端5xx可能已产生副作用, 仅限流和未到达的失败可安全重发
	e := &errors.KlingError{}
	if !errors.As(err, &e) {
		// 连接失败/超时, 请求未被处理
		return true
	}

	return e.Status() == http.StatusTooManyRequests
}

// 指数退避加随机抖动, 上限MaxDelay
func (p *pipeline) backoff(attempt int) time.Duration {

	delay := p.policy.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.policy.MaxDelay {
			delay = p.policy.MaxDelay
			break
		}
	}

	if delay > p.policy.MaxDelay {
		delay = p.policy.MaxDelay
	}

	jitter := time.Duration(grand.N(0, int(delay/4/time.Millisecond))) * time.Millisecond

	return delay + jitter
}

func toGetParams(query map[string]string) g.Map {

	if len(query) == 0 {
		return nil
	}

	params := g.Map{}
	for k, v := range query {
		params[k] = v
	}

	return params
}
