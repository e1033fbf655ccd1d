package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/iimeta/kling/internal/consts"
)

type IKlingError interface {
	Unwrap() error
	Status() int
	ErrCode() int
	ErrMessage() string
	RequestId() string
}

// 接口错误, 携带HTTP状态码/业务错误码/请求Id
type ApiError struct {
	HttpStatusCode int    `json:"status"`
	Code           int    `json:"code"`
	Message        string `json:"message"`
	ReqId          string `json:"request_id,omitempty"`
}

type KlingError struct {
	Err *ApiError `json:"error,omitempty"`
}

var (
	ERR_NIL                = NewError(500, -1, "")
	ERR_UNKNOWN            = NewError(500, -1, "Unknown Error.")
	ERR_MISSING_ACCESS_KEY = NewError(500, -1, "access key is required")
	ERR_MISSING_SECRET_KEY = NewError(500, -1, "secret key is required")
	ERR_INVALID_PARAMETER  = NewError(400, consts.CODE_PARAM_INVALID, "Invalid Parameter.")
	ERR_NOT_FOUND          = NewError(404, consts.CODE_RESOURCE_NOT_FOUND, "The requested resource does not exist.")
	ERR_AUTH_FAILED        = NewError(401, consts.CODE_AUTH_FAILED, "Authentication failed.")
	ERR_TOKEN_EXPIRED      = NewError(401, consts.CODE_TOKEN_EXPIRED, "Authentication token has expired.")
	ERR_RATE_LIMIT         = NewError(429, consts.CODE_RATE_LIMIT_RPM, "Requests are too frequent.")
	ERR_INTERNAL_ERROR     = NewError(500, consts.CODE_SERVER_ERROR, "Internal Error.")
)

func NewError(status, code int, message string) error {
	return &KlingError{
		Err: &ApiError{
			HttpStatusCode: status,
			Code:           code,
			Message:        message,
		},
	}
}

func NewErrorWithRequestId(status, code int, message, requestId string) error {
	return &KlingError{
		Err: &ApiError{
			HttpStatusCode: status,
			Code:           code,
			Message:        message,
			ReqId:          requestId,
		},
	}
}

func (e *KlingError) Error() string {
	if e.Err.ReqId != "" {
		return fmt.Sprintf("statusCode: %d, code: %d, message: %s, requestId: %s", e.Err.HttpStatusCode, e.Err.Code, e.Err.Message, e.Err.ReqId)
	}
	return fmt.Sprintf("statusCode: %d, code: %d, message: %s", e.Err.HttpStatusCode, e.Err.Code, e.Err.Message)
}

func (e *KlingError) Unwrap() error {
	return e.Err
}

func (e *KlingError) Status() int {
	return e.Err.HttpStatusCode
}

func (e *KlingError) ErrCode() int {
	return e.Err.Code
}

func (e *KlingError) ErrMessage() string {
	return e.Err.Message
}

func (e *KlingError) RequestId() string {
	return e.Err.ReqId
}

func (e *ApiError) Error() string {
	return fmt.Sprintf("statusCode: %d, code: %d, message: %s", e.HttpStatusCode, e.Code, e.Message)
}

// 鉴权错误: HTTP 401 或业务错误码 1000-1004, 触发强制换签后额外重试一次
func IsAuthError(err error) bool {

	e := &KlingError{}
	if !As(err, &e) {
		return false
	}

	if e.Status() == http.StatusUnauthorized {
		return true
	}

	return e.ErrCode() >= consts.CODE_AUTH_FAILED && e.ErrCode() <= consts.CODE_TOKEN_EXPIRED
}

// 可重试错误: HTTP 429/5xx, 限流类业务错误码和服务端业务错误码
func IsRetryableError(err error) bool {

	e := &KlingError{}
	if !As(err, &e) {
		// 非接口错误按网络错误处理, 可重试
		return err != nil
	}

	if e.Status() == http.StatusTooManyRequests || e.Status() >= 500 {
		return true
	}

	switch e.ErrCode() {
	case consts.CODE_RATE_LIMIT_RPM, consts.CODE_RATE_LIMIT_PARALLEL,
		consts.CODE_SERVER_ERROR, consts.CODE_SERVER_UNAVAILABLE, consts.CODE_SERVER_TIMEOUT:
		return true
	}

	return false
}

func IsNotFoundError(err error) bool {

	e := &KlingError{}
	if !As(err, &e) {
		return false
	}

	return e.Status() == http.StatusNotFound || e.ErrCode() == consts.CODE_RESOURCE_NOT_FOUND
}

func New(text string) error {
	return errors.New(text)
}

func Newf(format string, args ...interface{}) error {
	return errors.New(fmt.Sprintf(format, args...))
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}
