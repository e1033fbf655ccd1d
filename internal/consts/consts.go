package consts

const (
	TRACE_ID = "Trace-Id"

	DEFAULT_BASE_URL         = "https://api.klingai.com"
	DEFAULT_MODEL            = "kling-v1"
	DEFAULT_TOKEN_EXPIRATION = 1800 // 秒, 30分钟
	DEFAULT_TIMEOUT          = 60   // 秒
	DEFAULT_MAX_RETRIES      = 3
)

// 任务类型, 决定接口路径和结果形态
const (
	TASK_KIND_IMAGE2VIDEO      = "image2video"
	TASK_KIND_IMAGE_GENERATION = "image_generation"
)

// 接口路径
const (
	PATH_IMAGE2VIDEO      = "/v1/videos/image2video"
	PATH_IMAGE_GENERATION = "/v1/images/generations"
)

// 分页
const (
	PAGE_NUM_MIN  = 1
	PAGE_SIZE_MIN = 1
	PAGE_SIZE_MAX = 500
)

// 业务错误码
const (
	CODE_OK = 0

	// 鉴权错误 1000-1004
	CODE_AUTH_FAILED       = 1000
	CODE_AUTH_HEADER_EMPTY = 1001
	CODE_AUTH_HEADER_BAD   = 1002
	CODE_TOKEN_INVALID     = 1003
	CODE_TOKEN_EXPIRED     = 1004

	// 账户错误 1100-1103
	CODE_ACCOUNT_EXCEPTION  = 1100
	CODE_ACCOUNT_IN_ARREARS = 1101
	CODE_QUOTA_EXHAUSTED    = 1102
	CODE_NO_PERMISSION      = 1103

	// 参数错误 1200-1203
	CODE_PARAM_INVALID      = 1200
	CODE_PARAM_ILLEGAL      = 1201
	CODE_METHOD_INVALID     = 1202
	CODE_RESOURCE_NOT_FOUND = 1203

	// 策略错误 1300-1304
	CODE_TRIGGER_STRATEGY    = 1300
	CODE_CONTENT_MODERATION  = 1301
	CODE_RATE_LIMIT_RPM      = 1302
	CODE_RATE_LIMIT_PARALLEL = 1303
	CODE_PACKAGE_EXHAUSTED   = 1304

	// 服务错误 5000-5002
	CODE_SERVER_ERROR       = 5000
	CODE_SERVER_UNAVAILABLE = 5001
	CODE_SERVER_TIMEOUT     = 5002
)
