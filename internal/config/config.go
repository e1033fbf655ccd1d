package config

import (
	"github.com/gogf/gf/v2/encoding/gjson"
	"github.com/gogf/gf/v2/os/gcfg"
	"github.com/gogf/gf/v2/os/gctx"
	"github.com/gogf/gf/v2/os/genv"
	"github.com/gogf/gf/v2/util/gconv"
	"github.com/iimeta/kling/internal/consts"
)

var Cfg *Config

func init() {

	Cfg = &Config{}

	// 配置文件可选, 环境变量优先级最高
	if adapter, err := gcfg.NewAdapterFile(); err == nil && adapter.Available(gctx.New()) {
		if data, err := gcfg.Instance().Data(gctx.New()); err == nil {
			_ = gjson.Unmarshal(gjson.MustEncode(data), &Cfg)
		}
	}

	if accessKey := genv.Get("ACCESSKEY_API").String(); accessKey != "" {
		Cfg.Kling.AccessKey = accessKey
	}

	if secretKey := genv.Get("ACCESSKEY_SECRET").String(); secretKey != "" {
		Cfg.Kling.SecretKey = secretKey
	}

	if baseUrl := genv.Get("KLING_API_BASE_URL").String(); baseUrl != "" {
		Cfg.Kling.BaseUrl = baseUrl
	}

	if tokenExpiration := genv.Get("KLING_TOKEN_EXPIRATION").String(); tokenExpiration != "" {
		Cfg.Kling.TokenExpiration = gconv.Int(tokenExpiration)
	}

	if timeout := genv.Get("KLING_API_TIMEOUT").String(); timeout != "" {
		Cfg.Kling.Timeout = gconv.Int(timeout)
	}

	if maxRetries := genv.Get("KLING_API_MAX_RETRIES").String(); maxRetries != "" {
		Cfg.Kling.MaxRetries = gconv.Int(maxRetries)
	}

	if Cfg.Kling.BaseUrl == "" {
		Cfg.Kling.BaseUrl = consts.DEFAULT_BASE_URL
	}

	if Cfg.Kling.TokenExpiration <= 0 {
		Cfg.Kling.TokenExpiration = consts.DEFAULT_TOKEN_EXPIRATION
	}

	if Cfg.Kling.Timeout <= 0 {
		Cfg.Kling.Timeout = consts.DEFAULT_TIMEOUT
	}

	if Cfg.Kling.MaxRetries <= 0 {
		Cfg.Kling.MaxRetries = consts.DEFAULT_MAX_RETRIES
	}
}

// 配置信息
type Config struct {
	Kling Kling `json:"kling"`
}

type Kling struct {
	AccessKey       string `json:"access_key"`       // 访问密钥AK
	SecretKey       string `json:"secret_key"`       // 访问密钥SK
	BaseUrl         string `json:"base_url"`         // 接口地址
	TokenExpiration int    `json:"token_expiration"` // 鉴权令牌有效期, 单位s
	Timeout         int    `json:"timeout"`          // 单次请求超时时间, 单位s
	MaxRetries      int    `json:"max_retries"`      // 最大重试次数
}
