package auth

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/iimeta/kling/internal/errors"
	"github.com/iimeta/kling/utility/logger"
)

// 时钟偏移容忍, nbf回拨量
const notBeforeSkew = 5 * time.Second

// 鉴权令牌签发器, 把长期AK/SK换成短期JWT, 并在有效期内缓存复用
type Signer struct {
	accessKey  string
	secretKey  []byte
	expiration time.Duration

	mutex     sync.Mutex
	token     string
	issuedAt  time.Time
	expiresAt time.Time

	// 可注入的时钟, 便于测试
	now func() time.Time
}

func NewSigner(accessKey, secretKey string, expiration time.Duration) (*Signer, error) {

	if accessKey == "" {
		return nil, errors.ERR_MISSING_ACCESS_KEY
	}

	if secretKey == "" {
		return nil, errors.ERR_MISSING_SECRET_KEY
	}

	return &Signer{
		accessKey:  accessKey,
		secretKey:  []byte(secretKey),
		expiration: expiration,
		now:        time.Now,
	}, nil
}

// 获取一个可用的鉴权令牌, 剩余有效期超过换签余量时直接复用缓存
// 换签余量为有效期的10%, 以容忍时钟偏移和请求在途时间
func (s *Signer) Token(ctx context.Context) (string, error) {

	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.now()

	if s.token != "" && now.Before(s.expiresAt.Add(-s.expiration/10)) {
		return s.token, nil
	}

	logger.Debugf(ctx, "signer generating new token, accessKey: %s", s.accessKey)

	claims := jwt.RegisteredClaims{
		Issuer:    s.accessKey,
		ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
		NotBefore: jwt.NewNumericDate(now.Add(-notBeforeSkew)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretKey)
	if err != nil {
		return "", err
	}

	s.token = token
	s.issuedAt = now
	s.expiresAt = now.Add(s.expiration)

	return s.token, nil
}

// 丢弃缓存的令牌, 下次Token()时重新签发, 服务端拒绝鉴权后调用
func (s *Signer) Renew(ctx context.Context) {

	s.mutex.Lock()
	defer s.mutex.Unlock()

	logger.Warningf(ctx, "signer renew forced, accessKey: %s", s.accessKey)

	s.token = ""
}
