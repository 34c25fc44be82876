package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// DefaultTTL 默认有效期 30 天
const DefaultTTL = 30 * 24 * time.Hour

// TokenService 签发/校验身份令牌。payload 只有 sub（用户 ID），角色每次请求回库查询。
type TokenService struct {
	Secret []byte
	Issuer string        // 可选，为空则不写 iss 也不校验
	TTL    time.Duration // <=0 时使用 DefaultTTL
	Leeway time.Duration

	Now func() time.Time // 测试注入时钟
}

func NewTokenService(secret, issuer string, ttl time.Duration) *TokenService {
	return &TokenService{Secret: []byte(secret), Issuer: issuer, TTL: ttl}
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *TokenService) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultTTL
	}
	return s.TTL
}

// Issue 为 userID 签发 HS256 令牌
func (s *TokenService) Issue(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("empty subject")
	}
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    s.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl())),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
}

// Verify 校验签名与过期时间，返回 subject。
// 不检查用户是否仍然存在，由调用方负责。
func (s *TokenService) Verify(tokenStr string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
		jwt.WithLeeway(s.Leeway),
	}
	if s.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.Issuer))
	}

	var claims jwt.RegisteredClaims
	t, err := jwt.ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (interface{}, error) {
		return s.Secret, nil
	}, opts...)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", ErrTokenExpired
	case err != nil:
		return "", ErrInvalidToken
	case !t.Valid || claims.Subject == "":
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
