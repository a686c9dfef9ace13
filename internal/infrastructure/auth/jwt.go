package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ratewise/feedback-system/internal/core/domain"
	"github.com/ratewise/feedback-system/internal/core/ports"
)

// JWTManager implements ports.TokenManager with HS256 signed tokens.
type JWTManager struct {
	secret   []byte
	tokenTTL time.Duration
}

func NewJWTManager(secret string, tokenTTL time.Duration) *JWTManager {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &JWTManager{secret: []byte(secret), tokenTTL: tokenTTL}
}

func (m *JWTManager) Sign(payload ports.TokenPayload) (string, error) {
	claims := jwt.MapClaims{
		"userId":   payload.UserID,
		"username": payload.Username,
		"exp":      time.Now().Add(m.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.secret)
}

// VerifyAndDecode folds every verification fault into domain.ErrInvalidToken;
// callers at the boundary only need the one rejection.
func (m *JWTManager) VerifyAndDecode(token string) (*ports.TokenPayload, error) {
	if token == "" {
		return nil, domain.ErrInvalidToken
	}

	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return m.secret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, domain.ErrInvalidToken
	}

	userID, _ := claims["userId"].(string)
	username, _ := claims["username"].(string)
	return &ports.TokenPayload{UserID: userID, Username: username}, nil
}
