package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	UserTypeCompany = "company"
	UserTypeCashier = "cashier"

	blacklistPrefix = "auth:blacklist:"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UserType  string `json:"user_type"`
	CompanyID string `json:"company_id"`
	CashierID string `json:"cashier_id,omitempty"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	secret []byte
	ttl    time.Duration
	redis  *redis.Client
}

func NewTokenManager(secret string, ttl time.Duration, redisClient *redis.Client) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		redis:  redisClient,
	}
}

func (m *TokenManager) GenerateCompanyToken(companyID, username string) (string, time.Time, error) {
	return m.generate(&Claims{
		UserType:  UserTypeCompany,
		CompanyID: companyID,
	}, username)
}

func (m *TokenManager) GenerateCashierToken(cashierID, companyID, username string) (string, time.Time, error) {
	return m.generate(&Claims{
		UserType:  UserTypeCashier,
		CompanyID: companyID,
		CashierID: cashierID,
	}, username)
}

func (m *TokenManager) generate(claims *Claims, subject string) (string, time.Time, error) {
	exp := time.Now().Add(m.ttl)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		Subject:   subject,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(m.secret)
	return s, exp, err
}

func (m *TokenManager) ParseToken(ctx context.Context, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	// Fail closed: without the blacklist we cannot tell a revoked token
	// from a live one.
	blacklisted, err := m.redis.Exists(ctx, blacklistPrefix+claims.ID).Result()
	if err != nil {
		return nil, fmt.Errorf("revocation check: %w", err)
	}
	if blacklisted > 0 {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Revoke blacklists the token's jti until its natural expiry.
func (m *TokenManager) Revoke(ctx context.Context, claims *Claims) error {
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	return m.redis.Set(ctx, blacklistPrefix+claims.ID, "1", ttl).Err()
}
