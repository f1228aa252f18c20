package user

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	accessTokenTTL  = 180 * time.Minute
	refreshTokenTTL = 24 * time.Hour

	refreshTokenType = "refresh"
)

// Claims are the JWT claims carried by access and refresh tokens.
type Claims struct {
	UserID    string `json:"user_id"`
	Role      Role   `json:"role,omitempty"`
	TokenType string `json:"token_type,omitempty"`
	jwt.RegisteredClaims
}

// Pair is an issued access/refresh token pair.
type Pair struct {
	Access       string
	Refresh      string
	AccessExpiry time.Time
}

// TokenIssuer mints and verifies the HS256 token pair.
type TokenIssuer struct {
	secret []byte
}

// NewTokenIssuer creates an issuer signing with the given secret.
func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret)}
}

// Issue mints a token pair for an account. The access token carries
// the user id and role; the refresh token carries only the user id.
func (ti *TokenIssuer) Issue(u *User) (*Pair, error) {
	now := time.Now().UTC()
	accessExpiry := now.Add(accessTokenTTL)

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: u.ID,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExpiry),
		},
	})
	signedAccess, err := access.SignedString(ti.secret)
	if err != nil {
		return nil, fmt.Errorf("signing access token: %w", err)
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID:    u.ID,
		TokenType: refreshTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(refreshTokenTTL)),
		},
	})
	signedRefresh, err := refresh.SignedString(ti.secret)
	if err != nil {
		return nil, fmt.Errorf("signing refresh token: %w", err)
	}

	return &Pair{
		Access:       signedAccess,
		Refresh:      signedRefresh,
		AccessExpiry: accessExpiry,
	}, nil
}

// Verify parses a token and returns its claims.
func (ti *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return ti.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifyAccess parses an access token, rejecting refresh tokens.
func (ti *TokenIssuer) VerifyAccess(tokenString string) (*Claims, error) {
	claims, err := ti.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifyRefresh parses a refresh token, rejecting access tokens.
func (ti *TokenIssuer) VerifyRefresh(tokenString string) (*Claims, error) {
	claims, err := ti.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != refreshTokenType {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
