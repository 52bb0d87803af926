package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"digithesis/internal/access"
	"digithesis/internal/model"
)

const (
	// DefaultAccessTokenExpiry is used when no lifetime is configured.
	DefaultAccessTokenExpiry = time.Hour
	// RefreshTokenExpiry is the duration for which refresh tokens are valid.
	RefreshTokenExpiry = 7 * 24 * time.Hour

	issuer = "digithesis"

	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

var (
	// ErrInvalidToken is returned for tampered, malformed or wrongly signed tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned when a token is past its expiry.
	ErrTokenExpired = errors.New("token has expired")
	// ErrTokenRevoked is returned for access tokens blacklisted at logout.
	ErrTokenRevoked = errors.New("token has been revoked")
	// ErrTokenStale is returned for access tokens issued before a role change.
	ErrTokenStale = errors.New("token predates a role change")
)

// Claims represents JWT claims.
type Claims struct {
	UserID    string     `json:"user_id"`
	Username  string     `json:"username,omitempty"`
	Email     string     `json:"email,omitempty"`
	Role      model.Role `json:"role,omitempty"`
	TokenType string     `json:"typ"`
	jwt.RegisteredClaims
}

// Requester converts verified claims into the identity used for access
// decisions.
func (c *Claims) Requester() *access.Requester {
	id, err := uuid.Parse(c.UserID)
	if err != nil {
		return nil
	}
	return &access.Requester{ID: id, Role: c.Role}
}

// JWTService handles JWT token generation and validation.
type JWTService struct {
	secret    []byte
	accessTTL time.Duration
}

// NewJWTService creates a new JWT service with the given secret and access
// token lifetime.
func NewJWTService(secret string, accessTTL time.Duration) *JWTService {
	if accessTTL == 0 {
		accessTTL = DefaultAccessTokenExpiry
	}
	return &JWTService{
		secret:    []byte(secret),
		accessTTL: accessTTL,
	}
}

// AccessTTL returns the configured access token lifetime.
func (s *JWTService) AccessTTL() time.Duration {
	return s.accessTTL
}

// Issue generates a signed access token for the user.
func (s *JWTService) Issue(user *model.User) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		UserID:    user.ID.String(),
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

// IssueRefresh generates a refresh token for the user.
// The refresh token ID is returned separately for storage in Redis.
func (s *JWTService) IssueRefresh(user *model.User) (tokenID string, token string, err error) {
	now := time.Now()
	tokenID = uuid.NewString()
	claims := &Claims{
		UserID:    user.ID.String(),
		TokenType: tokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Issuer:    issuer,
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(RefreshTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	return tokenID, token, err
}

// Verify validates an access token and returns its claims.
func (s *JWTService) Verify(tokenString string) (*Claims, error) {
	return s.parse(tokenString, tokenTypeAccess)
}

// VerifyRefresh validates a refresh token and returns its claims.
func (s *JWTService) VerifyRefresh(tokenString string) (*Claims, error) {
	return s.parse(tokenString, tokenTypeRefresh)
}

func (s *JWTService) parse(tokenString, tokenType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.TokenType != tokenType {
		return nil, ErrInvalidToken
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
