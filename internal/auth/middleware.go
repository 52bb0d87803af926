package auth

import (
	"errors"
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"digithesis/internal/access"
	apperrors "digithesis/internal/errors"
)

// TokenHeader is the header the web client sends its access token in.
// "Authorization: Bearer <token>" is accepted as well.
const TokenHeader = "x-auth-token"

const claimsContextKey = "auth.claims"

// Middleware verifies the access token on each request and stores its claims
// in the echo context. With optional set, requests without a token continue
// as anonymous; a token that is present but invalid is always rejected.
func Middleware(jwtService *JWTService, tokens TokenStoreInterface, optional bool) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		TokenLookup: "header:" + TokenHeader + ",header:" + echo.HeaderAuthorization + ":Bearer ",
		ContextKey:  claimsContextKey,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			claims, err := jwtService.Verify(token)
			if err != nil {
				return nil, err
			}
			ctx := c.Request().Context()
			if revoked, _ := tokens.IsAccessTokenBlacklisted(ctx, claims.ID); revoked {
				return nil, ErrTokenRevoked
			}
			if claims.IssuedAt != nil {
				if stale, _ := tokens.RoleChangedAfter(ctx, claims.UserID, claims.IssuedAt.Time); stale {
					return nil, ErrTokenStale
				}
			}
			return claims, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			if optional && errors.Is(err, echojwt.ErrJWTMissing) {
				return nil
			}
			message := "invalid or expired token"
			if errors.Is(err, echojwt.ErrJWTMissing) {
				message = "no token, authorization denied"
			}
			return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
				Error: message,
				Code:  "UNAUTHENTICATED",
			})
		},
		ContinueOnIgnoredError: optional,
	})
}

// ClaimsFrom returns the verified claims of the request, if any.
func ClaimsFrom(c echo.Context) *Claims {
	claims, _ := c.Get(claimsContextKey).(*Claims)
	return claims
}

// RequesterFrom returns the requester of the request, or nil when anonymous.
func RequesterFrom(c echo.Context) *access.Requester {
	claims := ClaimsFrom(c)
	if claims == nil {
		return nil
	}
	return claims.Requester()
}
