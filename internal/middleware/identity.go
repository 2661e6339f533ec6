package middleware

import (
	"errors"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"storefront/internal/auth"
)

const claimsContextKey = "claims"

var errTokenRevoked = errors.New("token revoked")

// Identity attaches the bearer token's identity to the request context.
// Requests without a usable token continue anonymously; guards decide what they may do.
func Identity(jwtService *auth.JWTService, tokens auth.TokenStoreInterface, log *zap.Logger) echo.MiddlewareFunc {
	log = log.With(zap.String("component", "identity"))

	return echojwt.WithConfig(echojwt.Config{
		TokenLookup:            "header:" + echo.HeaderAuthorization + ":Bearer ",
		ContextKey:             claimsContextKey,
		ContinueOnIgnoredError: true,
		ParseTokenFunc: func(c echo.Context, raw string) (interface{}, error) {
			claims, err := jwtService.ValidateToken(raw)
			if err != nil {
				return nil, err
			}
			revoked, _ := tokens.IsRevoked(c.Request().Context(), claims.ID)
			if revoked {
				return nil, errTokenRevoked
			}
			return claims, nil
		},
		SuccessHandler: func(c echo.Context) {
			claims, ok := c.Get(claimsContextKey).(*auth.Claims)
			if !ok {
				return
			}
			req := c.Request()
			c.SetRequest(req.WithContext(auth.WithIdentity(req.Context(), claims.Identity())))
		},
		ErrorHandler: func(c echo.Context, err error) error {
			if c.Request().Header.Get(echo.HeaderAuthorization) != "" {
				log.Debug("ignoring unusable bearer token", zap.Error(err))
			}
			return nil
		},
	})
}
