package middleware

import (
	"context"
	"net/http"

	"github.com/niel17/invoiceflow/internal/common"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// JWTConfig builds the echo-jwt configuration for protected routes. On a
// valid token the subject claim is parsed and stored on the request context
// as the authenticated user ID.
func JWTConfig(jwtSecret string) echojwt.Config {
	return echojwt.Config{
		SigningKey:    []byte(jwtSecret),
		SigningMethod: jwt.SigningMethodHS256.Alg(),
		SuccessHandler: func(c echo.Context) {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return
			}
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return
			}
			sub, ok := claims["sub"].(string)
			if !ok {
				return
			}
			userID, err := uuid.Parse(sub)
			if err != nil {
				return
			}
			ctx := context.WithValue(c.Request().Context(), common.UserIDKey, userID)
			c.SetRequest(c.Request().WithContext(ctx))
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
		},
	}
}
