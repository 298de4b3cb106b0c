package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/ripoti/core"
	"github.com/trezcool/ripoti/core/access"
	"github.com/trezcool/ripoti/core/school"
)

const (
	tokenContextKey  = "principalToken"
	accessContextKey = "accessContext"
)

// Claims represents the authorization claims transmitted via a JWT.
// Tokens are issued by the identity layer, not this API; the subject is the
// principal id and the audience the tenant id.
type Claims struct {
	jwt.StandardClaims
	Name         string   `json:"name,omitempty"`
	Role         string   `json:"role,omitempty"`
	AcademicYear string   `json:"academic_year,omitempty"`
	ClassIDs     []string `json:"class_ids,omitempty"` // pre-resolved; nil: resolve on request
}

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    tokenContextKey,
		Claims:        new(Claims),
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	if claims.ExpiresAt == 0 {
		now := time.Now()
		claims.IssuedAt = now.Unix()
		claims.ExpiresAt = now.Add(conf.Server.JWTExpirationDelta).Unix()
	}
	if claims.Issuer == "" {
		claims.Issuer = conf.AppName
	}

	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// accessContextMiddleware turns the verified claims into the access.Context
// every core call receives. A class-scoped principal whose token does not
// carry its assignment set gets it resolved once per request.
func accessContextMiddleware(svc *school.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}

			ac := access.Context{
				TenantID:    claims.Audience,
				PrincipalID: claims.Subject,
				Role:        access.Role(claims.Role),
				ClassIDs:    claims.ClassIDs,
			}
			if !ac.Valid() {
				return errUnauthorized
			}

			if ac.Role.ClassScoped() && ac.ClassIDs == nil {
				ids, err := svc.AssignedClassIDs(ctx.Request().Context(), ac.TenantID, ac.PrincipalID, claims.AcademicYear)
				if err != nil {
					return errors.Wrap(err, "resolving class assignments")
				}
				ac.ClassIDs = ids
			}

			ctx.Set(accessContextKey, ac)
			return next(ctx)
		}
	}
}

func getAccessContext(ctx echo.Context) (access.Context, error) {
	if ac, ok := ctx.Get(accessContextKey).(access.Context); ok {
		return ac, nil
	}
	return access.Context{}, errUnauthorized
}
