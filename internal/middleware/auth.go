package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/BruksfildServices01/clinic-scheduler/internal/config"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
)

const ContextActor = "actor"

// AuthMiddleware trusts a bearer token signed with the shared secret by the
// account service. Claims: "sub" is the user uuid and "role" one of patient,
// doctor or admin.
func AuthMiddleware(cfg config.JWTConfig) gin.HandlerFunc {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	parser := jwt.NewParser(opts...)

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httperr.Unauthorized(c, "missing_authorization_header", "authorization header is required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			httperr.Unauthorized(c, "invalid_authorization_header", "expected a bearer token")
			c.Abort()
			return
		}

		claims := jwt.MapClaims{}
		token, err := parser.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(cfg.Secret), nil
		})
		if err != nil || !token.Valid {
			httperr.Unauthorized(c, "invalid_token", "token is invalid or expired")
			c.Abort()
			return
		}

		actor, ok := actorFromClaims(claims)
		if !ok {
			httperr.Unauthorized(c, "invalid_token_payload", "token is missing sub or role")
			c.Abort()
			return
		}

		c.Set(ContextActor, actor)
		c.Next()
	}
}

func actorFromClaims(claims jwt.MapClaims) (domain.Actor, bool) {
	sub, err := claims.GetSubject()
	if err != nil {
		return domain.Actor{}, false
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return domain.Actor{}, false
	}

	rawRole, _ := claims["role"].(string)
	role, ok := domain.ParseRole(rawRole)
	if !ok {
		return domain.Actor{}, false
	}

	return domain.Actor{ID: id, Role: role}, true
}

// ActorFrom returns the authenticated actor set by AuthMiddleware.
func ActorFrom(c *gin.Context) (domain.Actor, bool) {
	v, ok := c.Get(ContextActor)
	if !ok {
		return domain.Actor{}, false
	}
	actor, ok := v.(domain.Actor)
	return actor, ok
}

// RequireRole rejects actors whose role is not listed.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			httperr.Unauthorized(c, "unauthenticated", "authentication required")
			c.Abort()
			return
		}
		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}
		httperr.Forbidden(c, "role_not_allowed", "this action is not available for your role")
		c.Abort()
	}
}
