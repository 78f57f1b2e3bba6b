package admin

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/goswami-rohit/salesman-cms-sub001/internal/pkg/logger"
	"github.com/goswami-rohit/salesman-cms-sub001/internal/pkg/response"
)

// AdminClaims are the identity-provider claims this service reads
type AdminClaims struct {
	Email string `json:"email,omitempty"`
	Role  Role   `json:"role"`
	jwt.RegisteredClaims
}

// AdminContextKey for context values
type AdminContextKey string

const (
	ContextAdminID   AdminContextKey = "admin_id"
	ContextAdminRole AdminContextKey = "admin_role"
)

// JWTService verifies tokens issued by the identity provider
type JWTService struct {
	secret []byte
	issuer string
}

// NewJWTService creates the verifier. An empty issuer skips the iss check.
func NewJWTService(secret, issuer string) *JWTService {
	return &JWTService{
		secret: []byte(secret),
		issuer: issuer,
	}
}

// GenerateToken signs a token for id. Used by tests and local tooling; the
// identity provider issues production tokens.
func (s *JWTService) GenerateToken(id Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AdminClaims{
		Email: id.Email,
		Role:  id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   id.AdminID.String(),
			Issuer:    s.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateToken validates a bearer token and returns the caller identity
func (s *JWTService) ValidateToken(tokenString string) (*Identity, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	adminID, err := uuid.Parse(claims.Subject)
	if err != nil || claims.Role == "" {
		return nil, ErrInvalidToken
	}

	return &Identity{AdminID: adminID, Email: claims.Email, Role: claims.Role}, nil
}

// AuthMiddleware verifies the bearer token and stores the identity in context
func AuthMiddleware(jwtSvc *JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(w, "Missing authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				response.Unauthorized(w, "Invalid authorization header format")
				return
			}

			id, err := jwtSvc.ValidateToken(parts[1])
			if err != nil {
				if errors.Is(err, ErrExpiredToken) {
					response.Unauthorized(w, "Token expired")
				} else {
					response.Unauthorized(w, "Invalid token")
				}
				return
			}

			ctx := context.WithValue(r.Context(), ContextAdminID, id.AdminID)
			ctx = context.WithValue(ctx, ContextAdminRole, id.Role)
			l := logger.FromContext(ctx).With().Str("admin_id", id.AdminID.String()).Logger()
			ctx = logger.WithContext(ctx, &l)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission is the single capability check for admin routes.
// The caller's role must rank at or above the permission's minimum role.
func RequirePermission(policy *Policy, perm Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := GetAdminRole(r.Context())
			if role == "" || !policy.Allows(role, perm) {
				logger.FromContext(r.Context()).Warn().
					Str("role", string(role)).
					Str("permission", string(perm)).
					Msg("Permission denied")
				response.Forbidden(w, "Permission denied")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetAdminID extracts admin ID from context
func GetAdminID(ctx context.Context) uuid.UUID {
	id, ok := ctx.Value(ContextAdminID).(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return id
}

// GetAdminRole extracts admin role from context
func GetAdminRole(ctx context.Context) Role {
	role, ok := ctx.Value(ContextAdminRole).(Role)
	if !ok {
		return ""
	}
	return role
}

// RateLimitKey buckets requests by admin id for the mutation limiter.
func RateLimitKey(r *http.Request) string {
	if id := GetAdminID(r.Context()); id != uuid.Nil {
		return id.String()
	}
	return ""
}
