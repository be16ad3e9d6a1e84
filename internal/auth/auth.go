package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/lmojica26/womenhealthytips.com/internal/config"
)

type contextKey string

const userIDContextKey contextKey = "userID"

const issuer = "womenhealthytips"

// AdminUserID is the subject of tokens issued by the password login.
const AdminUserID = "admin"

// Config holds authentication configuration.
type Config struct {
	JWTSecret     string
	AdminPassword string // plain text or a bcrypt hash
	TokenDuration time.Duration
	CronSecret    string
}

// NewConfig builds an auth Config from application configuration.
func NewConfig(auth config.AuthConfig, cron config.CronConfig) Config {
	return Config{
		JWTSecret:     auth.JWTSecret,
		AdminPassword: auth.AdminPassword,
		TokenDuration: auth.TokenDuration,
		CronSecret:    cron.Secret,
	}
}

// Claims represents the JWT claims
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// GenerateToken creates a new JWT token
func GenerateToken(userID string, secret string, duration time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt secret is not configured")
	}
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken validates a JWT token and returns the user ID
func ValidateToken(tokenString string, secret string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt secret is not configured")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(issuer))

	if err != nil {
		return "", err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims.UserID, nil
	}

	return "", fmt.Errorf("invalid token")
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword compares a password with a hash
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// VerifyAdminPassword checks a login attempt against the configured admin
// password, which may be stored as a bcrypt hash.
func (c Config) VerifyAdminPassword(password string) bool {
	if c.AdminPassword == "" || password == "" {
		return false
	}
	if strings.HasPrefix(c.AdminPassword, "$2") {
		return CheckPassword(password, c.AdminPassword)
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(c.AdminPassword)) == 1
}

func bearerToken(r *http.Request) (string, string) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", "Authorization header required"
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", "Invalid authorization header format"
	}
	return parts[1], ""
}

// AuthMiddleware rejects requests without a valid admin bearer token.
func AuthMiddleware(config Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, problem := bearerToken(r)
			if problem != "" {
				http.Error(w, problem, http.StatusUnauthorized)
				return
			}

			userID, err := ValidateToken(tokenString, config.JWTSecret)
			if err != nil {
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userIDContextKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches the user ID when a valid token is present and
// otherwise lets the request through anonymously.
func OptionalAuth(config Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenString, problem := bearerToken(r); problem == "" {
				if userID, err := ValidateToken(tokenString, config.JWTSecret); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), userIDContextKey, userID))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CronMiddleware admits only callers presenting the shared scheduler secret.
// An unset secret rejects every request.
func CronMiddleware(config Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, problem := bearerToken(r)
			if config.CronSecret == "" || problem != "" ||
				subtle.ConstantTimeCompare([]byte(tokenString), []byte(config.CronSecret)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"Unauthorized"}` + "\n"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	return userID, ok
}

// IsAuthenticated reports whether the request carried a valid admin token.
func IsAuthenticated(ctx context.Context) bool {
	_, ok := GetUserIDFromContext(ctx)
	return ok
}
