package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/errorutils"
	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/api/option"

	"github.com/wanderlink/backend/internal/models"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is what the gate resolves a bearer token into.
type Identity struct {
	UserID  string
	Role    string
	Blocked bool
}

type FirebaseAuthConfig struct {
	ProjectID       string
	CredentialsJSON string
}

// NewFirebaseAuthClient builds the token-verification client. A nil
// client is a configuration failure, which the middleware reports as
// service unavailable rather than unauthorized.
func NewFirebaseAuthClient(ctx context.Context, cfg FirebaseAuthConfig) (*fbauth.Client, error) {
	var opts []option.ClientOption
	if cfg.CredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, err
	}
	return app.Auth(ctx)
}

// tokenVerifier is the slice of *fbauth.Client the gate uses.
type tokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// FirebaseAuth verifies the bearer token against Firebase and stores the
// resolved identity in the request context. Missing or bad tokens are
// 401, blocked users 403. An unconfigured or unreachable gate is 503:
// an identity-service outage is never reported as a bad token.
func FirebaseAuth(client *fbauth.Client) func(http.Handler) http.Handler {
	var verifier tokenVerifier
	if client != nil {
		verifier = client
	}
	return firebaseAuth(verifier)
}

func firebaseAuth(verifier tokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(w, r)
			if !ok {
				return
			}

			if verifier == nil {
				writeJSON(w, http.StatusServiceUnavailable, models.NewErrorResponse("Identity service unavailable"))
				return
			}

			decoded, err := verifier.VerifyIDToken(r.Context(), token)
			if err != nil {
				if isIdentityOutage(err) {
					writeJSON(w, http.StatusServiceUnavailable, models.NewErrorResponse("Identity service unavailable"))
					return
				}
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Invalid or expired token"))
				return
			}

			ident := Identity{UserID: decoded.UID}
			if role, ok := decoded.Claims["role"].(string); ok {
				ident.Role = role
			}
			if blocked, ok := decoded.Claims["blocked"].(bool); ok {
				ident.Blocked = blocked
			}
			if ident.Blocked {
				writeJSON(w, http.StatusForbidden, models.NewErrorResponse("Account is blocked"))
				return
			}

			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), ident)))
		})
	}
}

// JWTAuth is the dev-mode gate: HS256 tokens with user_id, role and
// blocked claims, verified locally. Used when no Firebase project is
// configured and by the HTTP tests.
func JWTAuth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(w, r)
			if !ok {
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Invalid or expired token"))
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Invalid token claims"))
				return
			}

			userID, ok := claims["user_id"].(string)
			if !ok || userID == "" {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Invalid user ID in token"))
				return
			}

			ident := Identity{UserID: userID}
			if role, ok := claims["role"].(string); ok {
				ident.Role = role
			}
			if blocked, ok := claims["blocked"].(bool); ok {
				ident.Blocked = blocked
			}
			if ident.Blocked {
				writeJSON(w, http.StatusForbidden, models.NewErrorResponse("Account is blocked"))
				return
			}

			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), ident)))
		})
	}
}

func bearerToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Authorization header required"))
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Invalid authorization header format"))
		return "", false
	}
	return parts[1], true
}

// isIdentityOutage reports whether verification failed because the
// identity service could not be consulted, as opposed to the token
// itself being rejected. Cert fetches happen over the network, so
// transport errors and deadlines land here.
func isIdentityOutage(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	return errorutils.IsUnavailable(err) || errorutils.IsInternal(err) || errorutils.IsDeadlineExceeded(err)
}

func withIdentity(ctx context.Context, ident Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}

// GetIdentity returns the resolved identity, if any.
func GetIdentity(ctx context.Context) (Identity, bool) {
	ident, ok := ctx.Value(identityKey).(Identity)
	return ident, ok
}

// GetUserID extracts the caller's user ID from context.
func GetUserID(ctx context.Context) string {
	ident, ok := GetIdentity(ctx)
	if !ok {
		return ""
	}
	return ident.UserID
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
