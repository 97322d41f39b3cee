package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"joblet/internal/config"
	"joblet/internal/domain"
	"joblet/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"
)

const (
	apiKeyHeaderDefault = "x-api-key"
	permReadCatalog     = "read:catalog"
	permExport          = "read:export"
	clientKeyUnknown    = "unknown"
)

var (
	errMissingToken     = errors.New("missing bearer token")
	errInvalidToken     = errors.New("invalid token")
	errPermissionDenied = errors.New("permission denied")
	errBlacklisted      = errors.New("account is blocked")
)

type ctxKey int

const (
	ctxKeyAccount ctxKey = iota
	ctxKeyAPIClient
)

// AccountFromContext returns the authenticated account, if any.
func AccountFromContext(ctx context.Context) (*models.Account, bool) {
	acc, ok := ctx.Value(ctxKeyAccount).(*models.Account)
	return acc, ok
}

// APIClientFromContext returns the API-key client name for service requests.
// The auth middleware has already checked the key's permissions against the
// requested path by the time a handler sees this.
func APIClientFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(ctxKeyAPIClient).(string)
	return name, ok
}

// IssueToken mints an HS256 JWT whose subject is the account id. The auth
// collaborator does the same; this helper exists for tooling and tests.
func IssueToken(secret string, accountID int64, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(accountID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// HTTPAuth resolves callers to accounts via JWT, lets service clients in on
// API keys with per-key permissions, and rate-limits both per client.
type HTTPAuth struct {
	cfg      config.APIConfig
	repo     domain.Repository
	clients  map[string]config.APIClientKey
	limiters sync.Map // map[string]*rate.Limiter
}

func NewHTTPAuth(cfg config.APIConfig, repo domain.Repository) *HTTPAuth {
	m := make(map[string]config.APIClientKey, len(cfg.Auth.APIKeys))
	for _, k := range cfg.Auth.APIKeys {
		m[k.Key] = k
	}
	return &HTTPAuth{cfg: cfg, repo: repo, clients: m}
}

// Wrap authenticates the request and stores the resolved account in the
// context. API-key clients carry no account and only reach the endpoints
// their permissions name.
func (a *HTTPAuth) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := a.checkRateLimit(r); err != nil {
			writeError(w, http.StatusTooManyRequests, err.Error())
			return
		}

		if !a.cfg.Auth.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		if apiKey := a.apiKeyFrom(r); apiKey != "" {
			client, ok := a.clients[apiKey]
			if !ok {
				writeError(w, http.StatusUnauthorized, "invalid api key")
				return
			}
			if err := a.checkPermissions(client, r); err != nil {
				writeError(w, http.StatusForbidden, err.Error())
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyAPIClient, client.Name)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		account, err := a.resolveAccount(r)
		if err != nil {
			status := http.StatusUnauthorized
			if errors.Is(err, errBlacklisted) {
				status = http.StatusForbidden
			}
			writeError(w, status, err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyAccount, account)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *HTTPAuth) resolveAccount(r *http.Request) (*models.Account, error) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" || !strings.HasPrefix(raw, "Bearer ") {
		return nil, errMissingToken
	}
	tokenStr := strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return []byte(a.cfg.Auth.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, errInvalidToken
	}

	accountID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || accountID <= 0 {
		return nil, errInvalidToken
	}

	account, err := a.repo.GetAccount(r.Context(), accountID)
	if err != nil {
		return nil, errInvalidToken
	}
	if account.IsBlacklisted {
		return nil, errBlacklisted
	}
	return account, nil
}

func (a *HTTPAuth) apiKeyFrom(r *http.Request) string {
	header := strings.TrimSpace(strings.ToLower(a.cfg.Auth.HeaderAPIKey))
	if header == "" {
		header = apiKeyHeaderDefault
	}
	return strings.TrimSpace(r.Header.Get(header))
}

func (a *HTTPAuth) checkPermissions(client config.APIClientKey, r *http.Request) error {
	required := requiredPermission(r)
	if required == "" {
		// API keys are service credentials, not user identities.
		return errPermissionDenied
	}
	// Empty permissions list is treated as allow-all.
	if len(client.Permissions) == 0 {
		return nil
	}
	for _, p := range client.Permissions {
		if strings.TrimSpace(p) == required {
			return nil
		}
	}
	return errPermissionDenied
}

func requiredPermission(r *http.Request) string {
	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && strings.HasPrefix(path, "/api/v1/services"):
		return permReadCatalog
	case r.Method == http.MethodGet && path == "/api/v1/admin/export":
		return permExport
	default:
		return ""
	}
}

func (a *HTTPAuth) checkRateLimit(r *http.Request) error {
	if a.cfg.RateLimit.RPS <= 0 {
		return nil
	}
	key := a.clientKey(r)
	lim := a.getLimiter(key)
	if !lim.Allow() {
		return errors.New("rate limit exceeded")
	}
	return nil
}

func (a *HTTPAuth) clientKey(r *http.Request) string {
	if apiKey := a.apiKeyFrom(r); apiKey != "" {
		return apiKey
	}
	if raw := strings.TrimSpace(r.Header.Get("Authorization")); raw != "" {
		return raw
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return clientKeyUnknown
}

func (a *HTTPAuth) getLimiter(key string) *rate.Limiter {
	if v, ok := a.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}

	burst := a.cfg.RateLimit.Burst
	if burst <= 0 {
		burst = 5
	}

	lim := rate.NewLimiter(rate.Limit(a.cfg.RateLimit.RPS), burst)
	actual, loaded := a.limiters.LoadOrStore(key, lim)
	if loaded {
		return actual.(*rate.Limiter)
	}
	return lim
}
