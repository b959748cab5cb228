package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/louisbranch/fanvest/internal/platform/errors"
	"github.com/louisbranch/fanvest/internal/platform/requestctx"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/ledger"
)

// AccountHeader carries the caller account when token auth is disabled.
const AccountHeader = "X-Fanvest-Account"

var errMissingCredentials = errors.New("missing credentials")

// Authenticator resolves the calling account of a request.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator verifies HS256 bearer tokens signed with secret. An empty
// secret trusts the account header instead.
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Account returns the caller of r.
func (a *Authenticator) Account(r *http.Request) (ledger.Account, error) {
	if len(a.secret) == 0 {
		account := ledger.Account(strings.TrimSpace(r.Header.Get(AccountHeader)))
		if !account.Valid() {
			return "", errMissingCredentials
		}
		return account, nil
	}
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return "", errMissingCredentials
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(strings.TrimSpace(raw), &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	account := ledger.Account(strings.TrimSpace(claims.Subject))
	if !account.Valid() {
		return "", errMissingCredentials
	}
	return account, nil
}

// Middleware stores the caller, request id and locale in the request context.
// Requests without credentials pass through anonymous; handlers that need a
// caller reject them.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := middleware.GetReqID(ctx); id != "" {
			ctx = requestctx.WithRequestID(ctx, id)
		}
		if locale := r.Header.Get("Accept-Language"); locale != "" {
			ctx = requestctx.WithLocale(ctx, locale)
		}
		r = r.WithContext(ctx)

		account, err := a.Account(r)
		switch {
		case err == nil:
			ctx = requestctx.WithAccount(ctx, string(account))
		case errors.Is(err, errMissingCredentials):
		default:
			writeCode(w, r, http.StatusUnauthorized, apperrors.CodeUnauthorized, nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// caller returns the authenticated account or writes a 401.
func caller(w http.ResponseWriter, r *http.Request) (ledger.Account, bool) {
	account := ledger.Account(requestctx.AccountFromContext(r.Context()))
	if !account.Valid() {
		writeCode(w, r, http.StatusUnauthorized, apperrors.CodeUnauthorized, nil)
		return "", false
	}
	return account, true
}
