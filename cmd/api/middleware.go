package main

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/jellydator/ttlcache/v3"
	"github.com/newslyhq/newsly/internal/data"
	"github.com/newslyhq/newsly/internal/ratelimit"
	"github.com/newslyhq/newsly/internal/validator"
)

// recoverPanic middleware recovers from panics and will always be run in the
// event of a panic.
func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")
				app.serverErrorResponse(w, r, fmt.Errorf("%s", err))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// checkHost middleware rejects requests whose Host header is not in
// ALLOWED_HOSTS. An empty allow-set permits any host while DEBUG is on;
// with DEBUG off it falls back to localhost only. Entries starting with a
// dot match the domain and all its subdomains.
func (app *application) checkHost(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := hostWithoutPort(r.Host)
		allowed := app.config.AllowedHosts
		if len(allowed) == 0 {
			if app.config.Debug {
				next.ServeHTTP(w, r)
				return
			}
			allowed = []string{"localhost", "127.0.0.1"}
		}
		for _, entry := range allowed {
			if entry == "*" || strings.EqualFold(host, entry) {
				next.ServeHTTP(w, r)
				return
			}
			if strings.HasPrefix(entry, ".") && (strings.HasSuffix(strings.ToLower(host), strings.ToLower(entry)) || strings.EqualFold(host, entry[1:])) {
				next.ServeHTTP(w, r)
				return
			}
		}
		app.hostNotAllowedResponse(w, r, host)
	})
}

// enableCORS middleware relaxes the same-origin policy for origins in the
// configured allow-set. Requests without an Origin header are same-origin
// and pass through untouched. Preflight requests from disallowed origins
// receive a structured refusal.
func (app *application) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Origin")
		w.Header().Add("Vary", "Access-Control-Request-Method")
		origin := r.Header.Get("Origin")
		if origin != "" {
			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
			if app.cors.IsAllowed(origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				if preflight {
					w.Header().Set("Access-Control-Allow-Methods", "OPTIONS, PUT, PATCH, DELETE")
					w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
					w.WriteHeader(http.StatusOK)
					return
				}
			} else {
				app.logger.PrintDebug("origin not in allow-set", map[string]string{"origin": origin})
				if preflight {
					app.originNotAllowedResponse(w, r, origin)
					return
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

// authenticate middleware resolves the caller's identity. It returns an
// authenticated or anonymous user; token lookups are cached briefly so the
// hot path doesn't hit the database on every request.
func (app *application) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Authorization")
		authorizationHeader := r.Header.Get("Authorization")
		headerParts := strings.Split(authorizationHeader, " ")
		if authorizationHeader == "" || headerParts[0] == "Basic" {
			r = app.contextSetUser(r, data.AnonymousUser)
			next.ServeHTTP(w, r)
			return
		}
		if len(headerParts) != 2 || headerParts[0] != "Bearer" {
			app.invalidAuthenticationTokenResponse(w, r)
			return
		}
		token := headerParts[1]
		v := validator.New()
		if data.ValidateTokenPlaintext(v, token); !v.Valid() {
			app.invalidAuthenticationTokenResponse(w, r)
			return
		}
		user, err := app.userForToken(token)
		if err != nil {
			switch {
			case errors.Is(err, data.ErrRecordNotFound):
				app.invalidAuthenticationTokenResponse(w, r)
			default:
				app.serverErrorResponse(w, r, err)
			}
			return
		}
		r = app.contextSetUser(r, user)
		next.ServeHTTP(w, r)
	})
}

// userForToken resolves a token plaintext to a user, consulting the cache
// first. Only the user ID is cached; the row is re-read so revoked accounts
// age out within the cache TTL.
func (app *application) userForToken(token string) (*data.User, error) {
	cacheKey := fmt.Sprintf("token:%x", data.HashToken(token))
	if item := app.cache.Get(cacheKey); item != nil {
		return &data.User{ID: item.Value(), Activated: true}, nil
	}
	user, err := app.models.Users.GetForToken(data.ScopeAuthentication, token)
	if err != nil {
		return nil, err
	}
	if user.Activated {
		app.cache.Set(cacheKey, user.ID, ttlcache.DefaultTTL)
	}
	return user, nil
}

// rateLimit middleware enforces the configured request quotas. Authenticated
// callers are counted per user and draw from the higher ceiling; anonymous
// callers are counted per client IP against the lower one.
func (app *application) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, err := app.callerIdentity(r)
		if err != nil {
			app.serverErrorResponse(w, r, err)
			return
		}
		decision := app.limiter.Check(caller, time.Now())
		if !decision.Allowed {
			app.rateLimitExceededResponse(w, r, decision.RetryAfter)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// callerIdentity derives the rate limiter's counting key for a request.
func (app *application) callerIdentity(r *http.Request) (ratelimit.Caller, error) {
	user := app.contextGetUser(r)
	if !user.IsAnonymous() {
		return ratelimit.Caller{
			Key:           fmt.Sprintf("user:%d", user.ID),
			Authenticated: true,
		}, nil
	}
	ip, err := clientIP(r)
	if err != nil {
		return ratelimit.Caller{}, err
	}
	return ratelimit.Caller{Key: "ip:" + ip}, nil
}

// metrics middleware exposes request-level metrics.
func (app *application) metrics(next http.Handler) http.Handler {
	if app.config.Metrics.Enabled {
		totalRequestsReceived := expvar.NewInt("total_requests_received")
		totalResponsesSent := expvar.NewInt("total_responses_sent")
		totalProcessingTimeMicrosecond := expvar.NewInt("total_processing_time_μs")
		totalResponsesSentBystatus := expvar.NewMap("total_responses_sent_by_status")
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			totalRequestsReceived.Add(1)
			metrics := httpsnoop.CaptureMetrics(next, w, r)
			totalResponsesSent.Add(1)
			totalProcessingTimeMicrosecond.Add(metrics.Duration.Microseconds())
			totalResponsesSentBystatus.Add(strconv.Itoa(metrics.Code), 1)
		})
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
	})
}

// requireAuthenticatedUser middleware checks that a user is not anonymous.
func (app *application) requireAuthenticatedUser(next http.HandlerFunc) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := app.contextGetUser(r)
		if user.IsAnonymous() {
			app.authenticationRequiredResponse(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireActivatedUser middleware checks that a user is both authenticated
// and activated.
func (app *application) requireActivatedUser(next http.HandlerFunc) http.HandlerFunc {
	fn := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := app.contextGetUser(r)
		if !user.Activated {
			app.inactiveAccountResponse(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
	return app.requireAuthenticatedUser(fn)
}

// basicAuth middleware implements basic authentication for the /debug/vars
// endpoint.
func (app *application) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if ok {
			usernameHash := sha256.Sum256([]byte(username))
			passwordHash := sha256.Sum256([]byte(password))
			expectedUsernameHash := sha256.Sum256([]byte(app.config.BasicAuth.Username))
			expectedPasswordHash := sha256.Sum256([]byte(app.config.BasicAuth.Password))
			usernameMatch := (subtle.ConstantTimeCompare(usernameHash[:], expectedUsernameHash[:]) == 1)
			passwordMatch := (subtle.ConstantTimeCompare(passwordHash[:], expectedPasswordHash[:]) == 1)
			if usernameMatch && passwordMatch {
				next.ServeHTTP(w, r)
				return
			}
		}
		w.Header().Set("WWW-Authenticate", `Basic realm="restricted", charset="UTF-8"`)
		app.invalidCredentialsResponse(w, r)
	})
}
