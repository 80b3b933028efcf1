package main

import (
	"expvar"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/newslyhq/newsly/internal/storage"
)

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowed)

	router.HandlerFunc(http.MethodGet, "/v1/health", app.healthcheckHandler)

	router.HandlerFunc(http.MethodPost, "/v1/newsletter/subscribe", app.subscribeNewsletterHandler)
	router.HandlerFunc(http.MethodPut, "/v1/newsletter/confirm", app.confirmNewsletterHandler)
	router.HandlerFunc(http.MethodDelete, "/v1/newsletter/unsubscribe", app.unsubscribeNewsletterHandler)

	router.HandlerFunc(http.MethodGet, "/v1/articles/:articleId", app.showArticleHandler)
	router.HandlerFunc(http.MethodPatch, "/v1/articles/:articleId/image", app.requireActivatedUser(app.updateArticleImageHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/articles/:articleId/image", app.requireActivatedUser(app.deleteArticleImageHandler))

	router.Handler(http.MethodGet, "/debug/vars", app.basicAuth(expvar.Handler().ServeHTTP))

	// With the local storage backend, stored objects are served straight
	// from the media root under the media URL prefix.
	if local, ok := app.storage.(*storage.Local); ok {
		prefix := strings.TrimSuffix(app.config.Storage.MediaURL, "/")
		router.Handler(http.MethodGet, prefix+"/*filepath", http.StripPrefix(prefix, http.FileServer(http.Dir(local.Root()))))
	}

	// authenticate must run before rateLimit so the limiter counts against
	// the resolved caller identity rather than treating everyone as anonymous.
	return app.metrics(app.recoverPanic(app.checkHost(app.enableCORS(app.authenticate(app.rateLimit(router))))))
}
