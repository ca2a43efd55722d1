package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS настраивает заголовки для браузерных клиентов. Пустой список или "*" разрешает любые источники.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	options := cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}

	if len(allowedOrigins) == 0 || allowedOrigins[0] == "*" {
		options.AllowedOrigins = []string{"*"}
	} else {
		options.AllowCredentials = true
	}

	return cors.Handler(options)
}
