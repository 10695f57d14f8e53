package middleware

import (
	"net/http"
	"strings"
)

const methodOverrideField = "_method"

// MethodOverride rewrites form POSTs carrying a `_method` field into the
// intended PATCH or DELETE before routing. HTML forms can only submit GET
// and POST; this is where the generic submission gets resolved into the
// real operation. It wraps the whole router because the rewrite must happen
// before route matching.
func MethodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && isFormContent(r.Header.Get("Content-Type")) {
			switch strings.ToUpper(r.PostFormValue(methodOverrideField)) {
			case http.MethodPatch:
				r.Method = http.MethodPatch
			case http.MethodDelete:
				r.Method = http.MethodDelete
			case http.MethodPut:
				r.Method = http.MethodPut
			}
		}
		next.ServeHTTP(w, r)
	})
}

func isFormContent(contentType string) bool {
	return strings.HasPrefix(contentType, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(contentType, "multipart/form-data")
}
