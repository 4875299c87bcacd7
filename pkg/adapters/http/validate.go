package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
)

// WithRequestValidation toggles checking requests against the embedded
// OpenAPI document before they reach a handler (default on).
func WithRequestValidation(enabled bool) Option {
	return func(s *Server) {
		s.validate = enabled
	}
}

// validateRequests rejects requests for documented operations whose
// parameters or body do not match the document. Undocumented routes pass
// through untouched.
func (s *Server) validateRequests() func(http.Handler) http.Handler {
	router, err := openAPIRouter()
	if err != nil {
		s.logger.Error("Request validation disabled", "err", err)
		return func(next http.Handler) http.Handler { return next }
	}

	opts := &openapi3filter.Options{}
	opts.WithCustomSchemaErrorFunc(schemaErrorMessage)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, params, err := router.FindRoute(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
			}
			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: params,
				Route:      route,
				Options:    opts,
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				s.logger.Warn("Request does not match the API document", "path", r.URL.Path, "err", err)
				s.respond(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Timestamp: time.Now().UTC()})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func openAPIRouter() (routers.Router, error) {
	doc, err := GetSwagger()
	if err != nil {
		return nil, err
	}
	return legacy.NewRouter(doc)
}

// schemaErrorMessage keeps body errors on one line and names the offending
// field and value.
func schemaErrorMessage(err *openapi3.SchemaError) string {
	field := strings.Join(err.JSONPointer(), ".")
	if field == "" || err.Reason == "" {
		return err.Reason
	}
	return fmt.Sprintf("%s: %s (got %v)", field, err.Reason, err.Value)
}
