package tests

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/lucinametrics/lucina-service-api/v5/pkg/utils/httputil"
)

// BuildTestHandler mounts a single handler on a chi router, plays the request
// against it with the given user in context, and returns the response recorder
func BuildTestHandler(t *testing.T, method string, targetRoute string, body string, handlerRoute string, handler http.HandlerFunc, user interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if len(body) > 0 {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, targetRoute, reader)
	if err != nil {
		t.Fatal(err)
	}

	r := chi.NewRouter()
	switch method {
	case http.MethodGet:
		r.Get(handlerRoute, handler)
	case http.MethodPost:
		r.Post(handlerRoute, handler)
	case http.MethodPut:
		r.Put(handlerRoute, handler)
	case http.MethodDelete:
		r.Delete(handlerRoute, handler)
	default:
		t.Error("Unknown method", method)
		t.FailNow()
	}

	rr := httptest.NewRecorder()
	ctx := context.WithValue(req.Context(), httputil.ContextKeyUser, user)
	r.ServeHTTP(rr, req.WithContext(ctx))
	return rr
}
