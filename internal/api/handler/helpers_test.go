package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/daap14/blueprints/internal/blueprint"
	"github.com/daap14/blueprints/internal/geometry"
)

// mockBlueprintRepo implements blueprint.Repository with overridable functions.
type mockBlueprintRepo struct {
	createFn       func(ctx context.Context, bp *blueprint.Blueprint) error
	getFn          func(ctx context.Context, author, name string) (*blueprint.Blueprint, error)
	listByAuthorFn func(ctx context.Context, author string) ([]blueprint.Blueprint, error)
	listFn         func(ctx context.Context) ([]blueprint.Blueprint, error)
	appendPointFn  func(ctx context.Context, author, name string, p geometry.Point) error
	countFn        func(ctx context.Context) (int, error)
}

func (m *mockBlueprintRepo) Create(ctx context.Context, bp *blueprint.Blueprint) error {
	if m.createFn != nil {
		return m.createFn(ctx, bp)
	}
	return nil
}

func (m *mockBlueprintRepo) Get(ctx context.Context, author, name string) (*blueprint.Blueprint, error) {
	if m.getFn != nil {
		return m.getFn(ctx, author, name)
	}
	return nil, blueprint.ErrBlueprintNotFound
}

func (m *mockBlueprintRepo) ListByAuthor(ctx context.Context, author string) ([]blueprint.Blueprint, error) {
	if m.listByAuthorFn != nil {
		return m.listByAuthorFn(ctx, author)
	}
	return nil, blueprint.ErrBlueprintNotFound
}

func (m *mockBlueprintRepo) List(ctx context.Context) ([]blueprint.Blueprint, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []blueprint.Blueprint{}, nil
}

func (m *mockBlueprintRepo) Count(ctx context.Context) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

func (m *mockBlueprintRepo) AppendPoint(ctx context.Context, author, name string, p geometry.Point) error {
	if m.appendPointFn != nil {
		return m.appendPointFn(ctx, author, name, p)
	}
	return nil
}

func makeChiRequest(method, path string, body []byte, params map[string]string) (*http.Request, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()

	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	return req, w
}

func parseEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var env map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &env)
	require.NoError(t, err, "failed to parse response body")
	return env
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	env := parseEnvelope(t, w)
	errObj, ok := env["error"].(map[string]interface{})
	require.True(t, ok, "response has no error object")
	return errObj["code"].(string)
}
