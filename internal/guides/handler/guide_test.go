package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"beroepsbelg/internal/auth"
	apperrors "beroepsbelg/pkg/errors"
	"beroepsbelg/pkg/logger"
	"beroepsbelg/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockGuideService struct {
	createFunc  func(ctx context.Context, guide *model.Guide) error
	getByIDFunc func(ctx context.Context, id int64) (*model.Guide, error)
	getAllFunc  func(ctx context.Context, limit int, offset int64) ([]*model.Guide, int64, error)
}

func (m *mockGuideService) Create(ctx context.Context, guide *model.Guide) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, guide)
	}
	return nil
}

func (m *mockGuideService) GetByID(ctx context.Context, id int64) (*model.Guide, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &model.Guide{ID: id}, nil
}

func (m *mockGuideService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Guide, int64, error) {
	if m.getAllFunc != nil {
		return m.getAllFunc(ctx, limit, offset)
	}
	return []*model.Guide{}, 0, nil
}

func (m *mockGuideService) Update(ctx context.Context, id int64, updates *model.GuideUpdate) error {
	return nil
}

func (m *mockGuideService) Delete(ctx context.Context, id int64) error {
	return nil
}

func newRouter(svc *mockGuideService) *httprouter.Router {
	router := httprouter.New()
	NewGuideHandler(svc, logger.Discard()).RegisterRoutes(router)
	return router
}

func asAdmin(r *http.Request) *http.Request {
	return r.WithContext(auth.WithPrincipal(r.Context(), &auth.Principal{ProfileID: "admin", IsAdmin: true}))
}

func TestRoutes_RequireAdmin(t *testing.T) {
	guideID := int64(12)
	router := newRouter(&mockGuideService{})

	tests := []struct {
		name      string
		principal *auth.Principal
		want      int
	}{
		{name: "anonymous", want: http.StatusForbidden},
		{name: "guide", principal: &auth.Principal{ProfileID: "g", GuideID: &guideID}, want: http.StatusForbidden},
		{name: "admin", principal: &auth.Principal{ProfileID: "a", IsAdmin: true}, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/guides/id/12", nil)
			if tt.principal != nil {
				req = req.WithContext(auth.WithPrincipal(req.Context(), tt.principal))
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestGetByID_InvalidID(t *testing.T) {
	router := newRouter(&mockGuideService{})

	for _, id := range []string{"abc", "0", "-4"} {
		req := asAdmin(httptest.NewRequest(http.MethodGet, "/api/v1/guides/id/"+id, nil))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("id %q: expected 400, got %d", id, w.Code)
		}
	}
}

func TestGetByID_NotFound(t *testing.T) {
	router := newRouter(&mockGuideService{
		getByIDFunc: func(_ context.Context, id int64) (*model.Guide, error) {
			return nil, apperrors.NotFoundWithID("Guide", id)
		},
	})

	req := asAdmin(httptest.NewRequest(http.MethodGet, "/api/v1/guides/id/77", nil))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["code"] != string(apperrors.CodeNotFound) {
		t.Errorf("expected code %s, got %v", apperrors.CodeNotFound, body["code"])
	}
}

func TestCreate(t *testing.T) {
	router := newRouter(&mockGuideService{
		createFunc: func(_ context.Context, g *model.Guide) error {
			g.ID = 41
			return nil
		},
	})

	t.Run("created", func(t *testing.T) {
		body := `{"name":"Anouk Peeters","email":"anouk@example.be"}`
		req := asAdmin(httptest.NewRequest(http.MethodPost, "/api/v1/guides", strings.NewReader(body)))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", w.Code)
		}
		var resp struct {
			Data model.Guide `json:"data"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if resp.Data.ID != 41 {
			t.Errorf("expected id 41, got %d", resp.Data.ID)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		req := asAdmin(httptest.NewRequest(http.MethodPost, "/api/v1/guides", strings.NewReader("{")))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})
}

func TestGetAll_InvalidQueryParameters(t *testing.T) {
	router := newRouter(&mockGuideService{})

	req := asAdmin(httptest.NewRequest(http.MethodGet, "/api/v1/guides?limit=abc", nil))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}
