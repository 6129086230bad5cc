package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	httptransport "github.com/randya04/POSitive/internal/api/http"
	"github.com/randya04/POSitive/internal/api/http/handlers"
	"github.com/randya04/POSitive/internal/auth"
	"github.com/randya04/POSitive/internal/domain"
	"github.com/randya04/POSitive/internal/identity"
	"github.com/randya04/POSitive/internal/observability"
	"github.com/randya04/POSitive/internal/repository"
	"github.com/randya04/POSitive/internal/service"
)

// In-memory doubles standing in for the store and the identity provider.

type memProfileRepo struct {
	profiles map[string]*domain.Profile
	members  map[string]string
}

func (r *memProfileRepo) List(context.Context, repository.ProfileFilter) ([]domain.Profile, error) {
	var out []domain.Profile
	for _, p := range r.profiles {
		out = append(out, *p)
	}
	return out, nil
}

func (r *memProfileRepo) GetByID(_ context.Context, id string) (*domain.Profile, error) {
	p, ok := r.profiles[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (r *memProfileRepo) GetByEmail(_ context.Context, email string) (*domain.Profile, error) {
	for _, p := range r.profiles {
		if strings.EqualFold(p.Email, email) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memProfileRepo) Provision(_ context.Context, profile *domain.Profile) error {
	for id, p := range r.profiles {
		if id != profile.ID && strings.EqualFold(p.Email, profile.Email) {
			return repository.ErrDuplicateEmail
		}
	}
	cp := *profile
	r.profiles[profile.ID] = &cp
	if profile.BranchID != nil {
		r.members[profile.ID] = *profile.BranchID
	}
	return nil
}

func (r *memProfileRepo) UpdatePartial(_ context.Context, id string, patch domain.ProfileUpdate) (*domain.Profile, error) {
	p, ok := r.profiles[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	next := patch.Apply(*p)
	r.profiles[id] = &next
	cp := next
	return &cp, nil
}

func (r *memProfileRepo) SetActive(_ context.Context, id string, active bool) error {
	p, ok := r.profiles[id]
	if !ok {
		return pgx.ErrNoRows
	}
	p.IsActive = active
	return nil
}

func (r *memProfileRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.profiles[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.profiles, id)
	return nil
}

type memCatalogRepo struct {
	restaurants []domain.Restaurant
	branches    []domain.Branch
}

func (r *memCatalogRepo) ListRestaurants(context.Context) ([]domain.Restaurant, error) {
	return r.restaurants, nil
}

func (r *memCatalogRepo) ListBranches(_ context.Context, restaurantID string) ([]domain.Branch, error) {
	var out []domain.Branch
	for _, b := range r.branches {
		if b.RestaurantID == restaurantID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *memCatalogRepo) RestaurantNames(_ context.Context, ids []string) (map[string]string, error) {
	out := map[string]string{}
	for _, rest := range r.restaurants {
		for _, id := range ids {
			if rest.ID == id {
				out[id] = rest.Name
			}
		}
	}
	return out, nil
}

func (r *memCatalogRepo) BranchNames(_ context.Context, ids []string) (map[string]string, error) {
	out := map[string]string{}
	for _, b := range r.branches {
		for _, id := range ids {
			if b.ID == id {
				out[id] = b.Name
			}
		}
	}
	return out, nil
}

func (r *memCatalogRepo) BranchInRestaurant(_ context.Context, branchID, restaurantID string) (bool, error) {
	for _, b := range r.branches {
		if b.ID == branchID && b.RestaurantID == restaurantID {
			return true, nil
		}
	}
	return false, nil
}

type memProvider struct {
	nextID   int
	accounts map[string]string
}

func (p *memProvider) InviteByEmail(_ context.Context, email string, _ identity.Metadata) (*identity.Account, error) {
	p.nextID++
	id := fmt.Sprintf("acct-%03d", p.nextID)
	p.accounts[id] = email
	return &identity.Account{ID: id, Email: email}, nil
}

func (p *memProvider) LookupByEmail(_ context.Context, email string) (*identity.Account, error) {
	for id, e := range p.accounts {
		if strings.EqualFold(e, email) {
			return &identity.Account{ID: id, Email: e}, nil
		}
	}
	return nil, identity.ErrNotFound
}

func (p *memProvider) DeleteAccount(_ context.Context, id string) error {
	delete(p.accounts, id)
	return nil
}

func newTestApp(t *testing.T) (*fiber.App, *memProfileRepo) {
	t.Helper()

	profiles := &memProfileRepo{
		profiles: map[string]*domain.Profile{},
		members:  map[string]string{},
	}
	catalog := &memCatalogRepo{
		restaurants: []domain.Restaurant{
			{ID: "R1", Name: "La Terraza"},
			{ID: "R2", Name: "Mar y Sol"},
		},
		branches: []domain.Branch{
			{ID: "B1", Name: "Centro", RestaurantID: "R1"},
			{ID: "B2", Name: "Norte", RestaurantID: "R1"},
		},
	}
	directory := service.NewDirectoryService(service.DirectoryDependencies{
		ProfileRepo: profiles,
		CatalogRepo: catalog,
		Provider:    &memProvider{accounts: map[string]string{}},
	})

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 5*time.Second)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:  handlers.NewHealthHandler("test", "dev", nil, nil),
		Users:   handlers.NewUsersHandler(directory),
		Catalog: handlers.NewCatalogHandler(directory),
		Gate:    auth.NewGate(nil, profiles),
	})
	return app, profiles
}

func doJSON(t *testing.T, app *fiber.App, method, target string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var decoded map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("decode %q: %v", raw, err)
		}
	}
	return resp, decoded
}

func inviteBody() map[string]any {
	return map[string]any{
		"full_name":     "Ana Gómez",
		"email":         "ana@x.com",
		"role":          "host",
		"phone":         "555",
		"is_active":     true,
		"restaurant_id": "R1",
		"branch_id":     "B1",
	}
}

func TestListUsersEmpty(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/api/users", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	data, ok := body["data"].([]any)
	if !ok {
		t.Fatalf("data = %T, want array", body["data"])
	}
	if len(data) != 0 {
		t.Fatalf("len = %d", len(data))
	}
}

func TestInviteThenConflict(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/inviteUser", inviteBody())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}
	data := body["data"].(map[string]any)
	if data["role"] != "host" {
		t.Fatalf("role = %v", data["role"])
	}
	if data["restaurant"] != "La Terraza" {
		t.Fatalf("restaurant = %v", data["restaurant"])
	}

	// Exact same call again: duplicate email.
	resp, body = doJSON(t, app, http.MethodPost, "/api/inviteUser", inviteBody())
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
	if body["error"] == "" {
		t.Fatal("conflict must carry an error message")
	}
}

func TestInviteMissingFields(t *testing.T) {
	app, _ := newTestApp(t)

	payload := inviteBody()
	delete(payload, "is_active")
	resp, _ := doJSON(t, app, http.MethodPost, "/api/inviteUser", payload)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestInviteLegacyRoleLabel(t *testing.T) {
	app, _ := newTestApp(t)

	payload := inviteBody()
	payload["role"] = "Super Admin"
	delete(payload, "restaurant_id")
	delete(payload, "branch_id")

	resp, body := doJSON(t, app, http.MethodPost, "/api/inviteUser", payload)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}
	data := body["data"].(map[string]any)
	if data["role"] != "super_admin" {
		t.Fatalf("role = %v, want canonical super_admin", data["role"])
	}
}

func TestPatchRequiresID(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodPatch, "/api/users", map[string]any{"is_active": true})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if body["error"] != "id is required" {
		t.Fatalf("error = %v", body["error"])
	}
}

func TestPatchSparseUpdate(t *testing.T) {
	app, profiles := newTestApp(t)

	doJSON(t, app, http.MethodPost, "/api/inviteUser", inviteBody())
	var id string
	for pid := range profiles.profiles {
		id = pid
	}

	resp, body := doJSON(t, app, http.MethodPatch, "/api/users", map[string]any{
		"id":    id,
		"phone": "777",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}
	data := body["data"].(map[string]any)
	if data["phone"] != "777" {
		t.Fatalf("phone = %v", data["phone"])
	}
	if data["full_name"] != "Ana Gómez" {
		t.Fatalf("full_name = %v, absent keys must stay untouched", data["full_name"])
	}
}

func TestPatchUnknownIDNotFound(t *testing.T) {
	app, _ := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPatch, "/api/users", map[string]any{
		"id":    "missing",
		"phone": "777",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestSuperAdminRendersActive(t *testing.T) {
	app, profiles := newTestApp(t)

	profiles.profiles["U1"] = &domain.Profile{
		ID: "U1", FullName: "Root", Email: "root@x.com",
		Role: domain.RoleSuperAdmin, Phone: "1", IsActive: false,
	}

	resp, body := doJSON(t, app, http.MethodGet, "/api/users", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	data := body["data"].([]any)
	view := data[0].(map[string]any)
	if view["is_active"] != true {
		t.Fatal("super_admin must always render active")
	}
}

func TestSetActiveEndpoint(t *testing.T) {
	app, profiles := newTestApp(t)

	doJSON(t, app, http.MethodPost, "/api/inviteUser", inviteBody())
	var id string
	for pid := range profiles.profiles {
		id = pid
	}

	resp, _ := doJSON(t, app, http.MethodPatch, "/api/users/active", map[string]any{
		"id": id, "is_active": false,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if profiles.profiles[id].IsActive {
		t.Fatal("is_active should be false")
	}

	// Repeating the same value is a no-op success.
	resp, _ = doJSON(t, app, http.MethodPatch, "/api/users/active", map[string]any{
		"id": id, "is_active": false,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("repeat status = %d", resp.StatusCode)
	}
}

func TestDeleteUser(t *testing.T) {
	app, profiles := newTestApp(t)

	doJSON(t, app, http.MethodPost, "/api/inviteUser", inviteBody())
	var id string
	for pid := range profiles.profiles {
		id = pid
	}

	resp, _ := doJSON(t, app, http.MethodDelete, "/api/users?id="+id, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if len(profiles.profiles) != 0 {
		t.Fatal("profile should be gone")
	}

	resp, _ = doJSON(t, app, http.MethodDelete, "/api/users?id="+id, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", resp.StatusCode)
	}

	resp, body := doJSON(t, app, http.MethodDelete, "/api/users", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing id status = %d, want 400", resp.StatusCode)
	}
	if body["error"] != "id is required" {
		t.Fatalf("error = %v", body["error"])
	}
}

func TestBranchesRequiresRestaurantParam(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/api/branches", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if body["error"] != "restaurant_id is required" {
		t.Fatalf("error = %v", body["error"])
	}
}

func TestBranchesAndRestaurants(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/branches?restaurant_id=R1", nil)
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("branches: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var branches []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&branches); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(branches) != 2 {
		t.Fatalf("len = %d", len(branches))
	}

	req = httptest.NewRequest(http.MethodGet, "/api/restaurants", nil)
	resp, err = app.Test(req, 5000)
	if err != nil {
		t.Fatalf("restaurants: %v", err)
	}
	var restaurants []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&restaurants); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(restaurants) != 2 {
		t.Fatalf("len = %d", len(restaurants))
	}
}

func TestRequestMetricsRecordTranslatedStatus(t *testing.T) {
	profiles := &memProfileRepo{
		profiles: map[string]*domain.Profile{},
		members:  map[string]string{},
	}
	directory := service.NewDirectoryService(service.DirectoryDependencies{
		ProfileRepo: profiles,
		CatalogRepo: &memCatalogRepo{},
		Provider:    &memProvider{accounts: map[string]string{}},
	})

	metrics := observability.NewMetrics()
	app := fiber.New()
	httptransport.RegisterMiddlewares(app, zap.NewNop(), metrics, 5*time.Second)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:  handlers.NewHealthHandler("test", "dev", nil, nil),
		Users:   handlers.NewUsersHandler(directory),
		Catalog: handlers.NewCatalogHandler(directory),
		Gate:    auth.NewGate(nil, profiles),
	})

	resp, _ := doJSON(t, app, http.MethodPatch, "/api/users", map[string]any{
		"id": "missing", "phone": "1",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}

	if got := metrics.RequestCount("/api/users", http.MethodPatch, http.StatusNotFound); got != 1 {
		t.Fatalf("404 count = %d, want 1", got)
	}
	if got := metrics.RequestCount("/api/users", http.MethodPatch, http.StatusOK); got != 0 {
		t.Fatalf("failed request counted as 200 (%d times)", got)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	app, _ := newTestApp(t)

	cases := []struct {
		method string
		target string
	}{
		{http.MethodPut, "/api/users"},
		{http.MethodPost, "/api/users"},
		{http.MethodGet, "/api/inviteUser"},
		{http.MethodDelete, "/api/restaurants"},
		{http.MethodPost, "/api/branches"},
	}
	for _, tc := range cases {
		resp, _ := doJSON(t, app, tc.method, tc.target, nil)
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Fatalf("%s %s status = %d, want 405", tc.method, tc.target, resp.StatusCode)
		}
	}
}
