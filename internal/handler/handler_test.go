package handler

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmeshcher/meatmart/internal/catalog"
	"github.com/mmeshcher/meatmart/internal/export"
	"github.com/mmeshcher/meatmart/internal/middleware"
	"github.com/mmeshcher/meatmart/internal/model"
	"github.com/mmeshcher/meatmart/internal/orders"
	"github.com/mmeshcher/meatmart/internal/pricing"
	"github.com/mmeshcher/meatmart/internal/repository"
	"github.com/mmeshcher/meatmart/internal/service"
	"github.com/mmeshcher/meatmart/internal/session"
	"github.com/mmeshcher/meatmart/internal/shell"
	"github.com/mmeshcher/meatmart/internal/validation"
)

type stubService struct {
	identity *model.Identity
	err      error

	cart       model.CartSummary
	addReq     service.AddToCartRequest
	criteria   orders.Criteria
	ordersResp []model.Order
	step       pricing.Direction
}

func (s *stubService) Login(ctx context.Context, clientID, mobile, credential string) (*model.Identity, error) {
	return s.identity, s.err
}

func (s *stubService) RequestOTP(ctx context.Context, clientID, mobile string) (session.Mode, error) {
	return session.ModeOTP, s.err
}

func (s *stubService) VerifyOTP(ctx context.Context, clientID, code string) (session.Mode, *model.Identity, error) {
	return session.ModeDone, s.identity, s.err
}

func (s *stubService) OTPBack(ctx context.Context, clientID string) session.Mode {
	return session.ModeMobile
}

func (s *stubService) Register(ctx context.Context, clientID string, req service.RegisterRequest) (*model.Identity, error) {
	return s.identity, s.err
}

func (s *stubService) Logout(ctx context.Context, clientID string) error {
	return s.err
}

func (s *stubService) CurrentIdentity(ctx context.Context, clientID string) (*model.Identity, error) {
	return s.identity, nil
}

func (s *stubService) Shell(ctx context.Context, clientID, path string) (shell.Shell, shell.Decision, error) {
	return shell.Resolve(s.identity), shell.Guard(path, s.identity), s.err
}

func (s *stubService) Cart(ctx context.Context, clientID string) (model.CartSummary, error) {
	return s.cart, s.err
}

func (s *stubService) AddToCart(ctx context.Context, clientID string, req service.AddToCartRequest) (model.CartSummary, error) {
	s.addReq = req
	return s.cart, s.err
}

func (s *stubService) UpdateCartWeight(ctx context.Context, clientID, productID string, weight float64) (model.CartSummary, error) {
	return s.cart, s.err
}

func (s *stubService) StepCartWeight(ctx context.Context, clientID, productID string, dir pricing.Direction) (model.CartSummary, error) {
	s.step = dir
	return s.cart, s.err
}

func (s *stubService) RemoveFromCart(ctx context.Context, clientID, productID string) (model.CartSummary, error) {
	return s.cart, s.err
}

func (s *stubService) ClearCart(ctx context.Context, clientID string) error {
	return s.err
}

func (s *stubService) Orders(ctx context.Context, clientID string) ([]model.Order, error) {
	return s.ordersResp, s.err
}

func (s *stubService) Profile(ctx context.Context, clientID string) (*model.Profile, error) {
	return &model.Profile{}, s.err
}

func (s *stubService) Categories(ctx context.Context) []model.Category { return nil }

func (s *stubService) Category(ctx context.Context, id string) (model.Category, []model.Meat, error) {
	return model.Category{}, nil, s.err
}

func (s *stubService) Meat(ctx context.Context, id string) (model.Meat, error) {
	return model.Meat{}, s.err
}

func (s *stubService) StepMeatWeight(ctx context.Context, id string, view pricing.View, weight float64, dir pricing.Direction) (float64, error) {
	s.step = dir
	return weight + 0.5, s.err
}

func (s *stubService) Meats(ctx context.Context) []model.Meat { return nil }
func (s *stubService) Offers(ctx context.Context) []model.Offer { return nil }
func (s *stubService) AllOffers(ctx context.Context) []model.Offer { return nil }

func (s *stubService) Settings(ctx context.Context) model.Settings {
	return service.DefaultSettings()
}

func (s *stubService) FilterOrders(ctx context.Context, c orders.Criteria) ([]model.Order, error) {
	s.criteria = c
	return s.ordersResp, s.err
}

func (s *stubService) LoyaltyAudience(ctx context.Context, c orders.Criteria) ([]model.Customer, error) {
	s.criteria = c
	return nil, s.err
}

func (s *stubService) ExportOrders(ctx context.Context, c orders.Criteria, w io.Writer) error {
	s.criteria = c
	if s.err != nil {
		return s.err
	}
	_, err := w.Write([]byte("xlsx"))
	return err
}

func newTestHandler(t *testing.T, svc Service) *Handler {
	t.Helper()
	return NewHandler(svc, zap.NewNop(), middleware.NewClientMiddleware("test-secret"))
}

func withClient(r *http.Request) *http.Request {
	return r.WithContext(middleware.WithClientID(r.Context(), "client-1"))
}

func decodeError(t *testing.T, res *http.Response) string {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	return body.Error
}

func TestLogin_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{name: "validation", err: validation.ErrInvalidMobile, wantStatus: http.StatusBadRequest, wantError: validation.ErrInvalidMobile.Message},
		{name: "credentials", err: service.ErrInvalidCredentials, wantStatus: http.StatusUnauthorized, wantError: "invalid mobile number or password"},
		{name: "cancelled", err: context.Canceled, wantStatus: http.StatusServiceUnavailable, wantError: "request cancelled"},
		{name: "internal", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantError: "operation failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, &stubService{err: tt.err})

			body := `{"mobile":"9876543210","password":"x"}`
			req := withClient(httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body)))
			rec := httptest.NewRecorder()

			h.Login(rec, req)

			res := rec.Result()
			defer res.Body.Close()
			assert.Equal(t, tt.wantStatus, res.StatusCode)
			assert.Equal(t, tt.wantError, decodeError(t, res))
		})
	}
}

func TestLogin_Success(t *testing.T) {
	identity := &model.Identity{ID: "admin-1", Mobile: "9999999999", Name: "Store Admin", IsAdmin: true}
	h := newTestHandler(t, &stubService{identity: identity})

	req := withClient(httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"mobile":"9999999999","password":"admin123"}`)))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	res := rec.Result()
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))

	var got sessionResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
	assert.True(t, got.IsAuthenticated)
	assert.True(t, got.IsAdmin)
	assert.Equal(t, "admin-1", got.Identity.ID)
}

func TestLogin_MalformedBody(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	req := withClient(httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("{")))
	rec := httptest.NewRecorder()

	h.Login(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCart_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "no session", err: service.ErrNoSession, wantStatus: http.StatusUnauthorized},
		{name: "unknown meat", err: catalog.ErrMeatNotFound, wantStatus: http.StatusNotFound},
		{name: "out of stock", err: service.ErrOutOfStock, wantStatus: http.StatusConflict},
		{name: "foreign offer", err: catalog.ErrOfferNotApplicable, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, &stubService{err: tt.err})

			req := withClient(httptest.NewRequest(http.MethodPost, "/api/cart/items", strings.NewReader(`{"productId":"1","weight":0.5}`)))
			rec := httptest.NewRecorder()

			h.AddToCart(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestAddToCart_PassesRequest(t *testing.T) {
	svc := &stubService{cart: model.CartSummary{Items: []model.CartItem{}, TotalAmount: 140, ItemCount: 0.5}}
	h := newTestHandler(t, svc)

	req := withClient(httptest.NewRequest(http.MethodPost, "/api/cart/items", strings.NewReader(`{"productId":"1","weight":0.5,"offerId":"1"}`)))
	rec := httptest.NewRecorder()

	h.AddToCart(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.AddToCartRequest{ProductID: "1", Weight: 0.5, OfferID: "1"}, svc.addReq)

	var got model.CartSummary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, 140.0, got.TotalAmount)
}

func TestAdminRoutes_Access(t *testing.T) {
	tests := []struct {
		name       string
		identity   *model.Identity
		wantStatus int
	}{
		{name: "anonymous", identity: nil, wantStatus: http.StatusUnauthorized},
		{name: "customer", identity: &model.Identity{ID: "1"}, wantStatus: http.StatusForbidden},
		{name: "admin", identity: &model.Identity{ID: "admin-1", IsAdmin: true}, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{identity: tt.identity, ordersResp: []model.Order{}}
			router := newTestHandler(t, svc).SetupRouter()

			req := httptest.NewRequest(http.MethodGet, "/api/admin/orders?name=john&orderCount=%3E%3D2", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, orders.Criteria{Name: "john", OrderCount: ">=2"}, svc.criteria)
			}
		})
	}
}

func TestExportOrders_Headers(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	req := withClient(httptest.NewRequest(http.MethodGet, "/api/admin/orders/export?amountMin=500", nil))
	rec := httptest.NewRecorder()

	h.ExportOrders(rec, req)

	res := rec.Result()
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, export.ContentTypeXLSX, res.Header.Get("Content-Type"))
	assert.Contains(t, res.Header.Get("Content-Disposition"), "orders.xlsx")

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, "xlsx", string(body))
}

func TestShell_DefaultsToRoot(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	req := withClient(httptest.NewRequest(http.MethodGet, "/api/shell", nil))
	rec := httptest.NewRecorder()

	h.Shell(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got shellResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, shell.KindCustomer, got.Shell.Kind)
	assert.Equal(t, "/auth", got.Decision.Redirect)
}

func TestRouter_CustomerJourney(t *testing.T) {
	svc := service.NewService(repository.NewMemoryRepository(), catalog.Fixture(), orders.Fixture(), zap.NewNop(), service.Options{
		Settings: service.DefaultSettings(),
	})
	router := newTestHandler(t, svc).SetupRouter()

	var cookies []*http.Cookie
	do := func(method, path, body string) *httptest.ResponseRecorder {
		var reader io.Reader
		if body != "" {
			reader = bytes.NewBufferString(body)
		}
		req := httptest.NewRequest(method, path, reader)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if issued := rec.Result().Cookies(); len(issued) > 0 {
			cookies = issued
		}
		return rec
	}

	rec := do(http.MethodGet, "/api/cart", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotEmpty(t, cookies)

	rec = do(http.MethodPost, "/api/auth/login", `{"mobile":"9876543210","password":"customer123"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(http.MethodPost, "/api/cart/items", `{"productId":"1","weight":0.5}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(http.MethodPut, "/api/cart/items/1", `{"weight":1.5}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var summary model.CartSummary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&summary))
	assert.Equal(t, 420.0, summary.TotalAmount)

	rec = do(http.MethodGet, "/api/admin/settings", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(http.MethodPost, "/api/auth/logout", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(http.MethodGet, "/api/cart", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdateCartItem_WeightOrStep(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantStep   pricing.Direction
	}{
		{name: "explicit weight", body: `{"weight":1.5}`, wantStatus: http.StatusOK},
		{name: "zero weight", body: `{"weight":0}`, wantStatus: http.StatusOK},
		{name: "step up", body: `{"step":"up"}`, wantStatus: http.StatusOK, wantStep: pricing.Up},
		{name: "nothing to change", body: `{}`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{cart: model.CartSummary{Items: []model.CartItem{}}}
			router := newTestHandler(t, svc).SetupRouter()

			req := httptest.NewRequest(http.MethodPut, "/api/cart/items/1", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantStep, svc.step)
		})
	}
}

func TestStepMeatWeight_Handler(t *testing.T) {
	svc := &stubService{}
	router := newTestHandler(t, svc).SetupRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/meats/1/weight-step", strings.NewReader(`{"view":"card","weight":0.5,"step":"up"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pricing.Up, svc.step)

	var got weightStepResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, 1.0, got.Weight)
}

func TestStepMeatWeight_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "unknown meat", err: catalog.ErrMeatNotFound, wantStatus: http.StatusNotFound},
		{name: "unknown view", err: validation.ErrInvalidView, wantStatus: http.StatusBadRequest},
		{name: "unknown direction", err: validation.ErrInvalidStep, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, &stubService{err: tt.err})

			req := withClient(httptest.NewRequest(http.MethodPost, "/api/meats/1/weight-step", strings.NewReader(`{"view":"card","step":"up"}`)))
			rec := httptest.NewRecorder()

			h.StepMeatWeight(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRouter_CartSteps(t *testing.T) {
	svc := service.NewService(repository.NewMemoryRepository(), catalog.Fixture(), orders.Fixture(), zap.NewNop(), service.Options{
		Settings: service.DefaultSettings(),
	})
	router := newTestHandler(t, svc).SetupRouter()

	var cookies []*http.Cookie
	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if issued := rec.Result().Cookies(); len(issued) > 0 {
			cookies = issued
		}
		return rec
	}

	rec := do(http.MethodPost, "/api/auth/login", `{"mobile":"9876543210","password":"customer123"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(http.MethodPost, "/api/cart/items", `{"productId":"1","weight":1.5}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(http.MethodPut, "/api/cart/items/1", `{"step":"up"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var summary model.CartSummary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&summary))
	require.Len(t, summary.Items, 1)
	assert.Equal(t, 1.6, summary.Items[0].Weight)
	assert.InDelta(t, 448.0, summary.TotalAmount, 1e-9)

	rec = do(http.MethodPut, "/api/cart/items/1", `{"step":"sideways"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(http.MethodPost, "/api/meats/1/weight-step", `{"view":"card","weight":0.5,"step":"up"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var stepped weightStepResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stepped))
	assert.Equal(t, 1.0, stepped.Weight)
}

func TestRouter_Compression(t *testing.T) {
	svc := service.NewService(repository.NewMemoryRepository(), catalog.Fixture(), orders.Fixture(), zap.NewNop(), service.Options{
		Settings: service.DefaultSettings(),
	})
	router := newTestHandler(t, svc).SetupRouter()

	var login bytes.Buffer
	zw := gzip.NewWriter(&login)
	_, err := zw.Write([]byte(`{"mobile":"9999999999","password":"admin123"}`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", &login)
	req.Header.Set("Content-Encoding", "gzip")
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	res := rec.Result()
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "gzip", res.Header.Get("Content-Encoding"))
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))

	zr, err := gzip.NewReader(res.Body)
	require.NoError(t, err)
	defer zr.Close()

	var got sessionResponse
	require.NoError(t, json.NewDecoder(zr).Decode(&got))
	assert.True(t, got.IsAdmin)

	cookies := res.Cookies()
	require.NotEmpty(t, cookies)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/orders/export", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentTypeXLSX, rec.Header().Get("Content-Type"))
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"))
}
