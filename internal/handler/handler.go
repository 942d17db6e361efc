// Package handler содержит HTTP-обработчики API витрины мясного магазина.
package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/meatmart/internal/catalog"
	"github.com/mmeshcher/meatmart/internal/export"
	"github.com/mmeshcher/meatmart/internal/middleware"
	"github.com/mmeshcher/meatmart/internal/model"
	"github.com/mmeshcher/meatmart/internal/orders"
	"github.com/mmeshcher/meatmart/internal/pricing"
	"github.com/mmeshcher/meatmart/internal/service"
	"github.com/mmeshcher/meatmart/internal/session"
	"github.com/mmeshcher/meatmart/internal/shell"
	"github.com/mmeshcher/meatmart/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	Login(ctx context.Context, clientID, mobile, credential string) (*model.Identity, error)
	RequestOTP(ctx context.Context, clientID, mobile string) (session.Mode, error)
	VerifyOTP(ctx context.Context, clientID, code string) (session.Mode, *model.Identity, error)
	OTPBack(ctx context.Context, clientID string) session.Mode
	Register(ctx context.Context, clientID string, req service.RegisterRequest) (*model.Identity, error)
	Logout(ctx context.Context, clientID string) error
	CurrentIdentity(ctx context.Context, clientID string) (*model.Identity, error)
	Shell(ctx context.Context, clientID, path string) (shell.Shell, shell.Decision, error)

	Cart(ctx context.Context, clientID string) (model.CartSummary, error)
	AddToCart(ctx context.Context, clientID string, req service.AddToCartRequest) (model.CartSummary, error)
	UpdateCartWeight(ctx context.Context, clientID, productID string, weight float64) (model.CartSummary, error)
	StepCartWeight(ctx context.Context, clientID, productID string, dir pricing.Direction) (model.CartSummary, error)
	RemoveFromCart(ctx context.Context, clientID, productID string) (model.CartSummary, error)
	ClearCart(ctx context.Context, clientID string) error

	Orders(ctx context.Context, clientID string) ([]model.Order, error)
	Profile(ctx context.Context, clientID string) (*model.Profile, error)

	Categories(ctx context.Context) []model.Category
	Category(ctx context.Context, id string) (model.Category, []model.Meat, error)
	Meat(ctx context.Context, id string) (model.Meat, error)
	StepMeatWeight(ctx context.Context, id string, view pricing.View, weight float64, dir pricing.Direction) (float64, error)
	Meats(ctx context.Context) []model.Meat
	Offers(ctx context.Context) []model.Offer
	AllOffers(ctx context.Context) []model.Offer
	Settings(ctx context.Context) model.Settings

	FilterOrders(ctx context.Context, c orders.Criteria) ([]model.Order, error)
	LoyaltyAudience(ctx context.Context, c orders.Criteria) ([]model.Customer, error)
	ExportOrders(ctx context.Context, c orders.Criteria, w io.Writer) error
}

// Handler реализует HTTP-обработчики API витрины.
type Handler struct {
	service Service
	logger  *zap.Logger
	clients *middleware.ClientMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, clients *middleware.ClientMiddleware) *Handler {
	return &Handler{
		service: s,
		logger:  logger,
		clients: clients,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("encode response error", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, errorResponse{Error: msg})
}

// fail переводит ошибку сервиса в HTTP-ответ.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		h.writeError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, service.ErrInvalidCredentials):
		h.writeError(w, http.StatusUnauthorized, "invalid mobile number or password")
	case errors.Is(err, service.ErrNoSession):
		h.writeError(w, http.StatusUnauthorized, "please log in to continue")
	case errors.Is(err, catalog.ErrMeatNotFound),
		errors.Is(err, catalog.ErrCategoryNotFound),
		errors.Is(err, catalog.ErrOfferNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, catalog.ErrOfferNotApplicable):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrOutOfStock),
		errors.Is(err, session.ErrBusy),
		errors.Is(err, session.ErrWrongStep):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.logger.Info("request cancelled", zap.String("op", op), zap.Error(err))
		h.writeError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		h.logger.Error(op+" error", zap.Error(err),
			zap.String("client", clientID(r)))
		h.writeError(w, http.StatusInternalServerError, "operation failed")
	}
}

func clientID(r *http.Request) string {
	id, _ := middleware.GetClientIDFromContext(r.Context())
	return id
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}

type sessionResponse struct {
	Identity        *model.Identity `json:"identity"`
	IsAuthenticated bool            `json:"isAuthenticated"`
	IsAdmin         bool            `json:"isAdmin"`
}

func newSessionResponse(identity *model.Identity) sessionResponse {
	return sessionResponse{
		Identity:        identity,
		IsAuthenticated: identity != nil,
		IsAdmin:         identity != nil && identity.IsAdmin,
	}
}

type loginRequest struct {
	Mobile   string `json:"mobile"`
	Password string `json:"password"`
}

// Login выполняет вход по номеру и паролю или коду.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}

	identity, err := h.service.Login(r.Context(), clientID(r), req.Mobile, req.Password)
	if err != nil {
		h.fail(w, r, "login", err)
		return
	}

	h.writeJSON(w, http.StatusOK, newSessionResponse(identity))
}

type otpRequest struct {
	Mobile string `json:"mobile"`
	OTP    string `json:"otp"`
}

type flowResponse struct {
	Mode string `json:"mode"`
	sessionResponse
}

// RequestOTP принимает номер телефона для входа по коду.
func (h *Handler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if !h.decode(w, r, &req) {
		return
	}

	mode, err := h.service.RequestOTP(r.Context(), clientID(r), req.Mobile)
	if err != nil {
		h.fail(w, r, "request otp", err)
		return
	}

	h.writeJSON(w, http.StatusOK, flowResponse{Mode: string(mode)})
}

// VerifyOTP проверяет одноразовый код.
func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if !h.decode(w, r, &req) {
		return
	}

	mode, identity, err := h.service.VerifyOTP(r.Context(), clientID(r), req.OTP)
	if err != nil {
		h.fail(w, r, "verify otp", err)
		return
	}

	h.writeJSON(w, http.StatusOK, flowResponse{Mode: string(mode), sessionResponse: newSessionResponse(identity)})
}

// OTPBack возвращает форму входа на предыдущий шаг.
func (h *Handler) OTPBack(w http.ResponseWriter, r *http.Request) {
	mode := h.service.OTPBack(r.Context(), clientID(r))
	h.writeJSON(w, http.StatusOK, flowResponse{Mode: string(mode)})
}

// Register создаёт личность покупателя.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	identity, err := h.service.Register(r.Context(), clientID(r), req)
	if err != nil {
		h.fail(w, r, "register", err)
		return
	}

	h.writeJSON(w, http.StatusOK, newSessionResponse(identity))
}

// Logout завершает сессию.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), clientID(r)); err != nil {
		h.fail(w, r, "logout", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Session возвращает текущую личность и признаки доступа.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	identity, err := h.service.CurrentIdentity(r.Context(), clientID(r))
	if err != nil {
		h.fail(w, r, "session", err)
		return
	}
	h.writeJSON(w, http.StatusOK, newSessionResponse(identity))
}

type shellResponse struct {
	Shell    shell.Shell    `json:"shell"`
	Decision shell.Decision `json:"decision"`
}

// Shell возвращает оболочку навигации и решение о доступе к маршруту.
func (h *Handler) Shell(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		path = "/"
	}

	sh, decision, err := h.service.Shell(r.Context(), clientID(r), path)
	if err != nil {
		h.fail(w, r, "shell", err)
		return
	}
	h.writeJSON(w, http.StatusOK, shellResponse{Shell: sh, Decision: decision})
}

// Categories возвращает категории каталога.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.Categories(r.Context()))
}

type categoryResponse struct {
	Category model.Category `json:"category"`
	Meats    []model.Meat   `json:"meats"`
}

// Category возвращает категорию и её товары.
func (h *Handler) Category(w http.ResponseWriter, r *http.Request) {
	cat, meats, err := h.service.Category(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "category", err)
		return
	}
	h.writeJSON(w, http.StatusOK, categoryResponse{Category: cat, Meats: meats})
}

// Meat возвращает товар каталога.
func (h *Handler) Meat(w http.ResponseWriter, r *http.Request) {
	meat, err := h.service.Meat(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "meat", err)
		return
	}
	h.writeJSON(w, http.StatusOK, meat)
}

type weightStepRequest struct {
	View   pricing.View      `json:"view"`
	Weight float64           `json:"weight"`
	Step   pricing.Direction `json:"step"`
}

type weightStepResponse struct {
	Weight float64 `json:"weight"`
}

// StepMeatWeight возвращает вес товара после одного шага выбора веса.
func (h *Handler) StepMeatWeight(w http.ResponseWriter, r *http.Request) {
	var req weightStepRequest
	if !h.decode(w, r, &req) {
		return
	}

	weight, err := h.service.StepMeatWeight(r.Context(), chi.URLParam(r, "id"), req.View, req.Weight, req.Step)
	if err != nil {
		h.fail(w, r, "step weight", err)
		return
	}
	h.writeJSON(w, http.StatusOK, weightStepResponse{Weight: weight})
}

// Offers возвращает действующие предложения.
func (h *Handler) Offers(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.Offers(r.Context()))
}

// Cart возвращает корзину.
func (h *Handler) Cart(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Cart(r.Context(), clientID(r))
	if err != nil {
		h.fail(w, r, "get cart", err)
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

// AddToCart добавляет товар в корзину.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req service.AddToCartRequest
	if !h.decode(w, r, &req) {
		return
	}

	summary, err := h.service.AddToCart(r.Context(), clientID(r), req)
	if err != nil {
		h.fail(w, r, "add to cart", err)
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

type weightRequest struct {
	Weight *float64          `json:"weight"`
	Step   pricing.Direction `json:"step"`
}

// UpdateCartItem задаёт вес позиции корзины или меняет его на один шаг.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req weightRequest
	if !h.decode(w, r, &req) {
		return
	}

	productID := chi.URLParam(r, "productID")

	var (
		summary model.CartSummary
		err     error
	)
	switch {
	case req.Weight != nil:
		summary, err = h.service.UpdateCartWeight(r.Context(), clientID(r), productID, *req.Weight)
	case req.Step != "":
		summary, err = h.service.StepCartWeight(r.Context(), clientID(r), productID, req.Step)
	default:
		h.writeError(w, http.StatusBadRequest, "weight or step is required")
		return
	}
	if err != nil {
		h.fail(w, r, "update cart", err)
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

// RemoveCartItem удаляет позицию корзины.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.RemoveFromCart(r.Context(), clientID(r), chi.URLParam(r, "productID"))
	if err != nil {
		h.fail(w, r, "remove from cart", err)
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

// ClearCart очищает корзину.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearCart(r.Context(), clientID(r)); err != nil {
		h.fail(w, r, "clear cart", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Orders возвращает заказы текущего покупателя.
func (h *Handler) Orders(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Orders(r.Context(), clientID(r))
	if err != nil {
		h.fail(w, r, "get orders", err)
		return
	}
	h.writeJSON(w, http.StatusOK, list)
}

// Profile возвращает профиль текущего покупателя.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.Profile(r.Context(), clientID(r))
	if err != nil {
		h.fail(w, r, "get profile", err)
		return
	}
	h.writeJSON(w, http.StatusOK, profile)
}

// RequireAdmin пропускает только запросы администратора.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := h.service.CurrentIdentity(r.Context(), clientID(r))
		if err != nil {
			h.fail(w, r, "admin session", err)
			return
		}
		if identity == nil {
			h.writeError(w, http.StatusUnauthorized, "please log in to continue")
			return
		}
		if !identity.IsAdmin {
			h.writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AdminMeats возвращает все товары каталога.
func (h *Handler) AdminMeats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.Meats(r.Context()))
}

// AdminOffers возвращает все предложения, включая истёкшие.
func (h *Handler) AdminOffers(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.AllOffers(r.Context()))
}

// AdminSettings возвращает параметры магазина.
func (h *Handler) AdminSettings(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.Settings(r.Context()))
}

func criteriaFromQuery(r *http.Request) orders.Criteria {
	q := r.URL.Query()
	return orders.Criteria{
		Name:       q.Get("name"),
		Mobile:     q.Get("mobile"),
		AmountMin:  q.Get("amountMin"),
		AmountMax:  q.Get("amountMax"),
		Category:   q.Get("category"),
		PastDays:   q.Get("pastDays"),
		OrderCount: q.Get("orderCount"),
	}
}

// AdminOrders возвращает заказы, прошедшие фильтр.
func (h *Handler) AdminOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.FilterOrders(r.Context(), criteriaFromQuery(r))
	if err != nil {
		h.fail(w, r, "filter orders", err)
		return
	}
	h.writeJSON(w, http.StatusOK, list)
}

// ExportOrders отдаёт отфильтрованные заказы книгой Excel.
func (h *Handler) ExportOrders(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.service.ExportOrders(r.Context(), criteriaFromQuery(r), &buf); err != nil {
		h.fail(w, r, "export orders", err)
		return
	}

	w.Header().Set("Content-Type", export.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", `attachment; filename="orders.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("write export error", zap.Error(err))
	}
}

// LoyaltyRewards возвращает покупателей, подходящих под условия программы лояльности.
func (h *Handler) LoyaltyRewards(w http.ResponseWriter, r *http.Request) {
	audience, err := h.service.LoyaltyAudience(r.Context(), criteriaFromQuery(r))
	if err != nil {
		h.fail(w, r, "loyalty audience", err)
		return
	}
	h.writeJSON(w, http.StatusOK, audience)
}
