// Package service реализует бизнес-логику витрины мясного магазина.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/meatmart/internal/cart"
	"github.com/mmeshcher/meatmart/internal/catalog"
	"github.com/mmeshcher/meatmart/internal/export"
	"github.com/mmeshcher/meatmart/internal/loyalty"
	"github.com/mmeshcher/meatmart/internal/model"
	"github.com/mmeshcher/meatmart/internal/orders"
	"github.com/mmeshcher/meatmart/internal/pricing"
	"github.com/mmeshcher/meatmart/internal/session"
	"github.com/mmeshcher/meatmart/internal/shell"
	"github.com/mmeshcher/meatmart/internal/storage"
	"github.com/mmeshcher/meatmart/internal/validation"
)

var (
	// ErrInvalidCredentials возвращается, если пара номер и пароль не найдена в списке допуска.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNoSession возвращается для операций, требующих активной сессии.
	ErrNoSession = errors.New("no active session")
	// ErrOutOfStock возвращается при добавлении в корзину отсутствующего товара.
	ErrOutOfStock = errors.New("meat is out of stock")
)

// Repository описывает долговременное хранилище клиентских данных.
type Repository interface {
	storage.Backend
	Close() error
}

// Options задаёт необязательные параметры сервиса.
type Options struct {
	// Latency имитирует задержку сетевого вызова для операций входа и чтения заказов.
	Latency time.Duration
	// Now возвращает текущее время. По умолчанию time.Now.
	Now func() time.Time
	// Settings задаёт параметры магазина.
	Settings model.Settings
}

// Service содержит бизнес-логику витрины.
type Service struct {
	repo     Repository
	catalog  *catalog.Catalog
	orders   []model.Order
	logger   *zap.Logger
	latency  time.Duration
	now      func() time.Time
	settings model.Settings

	locksMu sync.Mutex
	locks   map[string]*clientLock

	flowsMu   sync.Mutex
	flows     map[string]*flowEntry
	lastSweep time.Time
}

// clientLock упорядочивает операции одного клиента над сессией и корзиной.
type clientLock struct {
	mu   sync.Mutex
	refs int
}

// flowEntry хранит форму входа клиента и время последнего обращения к ней.
type flowEntry struct {
	flow    *session.Flow
	touched time.Time
}

const (
	// flowTTL ограничивает время жизни незавершённой формы входа.
	flowTTL           = 15 * time.Minute
	flowSweepInterval = time.Minute
)

// NewService создаёт сервис поверх хранилища, каталога и списка заказов.
func NewService(repo Repository, cat *catalog.Catalog, all []model.Order, logger *zap.Logger, opts Options) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		repo:     repo,
		catalog:  cat,
		orders:   all,
		logger:   logger,
		latency:  opts.Latency,
		now:      now,
		settings: opts.Settings,
		locks:    make(map[string]*clientLock),
		flows:    make(map[string]*flowEntry),
	}
}

// DefaultSettings возвращает параметры демонстрационного магазина.
func DefaultSettings() model.Settings {
	return model.Settings{
		StoreName:         "MeatMart",
		SupportMobile:     "9999999999",
		DeliveryFee:       40,
		FreeDeliveryAbove: 499,
		MinOrderAmount:    199,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// simulateLatency ждёт заданную задержку. Отменённый запрос прерывает ожидание,
// и вызывающая операция не применяет своих изменений.
func (s *Service) simulateLatency(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(s.latency)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Service) openSession(ctx context.Context, clientID string) (*session.Store, error) {
	slot := storage.NewSlot[model.Identity](s.repo, clientID, storage.KeyUser)
	return session.Open(ctx, slot, s.logger.With(zap.String("client", clientID)))
}

func (s *Service) openCart(ctx context.Context, clientID string) (*cart.Store, error) {
	sess, err := s.openSession(ctx, clientID)
	if err != nil {
		return nil, err
	}

	slot := storage.NewSlot[[]model.CartItem](s.repo, clientID, storage.KeyCart)
	c, err := cart.Open(ctx, slot, sess.IsAuthenticated(), s.logger.With(zap.String("client", clientID)))
	if err != nil {
		return nil, err
	}
	if !sess.IsAuthenticated() {
		return nil, ErrNoSession
	}
	return c, nil
}

// lockClient захватывает блокировку клиента и возвращает функцию её освобождения.
// Запись удаляется из таблицы, когда её больше никто не ждёт.
func (s *Service) lockClient(clientID string) func() {
	s.locksMu.Lock()
	l, ok := s.locks[clientID]
	if !ok {
		l = &clientLock{}
		s.locks[clientID] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, clientID)
		}
		s.locksMu.Unlock()
	}
}

// lookupFlow возвращает сохранённую форму входа клиента.
func (s *Service) lookupFlow(clientID string) (*session.Flow, bool) {
	s.flowsMu.Lock()
	defer s.flowsMu.Unlock()

	now := s.now()
	s.sweepFlows(now)

	e, ok := s.flows[clientID]
	if !ok {
		return nil, false
	}
	e.touched = now
	return e.flow, true
}

func (s *Service) storeFlow(clientID string, f *session.Flow) {
	s.flowsMu.Lock()
	defer s.flowsMu.Unlock()
	s.flows[clientID] = &flowEntry{flow: f, touched: s.now()}
}

// sweepFlows удаляет брошенные формы входа. Вызывается под flowsMu.
func (s *Service) sweepFlows(now time.Time) {
	if !s.lastSweep.IsZero() && now.Sub(s.lastSweep) < flowSweepInterval {
		return
	}
	s.lastSweep = now

	for id, e := range s.flows {
		if now.Sub(e.touched) > flowTTL {
			delete(s.flows, id)
		}
	}
}

func (s *Service) dropFlow(clientID string) {
	s.flowsMu.Lock()
	defer s.flowsMu.Unlock()
	delete(s.flows, clientID)
}

// Login выполняет вход по номеру и паролю или коду "1234".
func (s *Service) Login(ctx context.Context, clientID, mobile, credential string) (*model.Identity, error) {
	if err := validation.Login(mobile, credential); err != nil {
		return nil, err
	}
	if err := s.simulateLatency(ctx); err != nil {
		return nil, err
	}

	unlock := s.lockClient(clientID)
	defer unlock()

	sess, err := s.openSession(ctx, clientID)
	if err != nil {
		return nil, err
	}

	ok, err := sess.Login(ctx, mobile, credential)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	s.dropFlow(clientID)
	return sess.Identity(), nil
}

// RequestOTP принимает номер телефона и переводит форму входа на шаг ввода кода.
func (s *Service) RequestOTP(ctx context.Context, clientID, mobile string) (session.Mode, error) {
	f, ok := s.lookupFlow(clientID)
	if !ok {
		f = session.NewFlow()
	}
	if err := f.SubmitMobile(mobile); err != nil {
		return f.Mode(), err
	}
	if !ok {
		s.storeFlow(clientID, f)
	}
	return f.Mode(), nil
}

// VerifyOTP проверяет код для номера, введённого на предыдущем шаге.
// Для номера вне списка допуска форма переходит к регистрации, личность не создаётся.
func (s *Service) VerifyOTP(ctx context.Context, clientID, code string) (session.Mode, *model.Identity, error) {
	f, ok := s.lookupFlow(clientID)
	if !ok {
		return session.ModeMobile, nil, session.ErrWrongStep
	}
	if err := f.Begin(session.ModeOTP); err != nil {
		return f.Mode(), nil, err
	}
	defer f.End()

	mobile := f.Mobile()
	if err := validation.OTP(mobile, code); err != nil {
		return f.Mode(), nil, err
	}
	if err := s.simulateLatency(ctx); err != nil {
		return f.Mode(), nil, err
	}
	if code != session.DemoOTP {
		return f.Mode(), nil, ErrInvalidCredentials
	}

	if _, known := session.FindAccount(mobile); !known {
		f.Verified(false)
		return f.Mode(), nil, nil
	}

	unlock := s.lockClient(clientID)
	defer unlock()

	sess, err := s.openSession(ctx, clientID)
	if err != nil {
		return f.Mode(), nil, err
	}
	accepted, err := sess.Login(ctx, mobile, code)
	if err != nil {
		return f.Mode(), nil, err
	}
	if !accepted {
		return f.Mode(), nil, ErrInvalidCredentials
	}

	f.Verified(true)
	return f.Mode(), sess.Identity(), nil
}

// OTPBack возвращает форму входа на предыдущий шаг.
func (s *Service) OTPBack(ctx context.Context, clientID string) session.Mode {
	f, ok := s.lookupFlow(clientID)
	if !ok {
		return session.ModeMobile
	}
	f.Back()
	return f.Mode()
}

// RegisterRequest содержит данные формы регистрации.
type RegisterRequest struct {
	Mobile          string `json:"mobile"`
	Name            string `json:"name"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Register создаёт личность покупателя. Если форма входа по коду дошла до шага
// регистрации для того же номера, пароль не требуется.
func (s *Service) Register(ctx context.Context, clientID string, req RegisterRequest) (*model.Identity, error) {
	f, ok := s.lookupFlow(clientID)
	viaOTP := ok && f.Mode() == session.ModeRegister && f.Mobile() == req.Mobile

	credential := req.Password
	if viaOTP && req.Password == "" && req.ConfirmPassword == "" {
		if err := validation.Profile(req.Mobile, req.Name); err != nil {
			return nil, err
		}
		credential = session.DemoOTP
	} else if err := validation.Registration(req.Mobile, req.Name, req.Password, req.ConfirmPassword); err != nil {
		return nil, err
	}

	if err := s.simulateLatency(ctx); err != nil {
		return nil, err
	}

	unlock := s.lockClient(clientID)
	defer unlock()

	sess, err := s.openSession(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if _, err := sess.Register(ctx, req.Mobile, req.Name, credential); err != nil {
		return nil, err
	}

	s.dropFlow(clientID)
	return sess.Identity(), nil
}

// Logout завершает сессию клиента. Корзина остаётся в хранилище до следующего открытия.
func (s *Service) Logout(ctx context.Context, clientID string) error {
	unlock := s.lockClient(clientID)
	defer unlock()

	sess, err := s.openSession(ctx, clientID)
	if err != nil {
		return err
	}
	s.dropFlow(clientID)
	return sess.Logout(ctx)
}

// CurrentIdentity возвращает активную личность клиента или nil.
func (s *Service) CurrentIdentity(ctx context.Context, clientID string) (*model.Identity, error) {
	sess, err := s.openSession(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return sess.Identity(), nil
}

// Shell возвращает оболочку клиента и решение о доступе к маршруту path.
func (s *Service) Shell(ctx context.Context, clientID, path string) (shell.Shell, shell.Decision, error) {
	identity, err := s.CurrentIdentity(ctx, clientID)
	if err != nil {
		return shell.Shell{}, shell.Decision{}, err
	}
	return shell.Resolve(identity), shell.Guard(path, identity), nil
}

// Cart возвращает корзину клиента.
func (s *Service) Cart(ctx context.Context, clientID string) (model.CartSummary, error) {
	unlock := s.lockClient(clientID)
	defer unlock()

	c, err := s.openCart(ctx, clientID)
	if err != nil {
		return model.CartSummary{}, err
	}
	return c.Summary(), nil
}

// AddToCartRequest содержит данные для добавления товара в корзину.
type AddToCartRequest struct {
	ProductID string  `json:"productId"`
	Weight    float64 `json:"weight"`
	OfferID   string  `json:"offerId,omitempty"`
}

// AddToCart добавляет товар каталога в корзину. Вес приводится к диапазону
// [минимальный вес товара, 10 кг], нулевой вес заменяется минимальным.
func (s *Service) AddToCart(ctx context.Context, clientID string, req AddToCartRequest) (model.CartSummary, error) {
	meat, err := s.catalog.Meat(req.ProductID)
	if err != nil {
		return model.CartSummary{}, err
	}
	if !meat.InStock {
		return model.CartSummary{}, ErrOutOfStock
	}

	unitPrice, err := s.catalog.UnitPrice(meat, req.OfferID, s.now())
	if err != nil {
		return model.CartSummary{}, err
	}

	unlock := s.lockClient(clientID)
	defer unlock()

	c, err := s.openCart(ctx, clientID)
	if err != nil {
		return model.CartSummary{}, err
	}

	weight := pricing.DetailStepper(meat.MinKg).Clamp(req.Weight)
	item := model.CartItem{
		ProductID: meat.ID,
		Name:      meat.Name,
		UnitPrice: unitPrice,
		MinWeight: meat.MinKg,
		Weight:    weight,
		Image:     meat.Image,
	}
	if err := c.AddToCart(ctx, item); err != nil {
		return model.CartSummary{}, err
	}
	return c.Summary(), nil
}

// UpdateCartWeight изменяет вес позиции корзины.
func (s *Service) UpdateCartWeight(ctx context.Context, clientID, productID string, weight float64) (model.CartSummary, error) {
	unlock := s.lockClient(clientID)
	defer unlock()

	c, err := s.openCart(ctx, clientID)
	if err != nil {
		return model.CartSummary{}, err
	}
	if err := c.UpdateWeight(ctx, productID, weight); err != nil {
		return model.CartSummary{}, err
	}
	return c.Summary(), nil
}

// StepCartWeight изменяет вес позиции корзины на один шаг корзины (0.1 кг).
// Отсутствующий товар игнорируется.
func (s *Service) StepCartWeight(ctx context.Context, clientID, productID string, dir pricing.Direction) (model.CartSummary, error) {
	unlock := s.lockClient(clientID)
	defer unlock()

	c, err := s.openCart(ctx, clientID)
	if err != nil {
		return model.CartSummary{}, err
	}

	item, ok := c.Item(productID)
	if !ok {
		return c.Summary(), nil
	}
	next, ok := pricing.CartStepper().Move(item.Weight, dir)
	if !ok {
		return model.CartSummary{}, validation.ErrInvalidStep
	}
	if err := c.UpdateWeight(ctx, productID, next); err != nil {
		return model.CartSummary{}, err
	}
	return c.Summary(), nil
}

// StepMeatWeight возвращает вес товара после одного шага на экране view.
func (s *Service) StepMeatWeight(ctx context.Context, id string, view pricing.View, weight float64, dir pricing.Direction) (float64, error) {
	meat, err := s.catalog.Meat(id)
	if err != nil {
		return 0, err
	}
	stepper, ok := pricing.ForView(view, meat.MinKg)
	if !ok {
		return 0, validation.ErrInvalidView
	}
	next, ok := stepper.Move(stepper.Clamp(weight), dir)
	if !ok {
		return 0, validation.ErrInvalidStep
	}
	return next, nil
}

// RemoveFromCart удаляет позицию корзины.
func (s *Service) RemoveFromCart(ctx context.Context, clientID, productID string) (model.CartSummary, error) {
	unlock := s.lockClient(clientID)
	defer unlock()

	c, err := s.openCart(ctx, clientID)
	if err != nil {
		return model.CartSummary{}, err
	}
	if err := c.RemoveFromCart(ctx, productID); err != nil {
		return model.CartSummary{}, err
	}
	return c.Summary(), nil
}

// ClearCart очищает корзину клиента.
func (s *Service) ClearCart(ctx context.Context, clientID string) error {
	unlock := s.lockClient(clientID)
	defer unlock()

	c, err := s.openCart(ctx, clientID)
	if err != nil {
		return err
	}
	return c.ClearCart(ctx)
}

// Orders возвращает заказы текущего покупателя.
func (s *Service) Orders(ctx context.Context, clientID string) ([]model.Order, error) {
	identity, err := s.CurrentIdentity(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, ErrNoSession
	}
	if err := s.simulateLatency(ctx); err != nil {
		return nil, err
	}
	return orders.ByCustomer(s.orders, identity.ID), nil
}

// Profile возвращает профиль текущего покупателя.
func (s *Service) Profile(ctx context.Context, clientID string) (*model.Profile, error) {
	identity, err := s.CurrentIdentity(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, ErrNoSession
	}

	own := orders.ByCustomer(s.orders, identity.ID)
	totals := make([]float64, 0, len(own))
	for _, o := range own {
		totals = append(totals, o.TotalAmount)
	}

	return &model.Profile{
		Identity:   *identity,
		OrderCount: len(own),
		TotalSpent: pricing.Sum(totals...),
	}, nil
}

// Categories возвращает категории каталога.
func (s *Service) Categories(ctx context.Context) []model.Category {
	return s.catalog.Categories()
}

// Category возвращает категорию и её товары.
func (s *Service) Category(ctx context.Context, id string) (model.Category, []model.Meat, error) {
	cat, err := s.catalog.Category(id)
	if err != nil {
		return model.Category{}, nil, err
	}
	meats, err := s.catalog.MeatsByCategory(id)
	if err != nil {
		return model.Category{}, nil, err
	}
	return cat, meats, nil
}

// Meat возвращает товар каталога.
func (s *Service) Meat(ctx context.Context, id string) (model.Meat, error) {
	return s.catalog.Meat(id)
}

// Meats возвращает все товары каталога.
func (s *Service) Meats(ctx context.Context) []model.Meat {
	return s.catalog.Meats()
}

// Offers возвращает действующие предложения.
func (s *Service) Offers(ctx context.Context) []model.Offer {
	return s.catalog.Offers(s.now())
}

// AllOffers возвращает все предложения, включая истёкшие.
func (s *Service) AllOffers(ctx context.Context) []model.Offer {
	return s.catalog.AllOffers()
}

// Settings возвращает параметры магазина.
func (s *Service) Settings(ctx context.Context) model.Settings {
	return s.settings
}

// FilterOrders возвращает заказы, прошедшие фильтр административной панели.
func (s *Service) FilterOrders(ctx context.Context, c orders.Criteria) ([]model.Order, error) {
	if err := s.simulateLatency(ctx); err != nil {
		return nil, err
	}
	return orders.Filter(s.orders, c, s.now()), nil
}

// LoyaltyAudience возвращает покупателей для программы лояльности.
func (s *Service) LoyaltyAudience(ctx context.Context, c orders.Criteria) ([]model.Customer, error) {
	if err := s.simulateLatency(ctx); err != nil {
		return nil, err
	}
	return loyalty.Audience(s.orders, c, s.now()), nil
}

// ExportOrders записывает отфильтрованные заказы в книгу Excel.
func (s *Service) ExportOrders(ctx context.Context, c orders.Criteria, w io.Writer) error {
	filtered, err := s.FilterOrders(ctx, c)
	if err != nil {
		return err
	}
	if err := export.Orders(w, filtered); err != nil {
		return fmt.Errorf("export orders: %w", err)
	}
	return nil
}
