package session

import (
	"errors"
	"sync"

	"github.com/mmeshcher/meatmart/internal/validation"
)

// Mode описывает шаг формы входа по одноразовому коду.
type Mode string

const (
	ModeMobile   Mode = "mobile"
	ModeOTP      Mode = "otp"
	ModeRegister Mode = "register"
	ModeDone     Mode = "done"
)

var (
	// ErrBusy возвращается при повторной отправке формы до завершения предыдущей.
	ErrBusy = errors.New("previous submission is still in progress")
	// ErrWrongStep возвращается, если действие не соответствует текущему шагу формы.
	ErrWrongStep = errors.New("action is not allowed at this step")
)

// Flow хранит шаг формы входа: mobile -> otp -> (done | register -> done).
type Flow struct {
	mu      sync.Mutex
	mode    Mode
	mobile  string
	loading bool
}

// NewFlow создаёт форму на шаге ввода номера.
func NewFlow() *Flow {
	return &Flow{mode: ModeMobile}
}

// Mode возвращает текущий шаг.
func (f *Flow) Mode() Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode
}

// Mobile возвращает номер, введённый на первом шаге.
func (f *Flow) Mobile() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mobile
}

// SubmitMobile принимает номер и переводит форму на шаг ввода кода.
func (f *Flow) SubmitMobile(mobile string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.loading {
		return ErrBusy
	}
	if f.mode != ModeMobile && f.mode != ModeOTP {
		return ErrWrongStep
	}
	if err := validation.Mobile(mobile); err != nil {
		return err
	}

	f.mobile = mobile
	f.mode = ModeOTP
	return nil
}

// Begin отмечает начало отправки шага step. Пока отправка не завершена,
// повторная отправка отклоняется.
func (f *Flow) Begin(step Mode) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.loading {
		return ErrBusy
	}
	if f.mode != step {
		return ErrWrongStep
	}
	f.loading = true
	return nil
}

// End снимает признак отправки.
func (f *Flow) End() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = false
}

// Verified переводит форму после проверки кода: известный номер завершает вход,
// неизвестный ведёт к регистрации.
func (f *Flow) Verified(known bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.mode != ModeOTP {
		return
	}
	if known {
		f.mode = ModeDone
		return
	}
	f.mode = ModeRegister
}

// Back возвращает форму на предыдущий шаг.
func (f *Flow) Back() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.loading {
		return
	}
	switch f.mode {
	case ModeOTP:
		f.mode = ModeMobile
	case ModeRegister:
		f.mode = ModeOTP
	}
}
