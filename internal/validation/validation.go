// Package validation содержит проверки входных данных форм входа и регистрации.
package validation

import "strings"

// Error описывает ошибку проверки пользовательского ввода.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrInvalidMobile    = &Error{Field: "mobile", Message: "please enter a valid 10-digit mobile number"}
	ErrMissingPassword  = &Error{Field: "password", Message: "password is required"}
	ErrMissingOTP       = &Error{Field: "otp", Message: "otp is required"}
	ErrMissingName      = &Error{Field: "name", Message: "name is required"}
	ErrPasswordMismatch = &Error{Field: "confirmPassword", Message: "passwords do not match"}
	ErrInvalidStep      = &Error{Field: "step", Message: "step must be up or down"}
	ErrInvalidView      = &Error{Field: "view", Message: "view must be card or detail"}
)

// IsValidMobile проверяет, что номер состоит ровно из 10 ASCII-цифр.
func IsValidMobile(mobile string) bool {
	if len(mobile) != 10 {
		return false
	}
	for i := 0; i < len(mobile); i++ {
		if mobile[i] < '0' || mobile[i] > '9' {
			return false
		}
	}
	return true
}

// Mobile возвращает ErrInvalidMobile для некорректного номера.
func Mobile(mobile string) error {
	if !IsValidMobile(mobile) {
		return ErrInvalidMobile
	}
	return nil
}

// Login проверяет форму входа по паролю.
func Login(mobile, password string) error {
	if err := Mobile(mobile); err != nil {
		return err
	}
	if strings.TrimSpace(password) == "" {
		return ErrMissingPassword
	}
	return nil
}

// OTP проверяет форму входа по одноразовому коду.
func OTP(mobile, code string) error {
	if err := Mobile(mobile); err != nil {
		return err
	}
	if strings.TrimSpace(code) == "" {
		return ErrMissingOTP
	}
	return nil
}

// Profile проверяет номер и имя при регистрации после входа по коду.
func Profile(mobile, name string) error {
	if err := Mobile(mobile); err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" {
		return ErrMissingName
	}
	return nil
}

// Registration проверяет форму регистрации с паролем.
func Registration(mobile, name, password, confirm string) error {
	if err := Mobile(mobile); err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" {
		return ErrMissingName
	}
	if strings.TrimSpace(password) == "" {
		return ErrMissingPassword
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	return nil
}
