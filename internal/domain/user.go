// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

const (
	MaxUsernameLen = 36
	MaxRoomNameLen = 36
)

var (
	ErrUsernameTooLong = errors.New("username too long")
	ErrUsernameEmpty   = errors.New("username empty")
	ErrUsernameInvalid = errors.New("username invalid")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validName reports whether name is valid UTF-8, printable in any script and
// free of slashes.
func validName(name string) bool {
	if !utf8.ValidString(name) || !lo.EveryBy([]rune(name), unicode.IsPrint) {
		return false
	}
	return validate.Var(name, "excludesall=/") == nil
}

// UserName identifies a participant inside a room. It is the membership key.
type UserName string

// NewUserName trims and validates a screen name chosen at login.
func NewUserName(raw string) (UserName, error) {
	name := strings.TrimSpace(raw)
	if len(name) == 0 {
		return "", ErrUsernameEmpty
	}
	if utf8.RuneCountInString(name) > MaxUsernameLen {
		return "", ErrUsernameTooLong
	}
	if !validName(name) {
		return "", fmt.Errorf("%w: %q", ErrUsernameInvalid, name)
	}
	return UserName(name), nil
}

func (u UserName) String() string { return string(u) }
