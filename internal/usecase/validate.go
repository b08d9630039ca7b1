package usecase

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Louis-hue-lang/OrientaVision/internal/domain"
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)
	emailRe    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	upperRe    = regexp.MustCompile(`[A-Z]`)
	digitRe    = regexp.MustCompile(`[0-9]`)
)

func validateUsername(username string) error {
	if !usernameRe.MatchString(username) {
		return fmt.Errorf("%w: username must be 3-20 characters of letters, digits or underscores", domain.ErrBadRequest)
	}
	return nil
}

func validateEmail(email string) error {
	if !emailRe.MatchString(email) {
		return fmt.Errorf("%w: invalid email address", domain.ErrBadRequest)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 || !upperRe.MatchString(password) || !digitRe.MatchString(password) {
		return fmt.Errorf("%w: password must be at least 8 characters with an uppercase letter and a digit", domain.ErrBadRequest)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
