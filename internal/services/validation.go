package services

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	MaxTitleLength       = 30
	MinDescriptionLength = 10
	MaxDescriptionLength = 500
	MinRejectReason      = 5
	MaxRejectReason      = 255
	MinNameLength        = 2
	MaxNameLength        = 40
	MinPasswordLength    = 6
	MaxPasswordLength    = 18
)

var (
	emojiPattern       = regexp.MustCompile(`[\x{1F000}-\x{1FAFF}\x{2600}-\x{27BF}\x{1F1E6}-\x{1F1FF}\x{200D}\x{FE0F}\x{2B00}-\x{2BFF}\x{3030}\x{303D}\x{3297}\x{3299}]`)
	angleBracket       = regexp.MustCompile(`[<>]`)
	javascriptScheme   = regexp.MustCompile(`(?i)\bjavascript\s*:`)
	inlineEventHandler = regexp.MustCompile(`(?i)\bon\w+\s*=`)
	namePattern        = regexp.MustCompile(`^[\p{L}\s.]+$`)
	nonDigit           = regexp.MustCompile(`\D`)
	repeatedDigits     = regexp.MustCompile(`^(0+|1+|2+|3+|4+|5+|6+|7+|8+|9+)$`)
)

// HasEmoji reports pictographs, regional indicators, zero-width joiners and
// variation selectors.
func HasEmoji(s string) bool {
	return emojiPattern.MatchString(s)
}

// HasScriptLikeInput reports markup or inline script fragments.
func HasScriptLikeInput(s string) bool {
	return angleBracket.MatchString(s) || javascriptScheme.MatchString(s) || inlineEventHandler.MatchString(s)
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	switch {
	case title == "":
		return "", validationFailed("title is required")
	case runeLen(title) > MaxTitleLength:
		return "", validationFailed("title must be at most %d characters", MaxTitleLength)
	case HasEmoji(title):
		return "", validationFailed("title must not contain emoji")
	case HasScriptLikeInput(title):
		return "", validationFailed("title contains forbidden content")
	}
	return title, nil
}

func validateDescription(desc string) error {
	n := runeLen(desc)
	switch {
	case n < MinDescriptionLength || n > MaxDescriptionLength:
		return validationFailed("description must be between %d and %d characters", MinDescriptionLength, MaxDescriptionLength)
	case HasScriptLikeInput(desc):
		return validationFailed("description contains forbidden content")
	}
	return nil
}

func validateRejectReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if n := runeLen(reason); n < MinRejectReason || n > MaxRejectReason {
		return "", validationFailed("reject reason must be between %d and %d characters", MinRejectReason, MaxRejectReason)
	}
	return reason, nil
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	n := runeLen(name)
	switch {
	case n < MinNameLength:
		return "", validationFailed("name must be at least %d characters", MinNameLength)
	case n > MaxNameLength:
		return "", validationFailed("name must be at most %d characters", MaxNameLength)
	case !namePattern.MatchString(name):
		return "", validationFailed("name may contain only letters, spaces and dots")
	}
	return name, nil
}

func validatePassword(password string) error {
	if n := runeLen(password); n < MinPasswordLength || n > MaxPasswordLength {
		return validationFailed("password must be between %d and %d characters", MinPasswordLength, MaxPasswordLength)
	}
	return nil
}

// NameKey folds a display name for uniqueness checks.
func NameKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// NormalizeCPF strips everything but digits.
func NormalizeCPF(cpf string) string {
	return nonDigit.ReplaceAllString(cpf, "")
}

// ValidCPF checks length and both check digits of a normalized CPF.
func ValidCPF(cpf string) bool {
	if len(cpf) != 11 || repeatedDigits.MatchString(cpf) {
		return false
	}
	digit := func(n int) int {
		sum := 0
		for i := 0; i < n; i++ {
			sum += int(cpf[i]-'0') * (n + 1 - i)
		}
		check := (sum * 10) % 11
		if check == 10 {
			check = 0
		}
		return check
	}
	return digit(9) == int(cpf[9]-'0') && digit(10) == int(cpf[10]-'0')
}

// ParseID turns a path parameter into a report or user id.
func ParseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, invalidArgument("invalid id")
	}
	return id, nil
}
