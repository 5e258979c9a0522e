// Package awserr classifies AWS API errors into the outcomes controls report on.
package awserr

import (
	"errors"
	"strings"

	"github.com/aws/smithy-go"
)

// Kind is the class of an AWS API failure.
type Kind int

const (
	// KindNone means there was no error.
	KindNone Kind = iota
	// KindAccessDenied means the caller lacks permission.
	KindAccessDenied
	// KindNotFound means the resource does not exist.
	KindNotFound
	// KindCannotVerify covers every other failure.
	KindCannotVerify
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindAccessDenied:
		return "AccessDenied"
	case KindNotFound:
		return "NotFound"
	default:
		return "CannotVerify"
	}
}

var accessDeniedCodes = map[string]bool{
	"AccessDenied":          true,
	"AccessDeniedException": true,
	"UnauthorizedOperation": true,
	"AuthorizationError":    true,
	"AllAccessDisabled":     true,
}

// Classify maps an error to its Kind.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		switch {
		case accessDeniedCodes[code]:
			return KindAccessDenied
		case code == "NoSuchEntity", strings.HasPrefix(code, "NoSuch"), strings.HasSuffix(code, "NotFound"),
			strings.HasSuffix(code, "NotFoundException"):
			return KindNotFound
		}
		return KindCannotVerify
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "AccessDenied"):
		return KindAccessDenied
	case strings.Contains(msg, "NoSuchBucket"), strings.Contains(msg, "NoSuchEntity"):
		return KindNotFound
	}
	return KindCannotVerify
}

// IsNotFound reports whether err means the resource does not exist.
func IsNotFound(err error) bool {
	return Classify(err) == KindNotFound
}

// IsAccessDenied reports whether err is a permission failure.
func IsAccessDenied(err error) bool {
	return Classify(err) == KindAccessDenied
}
