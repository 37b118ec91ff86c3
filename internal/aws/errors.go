package aws

import (
	"errors"
	"strings"

	"github.com/aws/smithy-go"
)

// ErrorClass buckets an API error for the retry policy.
type ErrorClass int

const (
	ErrOther ErrorClass = iota
	ErrThrottled
	ErrExpiredCredentials
	ErrServiceUnavailable
	ErrNotFound
)

// Classify maps an API error onto a retry class. Error codes are checked
// first; message substrings catch the services that wrap throttling and
// credential expiry in generic codes.
func Classify(err error) ErrorClass {
	if err == nil {
		return ErrOther
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		switch code {
		case "Throttling", "ThrottlingException", "RequestLimitExceeded", "TooManyRequestsException":
			return ErrThrottled
		case "ExpiredToken", "ExpiredTokenException", "RequestExpired":
			return ErrExpiredCredentials
		case "ServiceUnavailable", "ServiceUnavailableException", "RequestTimeout":
			return ErrServiceUnavailable
		case "UnauthorizedOperation", "AccessDenied", "AccessDeniedException":
			return ErrOther
		}
		if strings.HasSuffix(code, ".NotFound") || strings.HasSuffix(code, "NotFoundException") {
			return ErrNotFound
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "throttl"), strings.Contains(msg, "rate exceeded"):
		return ErrThrottled
	case strings.Contains(msg, "expiredtoken"), strings.Contains(msg, "token has expired"),
		strings.Contains(msg, "security token included in the request is expired"):
		return ErrExpiredCredentials
	case strings.Contains(msg, "service unavailable"):
		return ErrServiceUnavailable
	case strings.Contains(msg, "not found"), strings.Contains(msg, "does not exist"):
		return ErrNotFound
	}
	return ErrOther
}

// IsNotFound reports whether err is a missing-resource API error.
func IsNotFound(err error) bool {
	return Classify(err) == ErrNotFound
}
