// Package errors classifies errors into short labels for metric tags and logs.
package errors

import (
	goerrors "errors"
	"reflect"
	"strings"

	apperrors "github.com/target/knowlio-web/internal/errors"
)

// Classify returns a normalized label for err. Application errors report
// their code; anything else reports the innermost concrete type in snake-ish
// form (e.g. "net_operror").
func Classify(err error) string {
	if err == nil {
		return ""
	}

	var appErr *apperrors.AppError
	if goerrors.As(err, &appErr) && appErr.Code != "" {
		return string(appErr.Code)
	}

	for {
		unwrapped := goerrors.Unwrap(err)
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}

	name := strings.ToLower(strings.ReplaceAll(t.String(), "*", ""))
	name = strings.ReplaceAll(name, ".", "_")
	if name == "" {
		return "unknown"
	}
	return name
}
