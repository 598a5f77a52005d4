package util

import (
	"errors"
	"strings"
)

// ErrPublic is an error whose message can be echoed to the end user as is.
type ErrPublic string

func (e ErrPublic) Error() string {
	return string(e)
}

// Is matches any other ErrPublic, use errors.As to get the message back.
func (e ErrPublic) Is(v error) bool {
	_, ok := v.(ErrPublic)
	return ok
}

// PublicMessage returns the user-facing message carried by err, if any.
func PublicMessage(err error) (string, bool) {
	if err == nil || !errors.Is(err, ErrPublic("")) {
		return "", false
	}

	return err.Error(), true
}

func ConcatErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	filtered := make([]string, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err.Error())
		}
	}

	if len(filtered) == 0 {
		return nil
	}

	return errors.New(strings.Join(filtered, "; "))
}
