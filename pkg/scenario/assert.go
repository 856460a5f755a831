package scenario

import (
	"fmt"

	"github.com/devicelab-dev/gaiatest/pkg/core"
	"github.com/stretchr/testify/assert"
)

// Equal fails unless actual equals expected.
func Equal(what string, expected, actual interface{}) error {
	if assert.ObjectsAreEqual(expected, actual) {
		return nil
	}
	return core.ErrTextMismatch.
		WithMessage(fmt.Sprintf("%s: expected %#v, got %#v", what, expected, actual)).
		WithDetails(map[string]interface{}{"expected": expected, "actual": actual})
}

// True fails unless ok holds.
func True(what string, ok bool) error {
	if ok {
		return nil
	}
	return core.ErrConditionNotMet.WithMessage(what)
}

// False fails if ok holds.
func False(what string, ok bool) error {
	return True(what, !ok)
}

// Greater fails unless actual > bound.
func Greater(what string, actual, bound int) error {
	if actual > bound {
		return nil
	}
	return core.ErrConditionNotMet.
		WithMessage(fmt.Sprintf("%s: %d is not greater than %d", what, actual, bound)).
		WithDetails(map[string]interface{}{"actual": actual, "bound": bound})
}

// Check returns the first failure of checks.
func Check(checks ...error) error {
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	return nil
}
