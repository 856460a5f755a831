package agouti

import (
	"strings"

	"github.com/devicelab-dev/gaiatest/pkg/core"
	"github.com/devicelab-dev/gaiatest/pkg/driver"
)

// agouti flattens WebDriver failures into "request unsuccessful: <message>",
// so the error code is recovered from the message text.
var (
	notFoundMarkers = []string{"no such element", "unable to locate element", "no such frame"}
	staleMarkers    = []string{"stale element reference", "stale element", "is no longer attached"}
)

// mapError translates agouti errors into the execution error taxonomy.
// Anything unrecognised is treated as a lost connection so that waits fail
// fast instead of mistaking it for an absent element.
func mapError(err error, by driver.By) error {
	if err == nil {
		return nil
	}
	if _, ok := core.AsExecutionError(err); ok {
		return err
	}

	var details map[string]interface{}
	if by.Value != "" {
		details = map[string]interface{}{"selector": by.String()}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, notFoundMarkers):
		return core.ErrElementNotFound.WithDetails(details).WithCause(err)
	case containsAny(msg, staleMarkers):
		return core.ErrStaleElement.WithDetails(details).WithCause(err)
	case strings.Contains(msg, "element not interactable"):
		return core.ErrElementNotVisible.WithDetails(details).WithCause(err)
	default:
		return core.ErrDeviceDisconnected.WithDetails(details).WithCause(err)
	}
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
