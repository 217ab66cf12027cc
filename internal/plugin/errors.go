package plugin

import (
	"fmt"
)

// ErrPluginNotFound is returned when the requested effect is not registered.
type ErrPluginNotFound struct {
	ID string
}

func (e ErrPluginNotFound) Error() string {
	return fmt.Sprintf("effect '%s' not found in registry\nHint: list registered effects to find the current id", e.ID)
}
