package scaffold

import (
	"fmt"
	"os"
)

// CheckExisting checks if crossbake.yml already exists.
// Returns an error if it does, nil otherwise.
func CheckExisting() error {
	if _, err := os.Stat("crossbake.yml"); err == nil {
		return fmt.Errorf("project already initialized\n\nFound existing: crossbake.yml\n\nUse 'crossbake init --force' to reinitialize (this will overwrite the existing configuration)")
	}

	return nil
}
