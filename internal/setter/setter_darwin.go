//go:build darwin

package setter

import (
	"fmt"
	"os/exec"
	"strconv"
)

// Apply tells Finder via System Events to set the desktop picture.
func (d *Desktop) Apply(path string) error {
	script := `tell application "System Events" to tell every desktop to set picture to ` + strconv.Quote(path)
	if out, err := exec.Command("osascript", "-e", script).CombinedOutput(); err != nil {
		return fmt.Errorf("set wallpaper: %w: %s", err, out)
	}
	return nil
}
