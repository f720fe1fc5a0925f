//go:build linux

package setter

import (
	"fmt"
	"os/exec"
)

// Apply sets the GNOME desktop background via gsettings. Both the light
// and dark picture keys are set so the change is visible regardless of the
// active color scheme.
func (d *Desktop) Apply(path string) error {
	uri := "file://" + path
	for _, key := range []string{"picture-uri", "picture-uri-dark"} {
		cmd := exec.Command("gsettings", "set", "org.gnome.desktop.background", key, uri)
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("set wallpaper (%s): %w: %s", key, err, out)
		}
	}
	return nil
}
