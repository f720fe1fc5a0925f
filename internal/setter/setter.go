// Package setter applies a chosen image to the desktop environment.
package setter

// Setter applies a wallpaper image to the desktop.
type Setter interface {
	Apply(path string) error
}

// Desktop is the platform-native Setter for the current OS.
type Desktop struct{}

// New returns a Setter for the current desktop environment.
func New() *Desktop {
	return &Desktop{}
}
