//go:build !linux && !darwin

package setter

import "errors"

func (d *Desktop) Apply(path string) error {
	return errors.New("set wallpaper: unsupported desktop environment")
}
