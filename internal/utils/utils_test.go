package utils

import (
	"path/filepath"
	"testing"
)

func TestExpandTilde(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	if got := ExpandTilde("~/walls"); got != filepath.Join(home, "walls") {
		t.Fatalf("ExpandTilde = %q, want %q", got, filepath.Join(home, "walls"))
	}
	if got := ExpandTilde("/abs/path"); got != "/abs/path" {
		t.Fatalf("ExpandTilde = %q, want unchanged absolute path", got)
	}
}
