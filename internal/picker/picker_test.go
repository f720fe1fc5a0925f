package picker

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("img"), 0o644); err != nil {
			t.Fatalf("WriteFile %s: %v", name, err)
		}
	}
}

func TestList_FiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "b.jpg", "a.PNG", "notes.txt", "c.webp")
	if err := os.Mkdir(filepath.Join(dir, "sub.jpg"), 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	p, err := New(nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	got, err := p.List(dir)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}

	want := []string{
		filepath.Join(dir, "a.PNG"),
		filepath.Join(dir, "b.jpg"),
		filepath.Join(dir, "c.webp"),
	}
	if len(got) != len(want) {
		t.Fatalf("List = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("List[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestList_NoMatchesFails(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "notes.txt")

	p, err := New(nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := p.List(dir); !errors.Is(err, ErrNoCandidates) {
		t.Fatalf("List error = %v, want ErrNoCandidates", err)
	}
}

func TestList_CustomPatterns(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.jpg", "b.gif")

	p, err := New([]string{"*.gif"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	got, err := p.List(dir)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(got) != 1 || got[0] != filepath.Join(dir, "b.gif") {
		t.Fatalf("List = %v, want only b.gif", got)
	}
}

func TestNew_BadPatternFails(t *testing.T) {
	if _, err := New([]string{"[unclosed"}); err == nil {
		t.Fatalf("New returned nil error, want compile failure")
	}
}

func TestPick_ExcludesLastWhenAlternativesExist(t *testing.T) {
	p, err := New(nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	candidates := []string{"/w/a.jpg", "/w/b.jpg", "/w/c.jpg"}

	for i := 0; i < 50; i++ {
		got, err := p.Pick(candidates, "/w/b.jpg")
		if err != nil {
			t.Fatalf("Pick returned error: %v", err)
		}
		if got == "/w/b.jpg" {
			t.Fatalf("Pick repeated the excluded candidate")
		}
	}
}

func TestPick_SingleCandidateMayRepeat(t *testing.T) {
	p, err := New(nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	got, err := p.Pick([]string{"/w/only.jpg"}, "/w/only.jpg")
	if err != nil {
		t.Fatalf("Pick returned error: %v", err)
	}
	if got != "/w/only.jpg" {
		t.Fatalf("Pick = %q, want the only candidate", got)
	}
}

func TestPick_NoCandidatesFails(t *testing.T) {
	p, err := New(nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := p.Pick(nil, ""); !errors.Is(err, ErrNoCandidates) {
		t.Fatalf("Pick error = %v, want ErrNoCandidates", err)
	}
}
