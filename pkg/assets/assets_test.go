package assets

import (
	"errors"
	"io"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/afero"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, p := range []string{"img/b.png", "img/a.jpg", "img/notes.txt", "hidden_img/a.jpg", "hidden_img/only-hidden.png"} {
		if err := afero.WriteFile(fs, p, []byte("x"), 0o644); err != nil {
			t.Fatalf("Expected no error writing %s, got %v", p, err)
		}
	}
	if err := fs.MkdirAll("img/sub", 0o755); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	return NewStore(fs, "img", "hidden_img")
}

func TestResolve(t *testing.T) {
	s := newTestStore(t)

	tests := []struct {
		ref  string
		want string
		err  error
	}{
		{"a.jpg", filepath.Join("img", "a.jpg"), nil},
		{"only-hidden.png", filepath.Join("hidden_img", "only-hidden.png"), nil},
		{"gone.png", "", ErrMissing},
		{"../secret", "", ErrInvalidRef},
		{"", "", ErrInvalidRef},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := s.Resolve(tt.ref)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("Expected %v, got %v", tt.err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestResolveTeaser(t *testing.T) {
	s := newTestStore(t)

	got, err := s.ResolveTeaser("a.jpg")
	if err != nil || got != filepath.Join("hidden_img", "a.jpg") {
		t.Errorf("Expected the obscured a.jpg, got %q (%v)", got, err)
	}
	got, err = s.ResolveTeaser("b.png")
	if err != nil || got != filepath.Join("img", "b.png") {
		t.Errorf("Expected b.png to fall back to visible, got %q (%v)", got, err)
	}
}

func TestCandidates(t *testing.T) {
	s := newTestStore(t)

	got, err := s.Candidates("a.jpg")
	want := []string{filepath.Join("img", "a.jpg"), filepath.Join("hidden_img", "a.jpg")}
	if err != nil || !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v (%v)", want, got, err)
	}
	got, err = s.Candidates("b.png")
	if err != nil || len(got) != 1 {
		t.Errorf("Expected only the visible b.png, got %v (%v)", got, err)
	}
	if _, err := s.Candidates("gone.png"); !errors.Is(err, ErrMissing) {
		t.Errorf("Expected ErrMissing, got %v", err)
	}
}

func TestListVisible(t *testing.T) {
	s := newTestStore(t)
	names, err := s.ListVisible()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if want := []string{"a.jpg", "b.png"}; !reflect.DeepEqual(names, want) {
		t.Errorf("Expected %v, got %v", want, names)
	}

	empty := NewStore(afero.NewMemMapFs(), "img", "hidden_img")
	names, err = empty.ListVisible()
	if err != nil || len(names) != 0 {
		t.Errorf("Expected an empty list for a missing dir, got %v (%v)", names, err)
	}
}

func TestWriteObscured(t *testing.T) {
	s := NewStore(afero.NewMemMapFs(), "img", "hidden_img")
	err := s.WriteObscured("c.png", func(w io.Writer) error {
		_, err := w.Write([]byte("teaser"))
		return err
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	data, err := afero.ReadFile(s.Fs(), filepath.Join("hidden_img", "c.png"))
	if err != nil || string(data) != "teaser" {
		t.Errorf("Expected the teaser bytes, got %q (%v)", data, err)
	}
}
