package viewport

import (
	"errors"
	"testing"

	"github.com/hyperjump/tfexplorer/internal/camera"
)

func TestRegistry_CreateGetDelete(t *testing.T) {
	r := NewRegistry(4, nil, camera.DefaultPose())
	id, g := r.Create()
	if id == "" || g == nil {
		t.Fatal("Create returned empty values")
	}
	got, err := r.Get(id)
	if err != nil || got != g {
		t.Fatalf("Get: %v %v", got, err)
	}
	if !r.Delete(id) {
		t.Error("Delete should report existing viewport")
	}
	if r.Delete(id) {
		t.Error("second Delete should report false")
	}
	if _, err := r.Get(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRegistry_evictsLeastRecentlyUsed(t *testing.T) {
	r := NewRegistry(2, nil, camera.DefaultPose())
	a, _ := r.Create()
	b, _ := r.Create()
	if _, err := r.Get(a); err != nil {
		t.Fatal(err)
	}
	c, _ := r.Create() // evicts b
	if _, err := r.Get(b); !errors.Is(err, ErrNotFound) {
		t.Error("expected b to be evicted")
	}
	for _, id := range []string{a, c} {
		if _, err := r.Get(id); err != nil {
			t.Errorf("%s should remain: %v", id, err)
		}
	}
	if r.Len() != 2 {
		t.Errorf("Len = %d", r.Len())
	}
}
