package services

import (
	"errors"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("boom")
	err := Wrap(ErrUnavailable, "igdb", "post", "connect", base)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped base error, got %v", err)
	}
	want := "service unavailable: igdb: post: connect: boom"
	if err.Error() != want {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "", "", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
	if err.Error() != "transient failure: service failure" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestFatal(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{Wrap(ErrConfiguration, "igdb", "token", "bad credentials", nil), true},
		{Wrap(ErrUnavailable, "moby", "get", "no route", nil), true},
		{Wrap(ErrTransient, "igdb", "post", "timeout", nil), false},
		{Wrap(ErrNotFound, "store", "rom", "missing", nil), false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := Fatal(tc.err); got != tc.want {
			t.Fatalf("Fatal(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
