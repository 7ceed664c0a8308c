package cache

import (
	"testing"
	"time"
)

func TestMemorySetGet(t *testing.T) {
	m := NewMemory()
	m.Set("token", "abc", 0)

	got, ok := m.Get("token")
	if !ok || got != "abc" {
		t.Fatalf("Get = %q, %v; want abc, true", got, ok)
	}
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory()
	current := time.Unix(1000, 0)
	m.now = func() time.Time { return current }

	m.Set("token", "abc", time.Minute)
	if _, ok := m.Get("token"); !ok {
		t.Fatal("entry should be live before expiry")
	}

	current = current.Add(2 * time.Minute)
	if _, ok := m.Get("token"); ok {
		t.Fatal("entry should have expired")
	}
	if _, ok := m.entries["token"]; ok {
		t.Fatal("expired entry should be deleted on read")
	}
}

func TestMemoryDelete(t *testing.T) {
	m := NewMemory()
	m.Set("token", "abc", 0)
	m.Delete("token")
	if _, ok := m.Get("token"); ok {
		t.Fatal("deleted entry should be gone")
	}
}
