package cookie

import (
	"testing"
	"time"
)

func TestMemoryJarRoundTrip(t *testing.T) {
	j := NewMemoryJar()

	if _, ok := j.Get("missing"); ok {
		t.Fatalf("Get reported a missing cookie")
	}

	c := Cookie{
		Name:     "remember_abc",
		Value:    "selector~token",
		Expires:  time.Unix(1_700_000_000, 0),
		Path:     "/",
		HTTPOnly: true,
		SameSite: SameSiteLax,
	}
	if err := j.Set(c); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok := j.Get("remember_abc")
	if !ok {
		t.Fatalf("Get failed after Set")
	}
	if got != c {
		t.Fatalf("Get = %+v, want %+v", got, c)
	}

	if err := j.Delete("remember_abc"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok := j.Get("remember_abc"); ok {
		t.Fatalf("cookie survived Delete")
	}
}

func TestMemoryJarNamesAndClear(t *testing.T) {
	j := NewMemoryJar()
	if err := j.Set(Cookie{Name: "a", Value: "1"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := j.Set(Cookie{Name: "b", Value: "2"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if names := j.Names(); len(names) != 2 {
		t.Fatalf("Names = %v, want 2 entries", names)
	}
	if err := j.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if names := j.Names(); len(names) != 0 {
		t.Fatalf("Names after Clear = %v", names)
	}
}

func TestCookieExpired(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	if (Cookie{}).Expired(now) {
		t.Fatalf("cookie without expiry reported expired")
	}
	if (Cookie{Expires: now.Add(time.Hour)}).Expired(now) {
		t.Fatalf("future cookie reported expired")
	}
	if !(Cookie{Expires: now.Add(-time.Hour)}).Expired(now) {
		t.Fatalf("past cookie not reported expired")
	}
}
