package cookie

import (
	"strings"
	"testing"
)

func TestCreateNameDeterministic(t *testing.T) {
	a := CreateName("remember", "session")
	b := CreateName("remember", "session")
	if a != b {
		t.Fatalf("CreateName is not deterministic: %q vs %q", a, b)
	}
	if !strings.HasPrefix(a, "remember_") {
		t.Fatalf("name %q lacks descriptor prefix", a)
	}
	if a == CreateName("remember", "other-session") {
		t.Fatalf("distinct seeds produced the same name")
	}
}

func TestCreateNamePrefixPropagation(t *testing.T) {
	secure := CreateName("remember", PrefixSecure+"session")
	if !strings.HasPrefix(secure, PrefixSecure+"remember_") {
		t.Fatalf("__Secure- prefix not propagated: %q", secure)
	}

	host := CreateName("remember", PrefixHost+"session")
	if !strings.HasPrefix(host, PrefixHost+"remember_") {
		t.Fatalf("__Host- prefix not propagated: %q", host)
	}

	if secure == host {
		t.Fatalf("distinct prefixes produced the same name")
	}
}

func TestCreateRememberName(t *testing.T) {
	got := CreateRememberName("session")
	want := CreateName("remember", "session")
	if got != want {
		t.Fatalf("CreateRememberName = %q, want %q", got, want)
	}
}
