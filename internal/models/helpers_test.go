package models

import "testing"

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want string
	}{
		{"integer", 42, "42"},
		{"fraction", 21.5, "21.5"},
		{"negative", -3.25, "-3.25"},
		{"large", 1e21, "1000000000000000000000"},
		{"zero", 0, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatNumber(tt.in)
			if got != tt.want {
				t.Errorf("FormatNumber(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEntityKey(t *testing.T) {
	e := Entity{Type: EntityEmail, Value: "a@b.com"}
	if got := e.Key(); got != "email:a@b.com" {
		t.Errorf("Key() = %q, want %q", got, "email:a@b.com")
	}
}

func TestAuthMethodValid(t *testing.T) {
	for _, m := range []AuthMethod{"", AuthNone, AuthBearer, AuthAPIKey, AuthBasic} {
		if !m.Valid() {
			t.Errorf("%q should be valid", m)
		}
	}
	if AuthMethod("oauth").Valid() {
		t.Error("oauth should be invalid")
	}
}
