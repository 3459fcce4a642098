package usbtool

import (
	"errors"
	"testing"
)

func TestParseIdentity(t *testing.T) {
	tests := []struct {
		input   string
		want    Identity
		wantErr bool
	}{
		{"0403:6001", Identity{Vendor: "0403", Product: "6001"}, false},
		{"1a86:7523", Identity{Vendor: "1a86", Product: "7523"}, false},
		{"1A86:7523", Identity{}, true},  // uppercase
		{"0403-6001", Identity{}, true},  // no colon
		{"04036001", Identity{}, true},   // too short
		{"0403:60011", Identity{}, true}, // too long
		{"040:36001", Identity{}, true},  // colon misplaced
		{"04g3:6001", Identity{}, true},  // not hex
		{"", Identity{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseIdentity(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedIdentity) {
					t.Errorf("ParseIdentity(%q) error = %v, want ErrMalformedIdentity", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseIdentity(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseIdentity(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
			if got.String() != tt.input {
				t.Errorf("String() = %q, want %q", got.String(), tt.input)
			}
		})
	}
}

func TestCatalogLookupIsExact(t *testing.T) {
	catalog := ParseCatalog("Bus 001 Device 002: ID 1234:5678 Test Device\n")

	tests := []struct {
		id   string
		want bool
	}{
		{"1234:5678", true},
		{"1234:5679", false},
		{"1234-5678", false},
		{" 1234:5678", false},
		{"1234:567", false},
	}

	for _, tt := range tests {
		if got := catalog.Contains(tt.id); got != tt.want {
			t.Errorf("Contains(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
