package usbtool

import (
	"context"
	"errors"
	"testing"
)

func TestParseCatalog(t *testing.T) {
	tests := []struct {
		name    string
		listing string
		want    Catalog
	}{
		{
			name:    "ftdi",
			listing: "Bus 001 Device 004: ID 0403:6001 Future Technology Devices International, Ltd FT232 Serial",
			want: Catalog{
				"0403:6001": "Future Technology Devices International, Ltd FT232 Serial",
			},
		},
		{
			name:    "lines without marker are skipped",
			listing: "garbage\n\nBus 001 Device 001: ID 1d6b:0002 Linux Foundation 2.0 root hub\n",
			want: Catalog{
				"1d6b:0002": "Linux Foundation 2.0 root hub",
			},
		},
		{
			name:    "no description",
			listing: "Bus 003 Device 002: ID 2341:0043",
			want:    Catalog{"2341:0043": ""},
		},
		{
			name:    "marker without id",
			listing: "Bus 003 Device 002: ID ",
			want:    Catalog{},
		},
		{
			name:    "later duplicate wins",
			listing: "Bus 001 Device 002: ID 0403:6001 first\nBus 001 Device 003: ID 0403:6001 second\n",
			want:    Catalog{"0403:6001": "second"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCatalog(tt.listing)
			if len(got) != len(tt.want) {
				t.Fatalf("ParseCatalog() = %v, want %v", got, tt.want)
			}
			for id, description := range tt.want {
				if got[id] != description {
					t.Errorf("catalog[%q] = %q, want %q", id, got[id], description)
				}
			}
		})
	}
}

func TestBuildCatalog(t *testing.T) {
	src := &fakeListing{text: lsusbOutput}

	catalog, err := BuildCatalog(context.Background(), src)
	if err != nil {
		t.Fatalf("BuildCatalog() unexpected error: %v", err)
	}
	if len(catalog) != 5 {
		t.Errorf("len(catalog) = %d, want 5", len(catalog))
	}

	entries := catalog.Entries()
	for i := 1; i < len(entries); i++ {
		if entries[i-1].ID >= entries[i].ID {
			t.Errorf("Entries() not sorted: %q before %q", entries[i-1].ID, entries[i].ID)
		}
	}
	if entries[0].ID != "0403:6001" {
		t.Errorf("first entry = %q, want 0403:6001", entries[0].ID)
	}
}

func TestBuildCatalogError(t *testing.T) {
	listErr := errors.New("lsusb: not found")
	_, err := BuildCatalog(context.Background(), &fakeListing{err: listErr})
	if !errors.Is(err, listErr) {
		t.Errorf("BuildCatalog() error = %v, want %v", err, listErr)
	}
}
