package epp

import (
	"errors"
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"example.nz", false},
		{"xn--kra-2na.co.nz", false},
		{"ns1.example.co.nz", false},
		{"", true},
		{"nz", true},
		{"example.nz.", true},
		{"bad..nz", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateName(%q) = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("expected ErrInvalidParameter, got %v", err)
			}
		})
	}

	if err := ValidateNames(nil); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("ValidateNames(nil) = %v", err)
	}
}

func TestCheckResultsRekey(t *testing.T) {
	got := CheckResults{
		"example.nz": {Available: true},
		"OTHER.NZ":   {Available: false, Reason: "In use"},
	}.Rekey([]string{"Example.NZ", "other.nz", "absent.nz"})

	if len(got) != 2 {
		t.Fatalf("got %d entries: %v", len(got), got)
	}
	if !got["Example.NZ"].Available {
		t.Errorf("Example.NZ = %+v", got["Example.NZ"])
	}
	if got["other.nz"].Reason != "In use" {
		t.Errorf("other.nz = %+v", got["other.nz"])
	}
}
