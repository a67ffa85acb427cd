package drive

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateFolderName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "Docs", false},
		{"spaces and unicode", "Fotos 2024 ☀", false},
		{"leading dot", ".config", false},
		{"three dots", "...", false},
		{"empty", "", true},
		{"slash", "a/b", true},
		{"dot", ".", true},
		{"dot dot", "..", true},
		{"max length in runes", strings.Repeat("é", MaxNameLength), false},
		{"too long", strings.Repeat("x", MaxNameLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFolderName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateFolderName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil {
				var ve *ValidationError
				if !errors.As(err, &ve) || ve.Field != "name" {
					t.Errorf("error = %#v, want *ValidationError on name", err)
				}
			}
		})
	}
}

func TestValidateOwnerID(t *testing.T) {
	tests := []struct {
		owner   string
		wantErr bool
	}{
		{"alice", false},
		{"alice.smith", false},
		{".hidden", false},
		{"", true},
		{".", true},
		{"..", true},
		{"a/b", true},
		{"/alice", true},
		{"../alice", true},
		{strings.Repeat("a", MaxNameLength+1), true},
	}
	for _, tt := range tests {
		err := ValidateOwnerID(tt.owner)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateOwnerID(%q) error = %v, wantErr %v", tt.owner, err, tt.wantErr)
			continue
		}
		var vErr *ValidationError
		if err != nil && (!errors.As(err, &vErr) || vErr.Field != "owner_id") {
			t.Errorf("ValidateOwnerID(%q) error = %v, want owner_id ValidationError", tt.owner, err)
		}
	}
}
