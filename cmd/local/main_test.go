package main

import "testing"

func TestRouteByName(t *testing.T) {
	tests := []struct {
		name        string
		from, to    string
		byName      bool
		expectError bool
	}{
		{name: "coordinates", from: "", to: ""},
		{name: "both names", from: "SRM University", to: "Marina Beach", byName: true},
		{name: "only from", from: "SRM University", expectError: true},
		{name: "only to", to: "Marina Beach", expectError: true},
		{name: "blank to", from: "SRM University", to: "   ", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			byName, err := routeByName(tt.from, tt.to)
			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if byName != tt.byName {
				t.Errorf("Expected byName=%v, got %v", tt.byName, byName)
			}
		})
	}
}
