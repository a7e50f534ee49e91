package postgres

import (
	"reflect"
	"testing"
)

func TestParseReplicaURLs(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "empty",
			input: "",
			want:  nil,
		},
		{
			name:  "single",
			input: "postgres://replica1/organizator",
			want:  []string{"postgres://replica1/organizator"},
		},
		{
			name:  "multiple with whitespace",
			input: "postgres://replica1/organizator, postgres://replica2/organizator ",
			want:  []string{"postgres://replica1/organizator", "postgres://replica2/organizator"},
		},
		{
			name:  "trailing comma",
			input: "postgres://replica1/organizator,",
			want:  []string{"postgres://replica1/organizator"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseReplicaURLs(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseReplicaURLs(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
