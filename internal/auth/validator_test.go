package auth

import (
	"strings"
	"testing"
)

func TestIsValidAPIKeyFormat(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{
			name:  "typical 40-char key",
			token: strings.Repeat("a1b2c3d4e5", 4),
			want:  true,
		},
		{
			name:  "minimum length",
			token: strings.Repeat("x", 20),
			want:  true,
		},
		{
			name:  "maximum length",
			token: strings.Repeat("x", 100),
			want:  true,
		},
		{
			name:  "allowed separators",
			token: "abc_def-ghi.jkl_mno-pqr",
			want:  true,
		},
		{
			name:  "too short",
			token: "short",
			want:  false,
		},
		{
			name:  "one under minimum",
			token: strings.Repeat("x", 19),
			want:  false,
		},
		{
			name:  "one over maximum",
			token: strings.Repeat("x", 101),
			want:  false,
		},
		{
			name:  "empty",
			token: "",
			want:  false,
		},
		{
			name:  "embedded space",
			token: "abcdefghij klmnopqrst",
			want:  false,
		},
		{
			name:  "shell metacharacters",
			token: "abcdefghij;rm -rf /tmp",
			want:  false,
		},
		{
			name:  "non-ascii",
			token: strings.Repeat("é", 20),
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidAPIKeyFormat(tt.token); got != tt.want {
				t.Errorf("IsValidAPIKeyFormat(len=%d) = %v, want %v", len(tt.token), got, tt.want)
			}
		})
	}
}
