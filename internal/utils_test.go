package internal

import "testing"

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"고양이", "고양이"},
		{"猫", "猫"},
		{"to eat", "to_eat"},
		{" 먹다/먹어요 ", "먹다_먹어요"},
		{"a-b_c.d", "a-b_c_d"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := SanitizeFilename(tt.input); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestShortID(t *testing.T) {
	if got := ShortID("0b6b4f1e-4d8a-4a4e-9c51-0e9d6f1f3c2a"); got != "0b6b4f1e" {
		t.Errorf("ShortID() = %q", got)
	}
	if got := ShortID("abc"); got != "abc" {
		t.Errorf("ShortID() = %q", got)
	}
}
