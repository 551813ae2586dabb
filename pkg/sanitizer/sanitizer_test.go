package sanitizer

import "testing"

func TestNormalizeBarcode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "clean barcode passes through",
			input: "B-0001234",
			want:  "B-0001234",
		},
		{
			name:  "lowercase is uppercased",
			input: "b-0001234",
			want:  "B-0001234",
		},
		{
			name:  "scanner whitespace stripped",
			input: "  B-0001234\n",
			want:  "B-0001234",
		},
		{
			name:  "interior spaces stripped",
			input: "B 000 1234",
			want:  "B0001234",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeBarcode(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeBarcode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeShelfLocation(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "already canonical",
			input: "3-B-12",
			want:  "3-B-12",
		},
		{
			name:  "dots as separators",
			input: "3 . b . 12",
			want:  "3-B-12",
		},
		{
			name:  "underscores as separators",
			input: "3_b_12",
			want:  "3-B-12",
		},
		{
			name:  "repeated dashes collapsed",
			input: "3--B---12",
			want:  "3-B-12",
		},
		{
			name:  "leading and trailing separators trimmed",
			input: "-3-B-12-",
			want:  "3-B-12",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeShelfLocation(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeShelfLocation(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
