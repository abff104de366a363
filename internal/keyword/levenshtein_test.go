package keyword

import "testing"

func TestDistance(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected int
	}{
		{"identical empty", "", "", 0},
		{"identical word", "grapes", "grapes", 0},
		{"empty a", "", "hay", 3},
		{"empty b", "hay", "", 3},
		{"one substitution", "cat", "bat", 1},
		{"one insertion", "cat", "cart", 1},
		{"one deletion", "cart", "cat", 1},
		{"kitten to sitting", "kitten", "sitting", 3},
		{"typo", "grapse", "grapes", 2},
		{"dropped letter", "chocolat", "chocolate", 1},
		{"unicode substitution", "café", "cafe", 1},
		{"transposition counts twice", "ab", "ba", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Distance(tt.a, tt.b); got != tt.expected {
				t.Errorf("Distance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.expected)
			}
			if got := Distance(tt.b, tt.a); got != tt.expected {
				t.Errorf("Distance is not symmetric for (%q, %q)", tt.a, tt.b)
			}
		})
	}
}

func TestWithin(t *testing.T) {
	pairs := [][2]string{
		{"", ""}, {"", "ab"}, {"cat", "cart"}, {"grapse", "grapes"},
		{"kitten", "sitting"}, {"hamster", "gerbil"}, {"abc", "xyz"}, {"a", "abcd"},
	}
	for _, p := range pairs {
		for maxDist := 0; maxDist <= 3; maxDist++ {
			want := Distance(p[0], p[1]) <= maxDist
			if got := Within(p[0], p[1], maxDist); got != want {
				t.Errorf("Within(%q, %q, %d) = %v, want %v", p[0], p[1], maxDist, got, want)
			}
		}
	}
}

func BenchmarkDistance(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Distance("documentation", "documantation")
	}
}

func BenchmarkWithin_FarApart(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Within("hamster", "grapefruit", 2)
	}
}
