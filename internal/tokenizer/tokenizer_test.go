package tokenizer

import "testing"

func TestEstimator_CountTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		// 43 chars / 4 = 10 beats 6 words / 0.75 = 8
		{"char-bound", "2024-01-15 10:00:00 ERROR [db] conn timeout", 10},
		// short words: 5 words / 0.75 = 6 beats 9 chars / 4 = 2
		{"word-bound", "a b c d e", 6},
		{"single word", "timeout", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Estimator{}.CountTokens(tt.text)
			if got != tt.want {
				t.Errorf("CountTokens(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestEstimator_Deterministic(t *testing.T) {
	const text = "2024-01-15 10:00:00 ERROR [db] connection pool exhausted"
	est := Estimator{}
	first := est.CountTokens(text)
	for i := 0; i < 5; i++ {
		if got := est.CountTokens(text); got != first {
			t.Fatalf("CountTokens() = %d on repeat, want %d", got, first)
		}
	}
}

func TestEstimator_NeverNegative(t *testing.T) {
	est := Estimator{}
	for _, text := range []string{"", " ", "\n", "x"} {
		if got := est.CountTokens(text); got < 0 {
			t.Errorf("CountTokens(%q) = %d, want >= 0", text, got)
		}
	}
}
