package platformfee

import "testing"

func TestRate(t *testing.T) {
	cases := []struct {
		tier string
		want int64
	}{
		{"free", 500},
		{"growth", 300},
		{"pro", 100},
		{"", 500},
		{"PRO", 100},
		{"unknown_tier", 500},
	}

	for _, tc := range cases {
		if got := Rate(tc.tier); got != tc.want {
			t.Fatalf("Rate(%q) = %d, want %d", tc.tier, got, tc.want)
		}
	}
}

func TestFee(t *testing.T) {
	cases := []struct {
		name  string
		total int64
		tier  string
		want  int64
	}{
		{"free tier", 10000, "free", 500},
		{"growth tier", 10000, "growth", 300},
		{"pro tier", 10000, "pro", 100},
		{"exact basis points", 2500, "growth", 75},
		{"exact half rounds up", 50, "growth", 2},
		{"below half rounds down", 10, "growth", 0},
		{"above half rounds up", 99, "pro", 1},
		{"zero total", 0, "pro", 0},
		{"negative total", -1000, "growth", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Fee(tc.total, tc.tier); got != tc.want {
				t.Fatalf("Fee(%d, %q) = %d, want %d", tc.total, tc.tier, got, tc.want)
			}
		})
	}
}
