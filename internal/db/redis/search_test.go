package redis

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/openpoi/poidex/internal/domain/filter"
)

func mustMatch(t *testing.T, key string, values ...string) filter.Match {
	t.Helper()
	m, err := filter.NewMatch(key, values)
	if err != nil {
		t.Fatalf("NewMatch: %v", err)
	}
	return m
}

func mustRange(t *testing.T, key string, min, max *float64) filter.Range {
	t.Helper()
	r, err := filter.NewRange(key, min, max)
	if err != nil {
		t.Fatalf("NewRange: %v", err)
	}
	return r
}

func TestBuildFilter_Empty(t *testing.T) {
	if got := buildFilter(filter.Expression{}); got != "" {
		t.Errorf("buildFilter(empty) = %q, want empty", got)
	}
}

func TestBuildTagFilter(t *testing.T) {
	m := mustMatch(t, "city", "Nantou", "Chiayi")
	if got := buildTagFilter(m); got != "@city:{Nantou|Chiayi}" {
		t.Errorf("buildTagFilter = %q", got)
	}
}

func TestBuildTagFilter_Escaping(t *testing.T) {
	m := mustMatch(t, "type", "tea-shop (mountain)")
	want := `@type:{tea\-shop\ \(mountain\)}`
	if got := buildTagFilter(m); got != want {
		t.Errorf("buildTagFilter = %q, want %q", got, want)
	}
}

func TestBuildNumericFilter(t *testing.T) {
	lo, hi := 1640995200.0, 1672531199.0

	tests := []struct {
		name string
		min  *float64
		max  *float64
		want string
	}{
		{"both bounds", &lo, &hi, "@created_at:[1.6409952e+09 1.672531199e+09]"},
		{"open max", &lo, nil, "@created_at:[1.6409952e+09 +inf]"},
		{"open min", nil, &hi, "@created_at:[-inf 1.672531199e+09]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mustRange(t, "created_at", tt.min, tt.max)
			if got := buildNumericFilter(r); got != tt.want {
				t.Errorf("buildNumericFilter = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildFilter_Combined(t *testing.T) {
	lo := 100.0
	expr := filter.NewExpression(
		[]filter.Match{mustMatch(t, "city", "Nantou")},
		[]filter.Range{mustRange(t, "created_at", &lo, nil)},
	)
	want := "@city:{Nantou} @created_at:[100 +inf]"
	if got := buildFilter(expr); got != want {
		t.Errorf("buildFilter = %q, want %q", got, want)
	}
}

func TestVectorToBytes(t *testing.T) {
	vec := []float32{1.5, -0.25}
	s := vectorToBytes(vec)
	if len(s) != 8 {
		t.Fatalf("len = %d, want 8", len(s))
	}

	b := []byte(s)
	for i, want := range vec {
		got := math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
		if got != want {
			t.Errorf("vec[%d] = %g, want %g", i, got, want)
		}
	}
}
