package simulation

import (
	"reflect"
	"testing"
)

func TestBuildHistogram(t *testing.T) {
	got := buildHistogram([]int{2, 2, 3, 5, 5, 5})
	want := []Bucket{
		{Week: 2, Count: 2, Probability: 2.0 / 6},
		{Week: 3, Count: 1, Probability: 1.0 / 6},
		{Week: 5, Count: 3, Probability: 3.0 / 6},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("buildHistogram() = %+v, want %+v", got, want)
	}
	if buildHistogram(nil) != nil {
		t.Errorf("empty input should produce no buckets")
	}
}

func TestProjectBurndown(t *testing.T) {
	tests := []struct {
		name      string
		remaining float64
		rate      float64
		until     int
		want      []BurndownPoint
	}{
		{
			name: "ReachesZero", remaining: 50, rate: 20, until: 10,
			want: []BurndownPoint{{0, 50}, {1, 30}, {2, 10}, {3, 0}},
		},
		{
			name: "StopsAtPercentileWeek", remaining: 100, rate: 20, until: 2,
			want: []BurndownPoint{{0, 100}, {1, 80}, {2, 60}},
		},
		{
			name: "ZeroRateStaysFlat", remaining: 10, rate: 0, until: 2,
			want: []BurndownPoint{{0, 10}, {1, 10}, {2, 10}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := projectBurndown(tt.remaining, tt.rate, tt.until); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("projectBurndown() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestBuildBurndown_UsesMedianAndP20(t *testing.T) {
	tp := summarizeThroughput(demoSamples)
	// sorted: 16 18 19 20 21 21 22 24 25 26 28 32
	if tp.Median != 21.5 {
		t.Errorf("median = %v, want 21.5", tp.Median)
	}
	if tp.P20 != 19 {
		t.Errorf("p20 = %v, want 19 (index floor(12*0.2)=2)", tp.P20)
	}

	bd := buildBurndown(85, tp, 4, 5)
	if bd.P50Rate != tp.Median || bd.P80Rate != tp.P20 {
		t.Errorf("wrong rates: %+v", bd)
	}
	if last := bd.P50[len(bd.P50)-1]; last.Week != 4 || last.Remaining != 0 {
		t.Errorf("P50 curve should burn 85 points in 4 weeks at 21.5/week, ended at %+v", last)
	}
	if last := bd.P80[len(bd.P80)-1]; last.Week != 5 || last.Remaining != 0 {
		t.Errorf("P80 curve should burn 85 points in 5 weeks at 19/week, ended at %+v", last)
	}
}
