// Package mockgen builds synthetic snapshots for demos and manual testing.
package mockgen

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"mcs-forecast/internal/stats"
	"mcs-forecast/internal/workitem"
)

// Scenario shapes the weekly completion rate of the generated history.
type Scenario string

const (
	Steady    Scenario = "steady"
	Volatile  Scenario = "volatile"
	Declining Scenario = "declining"
)

// Distribution controls how cycle times are sampled.
type Distribution string

const (
	Uniform Distribution = "uniform"
	Weibull Distribution = "weibull"
)

var sizes = []float64{1, 2, 3, 5, 8}

type Config struct {
	Scenario     Scenario
	Distribution Distribution
	Weeks        int // completed weeks of history
	Backlog      int // open items
	Seed         uint64
	Now          time.Time
}

// Validate rejects unknown scenarios and distributions and empty histories.
func (c Config) Validate() error {
	switch c.Scenario {
	case Steady, Volatile, Declining:
	default:
		return fmt.Errorf("unknown scenario %q (want steady, volatile or declining)", c.Scenario)
	}
	switch c.Distribution {
	case Uniform, Weibull:
	default:
		return fmt.Errorf("unknown distribution %q (want uniform or weibull)", c.Distribution)
	}
	if c.Weeks <= 0 {
		return fmt.Errorf("weeks must be positive, got %d", c.Weeks)
	}
	if c.Backlog < 0 {
		return fmt.Errorf("backlog must not be negative, got %d", c.Backlog)
	}
	return nil
}

// Generate returns a snapshot with cfg.Weeks of completed history ending the week before
// cfg.Now, followed by cfg.Backlog open items. The same config always yields the same
// snapshot.
func Generate(cfg Config) (workitem.Snapshot, error) {
	if err := cfg.Validate(); err != nil {
		return workitem.Snapshot{}, err
	}
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	r := rand.New(rand.NewPCG(cfg.Seed, 0x6d6f636b67656e))

	snap := workitem.Snapshot{ID: fmt.Sprintf("mock-%s-%d", cfg.Scenario, cfg.Seed)}
	current := stats.SnapToWeekStart(cfg.Now)

	n := 0
	for w := range cfg.Weeks {
		weekStart := current.AddDate(0, 0, -7*(cfg.Weeks-w))
		for range weeklyCompletions(r, cfg.Scenario, w, cfg.Weeks) {
			n++
			size := sizes[r.IntN(len(sizes))]
			// Monday to Friday, office hours
			completed := weekStart.Add(time.Duration(r.IntN(5))*24*time.Hour + time.Duration(9+r.IntN(8))*time.Hour)
			created := completed.Add(-time.Duration(cycleDays(r, cfg, size, w) * 24 * float64(time.Hour)))
			snap.Items = append(snap.Items, workitem.Item{
				ID:        fmt.Sprintf("MCSTEST-%d", n),
				Size:      workitem.Points(size),
				State:     workitem.Done,
				Created:   created,
				Completed: &completed,
			})
		}
	}

	for i := range cfg.Backlog {
		n++
		item := workitem.Item{
			ID:      fmt.Sprintf("MCSTEST-%d", n),
			State:   workitem.ToDo,
			Created: cfg.Now.AddDate(0, 0, -r.IntN(7*cfg.Weeks+1)),
		}
		// one in ten is already started, one in eight is still unestimated
		if i%10 == 0 {
			item.State = workitem.InProgress
		}
		if r.IntN(8) != 0 {
			item.Size = workitem.Points(sizes[r.IntN(len(sizes))])
		}
		snap.Items = append(snap.Items, item)
	}
	return snap, nil
}

func weeklyCompletions(r *rand.Rand, s Scenario, week, weeks int) int {
	switch s {
	case Volatile:
		n := 12 + r.IntN(17)
		if r.Float64() < 0.2 {
			n = 3 + r.IntN(6)
		}
		return n
	case Declining:
		ratio := float64(week) / float64(max(weeks-1, 1))
		base := 26 - 14*ratio
		return max(1, int(math.Round(base))+r.IntN(5)-2)
	default:
		return 18 + r.IntN(7)
	}
}

// cycleDays grows with size. Weibull draws use a heavier tail for the volatile and
// declining scenarios.
func cycleDays(r *rand.Rand, cfg Config, size float64, week int) float64 {
	var perPoint float64
	if cfg.Distribution == Weibull {
		k, lambda := 2.5, 1.1
		switch cfg.Scenario {
		case Volatile:
			k = 0.8
		case Declining:
			ratio := float64(week) / float64(cfg.Weeks)
			k = 2.5 - 1.7*ratio
			lambda = 1.1 + 0.3*ratio
		}
		perPoint = weibullSample(r, k, lambda)
	} else {
		perPoint = 0.6 + r.Float64()*0.8
		if cfg.Scenario == Volatile && r.Float64() < 0.2 {
			perPoint += 1 + r.Float64()*2
		}
	}
	return math.Max(0.25, size*perPoint)
}

func weibullSample(r *rand.Rand, k, lambda float64) float64 {
	u := r.Float64()
	if u == 0 {
		u = 0.0001
	}
	// X = lambda * (-ln(1-u))^(1/k)
	return lambda * math.Pow(-math.Log(1.0-u), 1.0/k)
}
