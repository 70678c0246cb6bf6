package utils

import "time"

// Stats tracks the speed and population of a running simulation
type Stats struct {
	GenerationsPerSecond float64
	AveragePopulation    float64
	TotalGenerations     int
	StartTime            time.Time

	samples int
}

func NewStats() *Stats {
	return &Stats{StartTime: time.Now()}
}

// Update records one rendered generation and how long it took since the last one
func (s *Stats) Update(generation int, population int, duration time.Duration) {
	s.TotalGenerations = generation
	if duration > 0 {
		s.GenerationsPerSecond = 1.0 / duration.Seconds()
	}

	// exponential moving average, seeded by the first sample
	if s.samples == 0 {
		s.AveragePopulation = float64(population)
	} else {
		s.AveragePopulation = (s.AveragePopulation * 0.9) + (float64(population) * 0.1)
	}
	s.samples++
}

// Runtime returns the time elapsed since the stats were created
func (s *Stats) Runtime() time.Duration {
	return time.Since(s.StartTime)
}
