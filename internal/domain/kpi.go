package domain

import "time"

// KpiSnapshot is an immutable, date-keyed rollup of aggregate VOC metrics.
// At most one snapshot exists per calendar date; once persisted its values
// are never mutated.
type KpiSnapshot struct {
	ID           int64
	SnapshotDate time.Time
	TotalVocs    int64
	TodayVocs    int64
	ResolvedVocs int64
	// AvgResolutionHours is nil while no VOC has ever been resolved.
	AvgResolutionHours *float64
	CategoryStats      map[string]int64
	PriorityStats      map[string]int64
	CreatedAt          time.Time
}
