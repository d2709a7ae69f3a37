// Package constants provides named constants used throughout the seatsim codebase.
// This centralizes the simulation defaults so the CLI, config and MCP layers agree.
package constants

import "time"

// Classroom layout defaults
const (
	// DefaultRowCount is the number of seat rows in the simulated classroom.
	DefaultRowCount = 6

	// DefaultColumnCount is the number of seat columns in the simulated classroom.
	// DefaultRowCount * DefaultColumnCount is the student population (24).
	DefaultColumnCount = 4

	// DefaultTrackedStudent is the student whose individual outcome is reported.
	DefaultTrackedStudent = 1
)

// Exposure model defaults.
// 4 iterations * 15 minutes = one hour of class, with a reshuffle between iterations.
const (
	// DefaultIterationCount is the number of reseatings per simulation run.
	DefaultIterationCount = 4

	// DefaultIterationTime is the time students spend in one seating arrangement.
	DefaultIterationTime = 15 * time.Minute

	// DefaultAdjacentExposureFactor weights seats sharing an edge.
	DefaultAdjacentExposureFactor = 1.0

	// DefaultDiagonalExposureFactor weights seats sharing only a corner.
	DefaultDiagonalExposureFactor = 0.5

	// DefaultExposureRiskThreshold is the cumulative exposure at which a pair is at risk.
	// CDC guidance is 15 minutes; the simulation uses 20.
	DefaultExposureRiskThreshold = 20 * time.Minute
)

// Batch defaults
const (
	// DefaultBatchRunCount is the number of independent runs in a batch.
	DefaultBatchRunCount = 50_000

	// MaxToolBatchRunCount caps batch size requested through the MCP server.
	MaxToolBatchRunCount = 1_000_000

	// MaxToolSeatCount caps rows*columns requested through the MCP server.
	MaxToolSeatCount = 2_500

	// MaxToolIterationCount caps reseatings per run requested through the MCP server.
	MaxToolIterationCount = 1_000

	// ProgressLogInterval is how many completed runs pass between debug progress logs.
	ProgressLogInterval = 10_000
)
