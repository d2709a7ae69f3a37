package mcp

import (
	"context"
	"log/slog"
	"time"
)

// AuditEntry records one MCP tool invocation.
type AuditEntry struct {
	Tool       string         `json:"tool"`
	DurationMs int64          `json:"duration_ms"`
	Status     string         `json:"status"` // "success" or "error"
	Error      string         `json:"error,omitempty"`
	Params     map[string]any `json:"params,omitempty"`
}

// record returns the entry as a trace record.
func (e AuditEntry) record() map[string]any {
	rec := map[string]any{
		"event":       "tool_call",
		"tool":        e.Tool,
		"duration_ms": e.DurationMs,
		"status":      e.Status,
	}
	if e.Error != "" {
		rec["error"] = e.Error
	}
	if len(e.Params) > 0 {
		rec["params"] = e.Params
	}
	return rec
}

// auditParams lists the parameters a call actually set.
func auditParams(p Parameters, extra map[string]any) map[string]any {
	params := make(map[string]any, len(extra)+8)
	for k, v := range extra {
		params[k] = v
	}
	if p.Rows != 0 {
		params["rows"] = p.Rows
	}
	if p.Columns != 0 {
		params["columns"] = p.Columns
	}
	if p.TrackedStudent != 0 {
		params["tracked_student"] = p.TrackedStudent
	}
	if p.IterationCount != 0 {
		params["iteration_count"] = p.IterationCount
	}
	if p.IterationTime != "" {
		params["iteration_time"] = p.IterationTime
	}
	if p.AdjacentFactor != nil {
		params["adjacent_factor"] = *p.AdjacentFactor
	}
	if p.DiagonalFactor != nil {
		params["diagonal_factor"] = *p.DiagonalFactor
	}
	if p.RiskThreshold != "" {
		params["risk_threshold"] = p.RiskThreshold
	}
	return params
}

// auditTool logs a tool invocation and appends it to the trace.
func (s *Server) auditTool(toolName string, start time.Time, err error, params map[string]any) {
	entry := AuditEntry{
		Tool:       toolName,
		DurationMs: time.Since(start).Milliseconds(),
		Status:     "success",
		Params:     params,
	}
	level := slog.LevelInfo
	if err != nil {
		entry.Status = "error"
		entry.Error = err.Error()
		level = slog.LevelWarn
	}

	attrs := []any{"tool", entry.Tool, "duration_ms", entry.DurationMs, "status", entry.Status}
	if entry.Error != "" {
		attrs = append(attrs, "error", entry.Error)
	}
	s.logger.Log(context.Background(), level, "tool call", attrs...)
	s.trace.Log(entry.record())
}
