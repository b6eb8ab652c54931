package domain

import (
	"encoding/json"
	"strconv"
)

// Record is an opaque server-defined entity. The client passes records
// through without interpreting their fields.
type Record map[string]any

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r)+2)
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Page is the paginated list shape.
type Page struct {
	Count    int      `json:"count"`
	Next     *string  `json:"next"`
	Previous *string  `json:"previous"`
	Results  []Record `json:"results"`
}

// DashboardStats is the role-dependent statistics record.
type DashboardStats Record

// PublicStats is the unauthenticated platform statistics record.
type PublicStats Record

// ZeroDashboardStats is the fallback used when the network is unavailable.
func ZeroDashboardStats() DashboardStats {
	return DashboardStats{
		"total_funding":    0,
		"active_projects":  0,
		"verified_reports": 0,
	}
}

// ZeroPublicStats is the fallback used when the network is unavailable.
func ZeroPublicStats() PublicStats {
	return PublicStats{
		"total_projects":     0,
		"total_funding":      0,
		"active_projects":    0,
		"completed_projects": 0,
	}
}

// Project statuses the client writes.
const (
	ProjectStatusApproved = "approved"
	ProjectStatusRejected = "rejected"
)

// StatusPendingSync marks placeholder results produced while offline.
const StatusPendingSync = "pending_sync"

// IntField reads key as an integer, accepting the numeric shapes a record
// picks up from JSON decoding or from Go callers. Missing or malformed
// values read as 0.
func IntField(r Record, key string) int64 {
	switch v := r[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case float64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}
	return 0
}

// FloatField reads key as a float. Decimal strings are accepted.
func FloatField(r Record, key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	}
	return 0
}

// StringField reads key as a string.
func StringField(r Record, key string) string {
	s, _ := r[key].(string)
	return s
}

// BoolField reads key as a bool.
func BoolField(r Record, key string) bool {
	b, _ := r[key].(bool)
	return b
}
