package domain

import "time"

// Dependency is a directed edge in the service topology: SourceServiceID
// depends on TargetServiceID.
type Dependency struct {
	ID              int64     `json:"id"`
	SourceServiceID string    `json:"source_service_id"`
	TargetServiceID string    `json:"target_service_id"`
	Description     *string   `json:"description,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
