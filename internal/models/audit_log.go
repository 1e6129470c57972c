package models

// AuditLog records one mutation made through the API. Changes holds the
// fields that mattered to the action and is stored as JSON.
type AuditLog struct {
	Base
	Action       string         `gorm:"not null;index" json:"action"`
	ResourceType string         `gorm:"not null" json:"resource_type"`
	ResourceID   string         `gorm:"index" json:"resource_id"`
	IPAddress    string         `json:"ip_address"`
	Changes      map[string]any `gorm:"serializer:json" json:"changes,omitempty"`
}
