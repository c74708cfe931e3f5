package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueType enum
type IssueType string

const (
	Pothole          IssueType = "pothole"
	Garbage          IssueType = "garbage"
	Streetlight      IssueType = "streetlight"
	WaterLeak        IssueType = "water_leak"
	BrokenSidewalk   IssueType = "broken_sidewalk"
	TrafficSignal    IssueType = "traffic_signal"
	StreetSign       IssueType = "street_sign"
	Drainage         IssueType = "drainage"
	TreeMaintenance  IssueType = "tree_maintenance"
	Graffiti         IssueType = "graffiti"
	NoiseComplaint   IssueType = "noise_complaint"
	ParkingViolation IssueType = "parking_violation"
	OtherIssue       IssueType = "other"
)

// IssueTypes lists every accepted issue type in display order.
var IssueTypes = []IssueType{
	Pothole, Garbage, Streetlight, WaterLeak, BrokenSidewalk, TrafficSignal,
	StreetSign, Drainage, TreeMaintenance, Graffiti, NoiseComplaint,
	ParkingViolation, OtherIssue,
}

func (t IssueType) Valid() bool {
	for _, known := range IssueTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IssueStatus enum
type IssueStatus string

const (
	Pending    IssueStatus = "pending"
	InProgress IssueStatus = "in_progress"
	Resolved   IssueStatus = "resolved"
)

func (s IssueStatus) Valid() bool {
	switch s {
	case Pending, InProgress, Resolved:
		return true
	}
	return false
}

// Priority enum
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Issue represents a civic issue reported by a citizen
type Issue struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID `bson:"user_id" json:"user_id"`
	IssueType       IssueType          `bson:"issue_type" json:"issue_type"`
	Description     string             `bson:"description" json:"description"`
	PhotoURL        *string            `bson:"photo_url,omitempty" json:"photo_url,omitempty"`
	Latitude        float64            `bson:"latitude" json:"latitude"`
	Longitude       float64            `bson:"longitude" json:"longitude"`
	LocationAddress *string            `bson:"location_address,omitempty" json:"location_address,omitempty"`
	Priority        Priority           `bson:"priority,omitempty" json:"priority,omitempty"`
	Status          IssueStatus        `bson:"status" json:"status"`
	AdminNotes      *string            `bson:"admin_notes,omitempty" json:"admin_notes,omitempty"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updated_at"`
}

// EffectivePriority treats records stored without a priority as medium.
func (i Issue) EffectivePriority() Priority {
	if i.Priority == "" {
		return PriorityMedium
	}
	return i.Priority
}

// Address returns the reverse-geocoded address or an empty string.
func (i Issue) Address() string {
	if i.LocationAddress == nil {
		return ""
	}
	return *i.LocationAddress
}
