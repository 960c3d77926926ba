package model

import "gorm.io/gorm"

type AlertStatus string

const (
	AlertStatusActive   AlertStatus = "active"
	AlertStatusResolved AlertStatus = "resolved"
	AlertStatusArchived AlertStatus = "archived"
)

type AlertCategory string

const (
	CategoryMissingPerson      AlertCategory = "missing_person"
	CategoryUnidentifiedPerson AlertCategory = "unidentified_person"
	CategoryTraffic            AlertCategory = "traffic"
	CategoryFire               AlertCategory = "fire"
	CategoryCrime              AlertCategory = "crime"
	CategoryOther              AlertCategory = "other"
)

// Alert is owned by the alerts service; this service only reads it and
// maintains the media aggregate columns (ImageCount, HasAudio, HasVideo).
type Alert struct {
	gorm.Model
	Title    string        `json:"title"`
	Category AlertCategory `json:"category" gorm:"index"`
	Status   AlertStatus   `json:"status" gorm:"index;default:active"`

	ImageCount int  `json:"image_count" gorm:"not null;default:0"`
	HasAudio   bool `json:"has_audio" gorm:"not null;default:false"`
	HasVideo   bool `json:"has_video" gorm:"not null;default:false"`
}

// AcceptsMedia reports whether new media may be attached to the alert.
func (a *Alert) AcceptsMedia() bool {
	return a.Status == AlertStatusActive
}
