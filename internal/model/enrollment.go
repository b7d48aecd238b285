package model

import "time"

// Enrollment is keyed by (UserID, CourseID); a pair is stored at most once.
// swagger:model Enrollment
type Enrollment struct {
	UserID    string    `gorm:"primaryKey;type:varchar(36)" json:"userId"`
	CourseID  string    `gorm:"primaryKey;type:varchar(36);index" json:"courseId"`
	CreatedAt time.Time `json:"createdAt"`
	Course    *Course   `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}
