package model

// swagger:model TeacherProfile
type TeacherProfile struct {
	UUIDBase
	UserID            string `gorm:"type:varchar(36);uniqueIndex;not null" json:"userId"`
	FirstName         string `gorm:"size:100" json:"firstName"`
	LastName          string `gorm:"size:100" json:"lastName"`
	Phone             string `gorm:"size:32" json:"phone"`
	Department        string `gorm:"size:100" json:"department"`
	Subject           string `gorm:"size:100" json:"subject"`
	Position          string `gorm:"size:100" json:"position"`
	YearsOfExperience int    `gorm:"default:0" json:"yearsOfExperience"`
	ProfileImage      string `gorm:"size:512" json:"profileImage,omitempty"`
}

func (TeacherProfile) TableName() string {
	return "teacher_profiles"
}
