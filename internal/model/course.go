package model

// swagger:model Course
type Course struct {
	UUIDBase
	Title       string   `gorm:"size:255;not null;index" json:"title"`
	Description string   `gorm:"type:text" json:"description"`
	CourseCode  string   `gorm:"size:64;uniqueIndex" json:"courseCode"`
	Subject     string   `gorm:"size:100" json:"subject,omitempty"`
	Language    string   `gorm:"size:32" json:"language,omitempty"`
	Thumbnail   string   `gorm:"size:512" json:"thumbnail,omitempty"`
	Published   bool     `gorm:"default:false;index" json:"published"`
	TeacherID   string   `gorm:"type:varchar(36);index;not null" json:"teacherId"`
	Modules     []Module `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"modules,omitempty"`

	// Filled by catalog queries only.
	EnrollmentCount int64 `gorm:"->;-:migration" json:"enrollmentCount"`
}

func (Course) TableName() string {
	return "courses"
}
