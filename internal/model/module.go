package model

// Module is an ordered section of a course. Order is 1-based within the course.
// swagger:model Module
type Module struct {
	UUIDBase
	Title        string        `gorm:"size:255;not null" json:"title"`
	CourseID     string        `gorm:"type:varchar(36);not null;index:idx_module_course_order" json:"courseId"`
	Order        int           `gorm:"column:sort_order;not null;index:idx_module_course_order" json:"order"`
	ContentItems []ContentItem `gorm:"foreignKey:ModuleID;constraint:OnDelete:CASCADE" json:"contentItems,omitempty"`
}

func (Module) TableName() string {
	return "modules"
}
