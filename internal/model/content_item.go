package model

import "fmt"

type ContentType string

const (
	ContentVideo ContentType = "VIDEO"
	ContentPDF   ContentType = "PDF"
	ContentDOCX  ContentType = "DOCX"
	ContentOther ContentType = "OTHER"
)

func ParseContentType(s string) (ContentType, error) {
	switch ContentType(s) {
	case ContentVideo, ContentPDF, ContentDOCX, ContentOther:
		return ContentType(s), nil
	default:
		return "", fmt.Errorf("unknown content type %q", s)
	}
}

// swagger:model ContentItem
type ContentItem struct {
	UUIDBase
	Title       string      `gorm:"size:255;not null" json:"title"`
	Description string      `gorm:"type:text" json:"description"`
	Type        ContentType `gorm:"size:16;not null" json:"type"`
	FileURL     string      `gorm:"size:1024;not null" json:"fileUrl"`
	ModuleID    string      `gorm:"type:varchar(36);not null;index:idx_item_module_order" json:"moduleId"`
	Order       int         `gorm:"column:sort_order;not null;index:idx_item_module_order" json:"order"`
}

func (ContentItem) TableName() string {
	return "content_items"
}
