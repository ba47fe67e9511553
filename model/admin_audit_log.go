package model

import (
	"time"

	"gorm.io/datatypes"
)

// AdminAuditLog is the trail of moderation actions (user removal, forced recalculation)
type AdminAuditLog struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	AdminID     uint           `gorm:"not null;index" json:"admin_id"`
	Action      string         `gorm:"type:varchar(100);not null" json:"action"` // e.g. "user_delete", "course_recalculate"
	Resource    string         `gorm:"type:varchar(100)" json:"resource"`        // e.g. "users", "courses"
	ResourceID  uint           `json:"resource_id"`
	Payload     datatypes.JSON `json:"payload"`
	StatusCode  int            `json:"status_code"`
	IPAddress   string         `gorm:"type:varchar(45)" json:"ip_address"`
	UserAgent   string         `gorm:"type:text" json:"user_agent"`
	Description string         `gorm:"type:text" json:"description"`
	CreatedAt   time.Time      `json:"created_at"`
}

// TableName specifies the table name for AdminAuditLog
func (AdminAuditLog) TableName() string {
	return "admin_audit_logs"
}
