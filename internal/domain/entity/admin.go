package entity

import "time"

// Admin is an account of the clinic's admin panel
type Admin struct {
	ID        int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	Password  string    `gorm:"type:text;not null" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Admin) TableName() string {
	return "admins"
}

// Role names carried in access tokens
const (
	RoleAdmin = "admin"
)
