package entity

import "time"

type Doctor struct {
	ID             int       `gorm:"primaryKey;autoIncrement" json:"id"`
	FirstName      string    `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName       string    `gorm:"type:varchar(100);not null" json:"last_name"`
	Specialization string    `gorm:"type:varchar(100);index" json:"specialization,omitempty"`
	Email          string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone          string    `gorm:"type:varchar(30)" json:"phone,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Doctor) TableName() string {
	return "doctors"
}

func (d *Doctor) FullName() string {
	return d.FirstName + " " + d.LastName
}
