package entity

import "time"

// Patient is created lazily on the first booking made with a given email
type Patient struct {
	ID          int       `gorm:"primaryKey;autoIncrement" json:"id"`
	FirstName   string    `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName    string    `gorm:"type:varchar(100);not null" json:"last_name"`
	Email       string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone       string    `gorm:"type:varchar(30)" json:"phone,omitempty"`
	DateOfBirth *Date     `gorm:"type:date" json:"date_of_birth,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Patient) TableName() string {
	return "patients"
}

func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}
