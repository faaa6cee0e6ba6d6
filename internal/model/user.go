package model

import (
	"time"
)

// swagger:model User
type User struct {
	BaseModel
	Email     string     `gorm:"size:150;uniqueIndex;not null" json:"email"`
	Password  string     `gorm:"size:100;not null" json:"-"`
	IsStaff   bool       `gorm:"default:false" json:"is_staff"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

func (User) TableName() string {
	return "users"
}
