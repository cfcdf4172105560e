package models

import (
	"time"

	"gorm.io/gorm"
)

// UserRole represents the role of a user in the marketplace
type UserRole string

const (
	UserRoleCustomer    UserRole = "customer"
	UserRoleOptometrist UserRole = "optometrist"
	UserRoleAdmin       UserRole = "admin"
)

// User represents a user in the system
type User struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name        string   `gorm:"type:varchar(255)" json:"name"`
	Phone       string   `gorm:"type:varchar(50)" json:"phone"`
	Email       string   `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	FirebaseUID string   `gorm:"type:varchar(128);index" json:"-"`
	Role        UserRole `gorm:"type:varchar(20);default:'customer'" json:"role"`

	// Relationships
	Orders       []Order       `gorm:"foreignKey:CustomerID" json:"orders,omitempty"`
	Appointments []Appointment `gorm:"foreignKey:CustomerID" json:"appointments,omitempty"`
}

// IsAdmin reports whether the user holds the admin role
func (u User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}
