package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AppointmentStatus is the scheduling status of an appointment
type AppointmentStatus string

const (
	AppointmentStatusBooked    AppointmentStatus = "booked"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// AppointmentPaymentStatus is the binary payment state of an appointment
type AppointmentPaymentStatus string

const (
	AppointmentUnpaid AppointmentPaymentStatus = "unpaid"
	AppointmentPaid   AppointmentPaymentStatus = "paid"
)

// ConsultationMethod describes how the consultation is delivered
type ConsultationMethod string

const (
	ConsultationVideo    ConsultationMethod = "video"
	ConsultationChat     ConsultationMethod = "chat"
	ConsultationInPerson ConsultationMethod = "in_person"
)

// Appointment represents a consultation booked with an optometrist
type Appointment struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	CustomerID    uint `gorm:"index" json:"customer_id"`
	OptometristID uint `gorm:"index" json:"optometrist_id"`

	ScheduledAt time.Time          `json:"scheduled_at"`
	Method      ConsultationMethod `gorm:"type:varchar(20);default:'in_person'" json:"method"`
	Status      AppointmentStatus  `gorm:"type:varchar(20);default:'booked';index" json:"status"`

	Price                decimal.Decimal `gorm:"type:decimal(15,2)" json:"price"`
	CommissionPercentage decimal.Decimal `gorm:"type:decimal(5,2)" json:"commission_percentage"`

	PaymentStatus AppointmentPaymentStatus `gorm:"type:varchar(20);default:'unpaid';index" json:"payment_status"`

	// Commission fields are derived exactly once, on the unpaid -> paid
	// transition.
	CommissionAmount       *decimal.Decimal `gorm:"type:decimal(15,2)" json:"commission_amount,omitempty"`
	CommissionCalculatedAt *time.Time       `json:"commission_calculated_at,omitempty"`

	VideoRoomID string `gorm:"type:varchar(100)" json:"video_room_id,omitempty"`
	ChatRoomID  string `gorm:"type:varchar(100)" json:"chat_room_id,omitempty"`

	// Relationships
	Customer    User      `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Optometrist User      `gorm:"foreignKey:OptometristID" json:"optometrist,omitempty"`
	Payments    []Payment `gorm:"foreignKey:AppointmentID" json:"payments,omitempty"`
}

// NeedsRoom reports whether the consultation method requires a remote room
func (a Appointment) NeedsRoom() bool {
	return a.Method == ConsultationVideo || a.Method == ConsultationChat
}

// RoomID returns the provisioned room id for the consultation method, if any
func (a Appointment) RoomID() string {
	switch a.Method {
	case ConsultationVideo:
		return a.VideoRoomID
	case ConsultationChat:
		return a.ChatRoomID
	}
	return ""
}
