package models

import (
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleAnalyst Role = "analyst"
	RoleViewer  Role = "viewer"
)

// Actions checked by HasPermission.
const (
	PermViewAlerts    = "view_alerts"
	PermViewDashboard = "view_dashboard"
	PermComposeRules  = "compose_rules"
	PermPublishRules  = "publish_rules"
	PermSendDigest    = "send_digest"
	PermManageRules   = "manage_rules"
)

type User struct {
	gorm.Model
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Password string `gorm:"not null" json:"-"`
	Role     Role   `gorm:"not null" json:"role"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// HasPermission reports whether the role may perform action.
func (u *User) HasPermission(action string) bool {
	switch u.Role {
	case RoleAdmin:
		return true
	case RoleAnalyst:
		return action != PermManageRules
	case RoleViewer:
		return action == PermViewAlerts || action == PermViewDashboard
	default:
		return false
	}
}
