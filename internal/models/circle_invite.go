package models

import (
	"strings"
	"time"
)

// InviteStatus is the lifecycle state of a circle invite.
type InviteStatus string

const (
	// InviteStatusPending awaits a response from the invited identity.
	InviteStatusPending InviteStatus = "pending"
	// InviteStatusAccepted is terminal; a membership was activated.
	InviteStatusAccepted InviteStatus = "accepted"
	// InviteStatusDeclined is terminal.
	InviteStatusDeclined InviteStatus = "declined"
)

// CircleInvite targets a username or email address. Only one pending invite
// may exist per (circle, target).
type CircleInvite struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	CircleID    uint         `gorm:"not null;index;index:idx_circle_invites_pending,unique,where:status = 'pending'" json:"circle_id"`
	Circle      *Circle      `gorm:"foreignKey:CircleID" json:"circle,omitempty"`
	Target      string       `gorm:"size:254;not null;index;index:idx_circle_invites_pending,unique,where:status = 'pending'" json:"target"`
	InvitedByID uint         `gorm:"not null" json:"invited_by_id"`
	InvitedBy   *User        `gorm:"foreignKey:InvitedByID" json:"invited_by,omitempty"`
	Status      InviteStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	RespondedAt *time.Time   `json:"responded_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (CircleInvite) TableName() string {
	return "circle_invites"
}

// NormalizeInviteTarget canonicalizes a username or email for comparison.
func NormalizeInviteTarget(target string) string {
	return strings.ToLower(strings.TrimSpace(target))
}

// MatchesUser reports whether the invite addresses u.
func (i *CircleInvite) MatchesUser(u *User) bool {
	if u == nil {
		return false
	}
	t := NormalizeInviteTarget(i.Target)
	return t == NormalizeInviteTarget(u.Username) || t == NormalizeInviteTarget(u.Email)
}
