package models

import "time"

// CircleRole defines a member's role in a circle.
type CircleRole string

const (
	// CircleRoleOwner is held by the circle creator.
	CircleRoleOwner CircleRole = "owner"
	// CircleRoleAdmin may approve requests and manage invites.
	CircleRoleAdmin CircleRole = "admin"
	// CircleRoleMember is the default role.
	CircleRoleMember CircleRole = "member"
)

// Valid reports whether r is a known role.
func (r CircleRole) Valid() bool {
	switch r {
	case CircleRoleOwner, CircleRoleAdmin, CircleRoleMember:
		return true
	}
	return false
}

// MembershipStatus tracks whether a membership has been approved.
type MembershipStatus string

const (
	// MembershipStatusPending is a join request awaiting review.
	MembershipStatusPending MembershipStatus = "pending"
	// MembershipStatusActive is an approved membership.
	MembershipStatusActive MembershipStatus = "active"
)

// CircleMembership links a user to a circle. At most one row exists per
// (circle, user) pair; rejecting a pending request deletes the row.
type CircleMembership struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	CircleID     uint             `gorm:"not null;uniqueIndex:idx_circle_memberships_pair;index" json:"circle_id"`
	Circle       *Circle          `gorm:"foreignKey:CircleID" json:"circle,omitempty"`
	UserID       uint             `gorm:"not null;uniqueIndex:idx_circle_memberships_pair;index" json:"user_id"`
	User         *User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role         CircleRole       `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	Status       MembershipStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	InvitedByID  *uint            `json:"invited_by_id,omitempty"`
	ApprovedByID *uint            `json:"approved_by_id,omitempty"`
	ApprovedAt   *time.Time       `json:"approved_at,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (CircleMembership) TableName() string {
	return "circle_memberships"
}

// IsActive reports whether the membership has been approved.
func (m *CircleMembership) IsActive() bool {
	return m != nil && m.Status == MembershipStatusActive
}

// CanManage reports whether the holder may approve requests and invites.
func (m *CircleMembership) CanManage() bool {
	return m.IsActive() && (m.Role == CircleRoleOwner || m.Role == CircleRoleAdmin)
}
