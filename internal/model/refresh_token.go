package model

import "time"

// RefreshToken is an opaque, single-use session renewal credential.
// Rows are never deleted; used, revoked and expired tokens remain as an audit trail.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;index"`
	Token     string    `gorm:"size:64;not null;uniqueIndex"`
	ExpiresAt time.Time `gorm:"not null;index"`
	IsRevoked bool      `gorm:"not null;default:false"`
	IsUsed    bool      `gorm:"not null;default:false"`
	CreatedAt time.Time

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// Valid reports whether the token can still be exchanged at the given instant.
func (t *RefreshToken) Valid(now time.Time) bool {
	return !t.IsRevoked && !t.IsUsed && t.ExpiresAt.After(now)
}
