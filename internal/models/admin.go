package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	AdminRoleAdmin      = "admin"
	AdminRoleSuperAdmin = "superadmin"
)

// Admin is a back-office account with brute-force lockout bookkeeping.
type Admin struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name"`
	Email         string             `bson:"email" json:"email"`
	PasswordHash  string             `bson:"passwordHash" json:"-"`
	Role          string             `bson:"role" json:"role"`
	IsActive      bool               `bson:"isActive" json:"isActive"`
	LastLogin     *time.Time         `bson:"lastLogin,omitempty" json:"lastLogin,omitempty"`
	LoginAttempts int                `bson:"loginAttempts" json:"-"`
	LockUntil     *time.Time         `bson:"lockUntil,omitempty" json:"-"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsLocked reports whether the lockout window is still open at now.
func (a *Admin) IsLocked(now time.Time) bool {
	return a.LockUntil != nil && a.LockUntil.After(now)
}

// RegisterFailure counts a failed password check. Reaching maxAttempts
// consecutive failures locks the account for lockFor.
func (a *Admin) RegisterFailure(now time.Time, maxAttempts int, lockFor time.Duration) {
	a.LoginAttempts++
	if a.LoginAttempts >= maxAttempts {
		until := now.Add(lockFor)
		a.LockUntil = &until
	}
	a.UpdatedAt = now
}

// RegisterSuccess resets the failure counter, clears any lock and stamps the
// login time.
func (a *Admin) RegisterSuccess(now time.Time) {
	a.LoginAttempts = 0
	a.LockUntil = nil
	a.LastLogin = &now
	a.UpdatedAt = now
}
