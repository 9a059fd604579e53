package models

import (
	"testing"
	"time"
)

func TestAdminLockoutAfterMaxFailures(t *testing.T) {
	admin := &Admin{IsActive: true}
	now := time.Now()

	for i := 0; i < 4; i++ {
		admin.RegisterFailure(now, 5, 15*time.Minute)
		if admin.IsLocked(now) {
			t.Fatalf("locked after %d failures", i+1)
		}
	}

	admin.RegisterFailure(now, 5, 15*time.Minute)
	if !admin.IsLocked(now) {
		t.Fatal("expected lock after 5th failure")
	}

	// Still locked just before the window closes, open afterwards.
	if !admin.IsLocked(now.Add(14 * time.Minute)) {
		t.Fatal("lock should hold inside the window")
	}
	if admin.IsLocked(now.Add(16 * time.Minute)) {
		t.Fatal("lock should expire after the window")
	}
}

func TestAdminRegisterSuccessResetsLockState(t *testing.T) {
	admin := &Admin{IsActive: true}
	now := time.Now()

	for i := 0; i < 5; i++ {
		admin.RegisterFailure(now, 5, 15*time.Minute)
	}
	if !admin.IsLocked(now) {
		t.Fatal("expected locked account")
	}

	later := now.Add(20 * time.Minute)
	admin.RegisterSuccess(later)

	if admin.LoginAttempts != 0 {
		t.Fatalf("loginAttempts = %d, want 0", admin.LoginAttempts)
	}
	if admin.LockUntil != nil {
		t.Fatal("lockUntil should be cleared")
	}
	if admin.LastLogin == nil || !admin.LastLogin.Equal(later) {
		t.Fatalf("lastLogin not stamped: %v", admin.LastLogin)
	}
}
