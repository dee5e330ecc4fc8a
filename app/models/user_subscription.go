package models

import "time"

const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusPaused    = "paused"
	SubscriptionStatusCancelled = "cancelled"
	SubscriptionStatusExpired   = "expired"
)

// UserSubscription is one enrollment period. Renewals append a new row.
//
// CurrentSlot carries the user id while the row is the user's current
// active/paused enrollment and is NULL otherwise; its unique index enforces
// at most one current row per user.
type UserSubscription struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	UserID      uint              `gorm:"not null;index" json:"user_id"`
	PlanID      uint              `gorm:"not null;index" json:"plan_id"`
	StartDate   time.Time         `gorm:"type:timestamp;not null" json:"start_date"`
	EndDate     time.Time         `gorm:"type:timestamp;not null;index" json:"end_date"`
	Status      string            `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	AutoRenew   bool              `gorm:"default:true" json:"auto_renew"`
	PauseStart  *time.Time        `gorm:"type:timestamp;default:null" json:"pause_start,omitempty"`
	PauseEnd    *time.Time        `gorm:"type:timestamp;default:null" json:"pause_end,omitempty"`
	CurrentSlot *uint             `gorm:"uniqueIndex:ux_user_subscriptions_current_slot" json:"-"`
	Plan        *SubscriptionPlan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	CreatedAt   time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsLive reports whether the row is active and its period has not ended.
// Status alone goes stale because expiry is only applied lazily on reads.
func (s *UserSubscription) IsLive(now time.Time) bool {
	return s.Status == SubscriptionStatusActive && !s.EndDate.Before(now)
}

// HoldsStatus reports whether status is one that occupies the user's current slot.
func HoldsStatus(status string) bool {
	return status == SubscriptionStatusActive || status == SubscriptionStatusPaused
}
