// Package domain defines the persistence models for sessions, messages,
// leads, schedule preferences, and certificates. These types are mapped with
// GORM and form the core data layer of the support-bot backend.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Role values for Message.Role.
const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// Certificate status values.
const (
	CertStatusReady      = "ready"
	CertStatusInProgress = "in_progress"
	CertStatusNotReady   = "not_ready"
)

// Session represents one end-user conversation with the bot. A session is
// bound to the owner identity that first referenced it; the binding never
// changes afterwards, and every later turn presenting a different identity
// is rejected.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - OwnerIdentity: durable caller identity ("tok:…" or "anon:…"); indexed.
//   - LastMessageAt / LastMessagePreview: updated on every completed turn.
//   - MessageSeq: per-session conversation sequence number, incremented per turn.
//   - Pinned: pinned sessions sort first in listings.
//   - DeletedAt: soft deletion marker (messages cascade on delete).
type Session struct {
	ID                 string         `json:"id"                   gorm:"type:char(36);primaryKey"`
	OwnerIdentity      string         `json:"-"                    gorm:"type:varchar(128);not null;index:idx_owner_sessions"`
	LastMessageAt      *time.Time     `json:"last_message_at,omitempty"`
	LastMessagePreview string         `json:"last_message_preview" gorm:"type:varchar(160);not null;default:''"`
	MessageSeq         int            `json:"message_seq"          gorm:"not null;default:0"`
	Pinned             bool           `json:"pinned"               gorm:"not null;default:false"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `json:"-"                    gorm:"index"`
}

// TableName returns the database table name for Session.
func (Session) TableName() string { return "sessions" }

// Message is a single utterance within a session, authored either by the
// "user" or the "bot". Messages are append-only and strictly time-ordered
// per session; they are never mutated after creation.
type Message struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	SessionID string         `json:"session_id" gorm:"type:char(36);not null;index:idx_session_msgs,priority:1"`
	Role      string         `json:"role"       gorm:"type:varchar(8);not null;check:role IN ('user','bot')"`
	Content   string         `json:"content"    gorm:"type:text;not null"`
	CreatedAt time.Time      `json:"created_at" gorm:"index:idx_session_msgs,priority:2"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`

	// Session is the parent conversation. Messages are cascade-deleted
	// if their session is removed.
	Session Session `json:"-" gorm:"foreignKey:SessionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// Lead is a completed enrollment request captured by the enrollment flow.
// A lead row is written only when the flow reaches its terminal step with
// every required field validated; partial leads are never persisted.
type Lead struct {
	ID            string `json:"id"          gorm:"type:char(36);primaryKey"`
	OwnerIdentity string `json:"-"           gorm:"type:varchar(128);not null;index"`
	SessionID     string `json:"session_id"  gorm:"type:char(36);not null;index"`
	FullName      string `json:"full_name"   gorm:"type:varchar(160);not null"`
	Phone         string `json:"phone"       gorm:"type:varchar(32);not null"`
	CourseName    string `json:"course_name" gorm:"type:varchar(160);not null"`
	// SchedulePreferenceID references the schedule captured earlier in the
	// same session, when one exists.
	SchedulePreferenceID *string   `json:"schedule_preference_id,omitempty" gorm:"type:char(36)"`
	CreatedAt            time.Time `json:"created_at"`
}

// TableName returns the database table name for Lead.
func (Lead) TableName() string { return "leads" }

// SchedulePreference records when a user prefers to attend classes. Its
// generated ID is cached in-session so a later enrollment flow can skip
// re-asking the schedule questions.
type SchedulePreference struct {
	ID            string    `json:"id"          gorm:"type:char(36);primaryKey"`
	OwnerIdentity string    `json:"-"           gorm:"type:varchar(128);not null;index"`
	SessionID     string    `json:"session_id"  gorm:"type:char(36);not null;index"`
	TimeOfDay     string    `json:"time_of_day" gorm:"type:varchar(16);not null;check:time_of_day IN ('morning','afternoon','evening')"`
	Days          string    `json:"days"        gorm:"type:varchar(16);not null;check:days IN ('weekday','weekend')"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName returns the database table name for SchedulePreference.
func (SchedulePreference) TableName() string { return "schedule_preferences" }

// Certificate is a read-only record of a certificate order. Rows are seeded
// at startup and looked up by the certificate-status flow using the 4-digit
// order code plus a fuzzy course-name substring.
type Certificate struct {
	ID          string    `json:"id"           gorm:"type:char(36);primaryKey"`
	OrderCode   string    `json:"order_code"   gorm:"type:char(4);not null;index"`
	CourseName  string    `json:"course_name"  gorm:"type:varchar(160);not null"`
	Status      string    `json:"status"       gorm:"type:varchar(16);not null;check:status IN ('ready','in_progress','not_ready')"`
	LastUpdated time.Time `json:"last_updated" gorm:"not null"`
}

// TableName returns the database table name for Certificate.
func (Certificate) TableName() string { return "certificates" }
