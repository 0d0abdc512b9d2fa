// Package models contains the core Meridian data structures
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// USERS & ROLES
// =============================================================================

// User represents a dashboard user
type User struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Email        string     `json:"email" gorm:"uniqueIndex;not null;size:255"`
	PasswordHash string     `json:"-" gorm:"size:255"`
	FirstName    string     `json:"first_name" gorm:"size:100"`
	LastName     string     `json:"last_name" gorm:"size:100"`
	RoleID       *uuid.UUID `json:"role_id" gorm:"type:uuid;index"`
	IsActive     bool       `json:"is_active" gorm:"default:true"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// Relations
	Role *Role `json:"role,omitempty" gorm:"foreignKey:RoleID"`
}

// Role represents a user role with a hierarchy level and an explicitly
// granted permission set. Level ranks authority: lower number means higher
// authority, 0 is the topmost role. ParentRoleID is a weak reference that
// enables permission inheritance; the effective set of a role is its own
// permissions unioned with its parent chain's.
type Role struct {
	ID           uuid.UUID   `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Name         string      `json:"name" gorm:"not null;size:100"`
	Description  string      `json:"description"`
	Level        int         `json:"level" gorm:"not null;default:99"`
	ParentRoleID *uuid.UUID  `json:"parent_role_id" gorm:"type:uuid"`
	Permissions  StringArray `json:"permissions" gorm:"type:jsonb;default:'[]'"`
	UsersCount   int         `json:"users_count" gorm:"default:0"`
	IsSystem     bool        `json:"is_system" gorm:"default:false"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Deletable reports whether the role may be deleted: system roles and
// roles with assigned users are protected
func (r *Role) Deletable() bool {
	return !r.IsSystem && r.UsersCount == 0
}

// =============================================================================
// CLIENT TEMPLATES
// =============================================================================

// ClientTemplate is the versioned schema a client record's custom data
// conforms to. Version increments on every structural change. Exactly one
// template per deployment should carry IsDefault, by convention.
type ClientTemplate struct {
	ID          uuid.UUID     `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Name        string        `json:"name" gorm:"not null;size:255"`
	Description string        `json:"description"`
	BasicInfo   SectionBundle `json:"basic_info" gorm:"type:jsonb;default:'{}'"`
	Preferences SectionBundle `json:"preferences" gorm:"type:jsonb;default:'{}'"`
	Tabs        TabList       `json:"tabs" gorm:"type:jsonb;default:'[]'"`
	Version     int           `json:"version" gorm:"default:1"`
	IsDefault   bool          `json:"is_default" gorm:"default:false"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// =============================================================================
// CLIENTS
// =============================================================================

// ClientType classifies a coaching client
type ClientType string

const (
	ClientIndividual ClientType = "individual"
	ClientBusiness   ClientType = "business"
	ClientNonProfit  ClientType = "non-profit"
	ClientGovernment ClientType = "government"
)

// ClientStatus is the lifecycle status of a client
type ClientStatus string

const (
	StatusActive    ClientStatus = "active"
	StatusInactive  ClientStatus = "inactive"
	StatusPending   ClientStatus = "pending"
	StatusSuspended ClientStatus = "suspended"
	StatusArchived  ClientStatus = "archived"
)

// RecordMeta tracks who touched a record and when. Version starts at 1 on
// create and increments on every update.
type RecordMeta struct {
	CreatedAt time.Time  `json:"createdAt"`
	CreatedBy *uuid.UUID `json:"createdBy,omitempty" gorm:"type:uuid"`
	UpdatedAt time.Time  `json:"updatedAt"`
	UpdatedBy *uuid.UUID `json:"updatedBy,omitempty" gorm:"type:uuid"`
	Version   int        `json:"version"`
}

// NoteEntry is one entry in a client's append-only notes list
type NoteEntry struct {
	ID        string     `json:"id"`
	Content   string     `json:"content"`
	CreatedBy *uuid.UUID `json:"createdBy,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// DocumentEntry is one entry in a client's append-only documents list.
// Only metadata is kept here; file storage lives elsewhere.
type DocumentEntry struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	URL        string     `json:"url,omitempty"`
	UploadedBy *uuid.UUID `json:"uploadedBy,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// ActivityEntry is one entry in a client's append-only activity list
type ActivityEntry struct {
	ID          string     `json:"id"`
	Kind        string     `json:"kind"`
	Description string     `json:"description"`
	CreatedBy   *uuid.UUID `json:"createdBy,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// NoteList is a JSONB-backed list of notes
type NoteList []NoteEntry

// Value implements the driver.Valuer interface
func (l NoteList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]NoteEntry{})
	}
	return json.Marshal([]NoteEntry(l))
}

// Scan implements the sql.Scanner interface
func (l *NoteList) Scan(value interface{}) error {
	*l = nil
	return scanJSONB(value, l)
}

// DocumentList is a JSONB-backed list of document metadata
type DocumentList []DocumentEntry

// Value implements the driver.Valuer interface
func (l DocumentList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]DocumentEntry{})
	}
	return json.Marshal([]DocumentEntry(l))
}

// Scan implements the sql.Scanner interface
func (l *DocumentList) Scan(value interface{}) error {
	*l = nil
	return scanJSONB(value, l)
}

// ActivityList is a JSONB-backed list of activities
type ActivityList []ActivityEntry

// Value implements the driver.Valuer interface
func (l ActivityList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]ActivityEntry{})
	}
	return json.Marshal([]ActivityEntry(l))
}

// Scan implements the sql.Scanner interface
func (l *ActivityList) Scan(value interface{}) error {
	*l = nil
	return scanJSONB(value, l)
}

// Client represents a coaching client record. TemplateID is a weak
// reference: the template may be deleted after assignment, in which case
// the stored TemplateData is still shown raw.
type Client struct {
	ID           uuid.UUID     `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Type         ClientType    `json:"type" gorm:"not null;size:20;default:'individual'"`
	Status       ClientStatus  `json:"status" gorm:"not null;size:20;default:'pending'"`
	Name         string        `json:"name" gorm:"not null;size:255"`
	Email        string        `json:"email" gorm:"size:255"`
	Phone        string        `json:"phone" gorm:"size:50"`
	Company      string        `json:"company" gorm:"size:255"`
	JoinedAt     time.Time     `json:"joined_at"`
	Preferences  JSONB         `json:"preferences" gorm:"type:jsonb;default:'{}'"`
	Documents    DocumentList  `json:"documents" gorm:"type:jsonb;default:'[]'"`
	Notes        NoteList      `json:"notes" gorm:"type:jsonb;default:'[]'"`
	Activities   ActivityList  `json:"activities" gorm:"type:jsonb;default:'[]'"`
	Tags         StringArray   `json:"tags" gorm:"type:jsonb;default:'[]'"`
	Metadata     RecordMeta    `json:"metadata" gorm:"embedded"`
	TemplateID   *uuid.UUID    `json:"template_id" gorm:"type:uuid"`
	TemplateData *TemplateData `json:"template_data,omitempty" gorm:"type:jsonb"`
}

// Valid reports whether the client type is one of the known values
func (t ClientType) Valid() bool {
	switch t {
	case ClientIndividual, ClientBusiness, ClientNonProfit, ClientGovernment:
		return true
	}
	return false
}

// Valid reports whether the status is one of the known values
func (s ClientStatus) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusPending, StatusSuspended, StatusArchived:
		return true
	}
	return false
}
