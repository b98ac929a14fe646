package models

import (
	"fmt"
	"strings"
	"time"
)

var _ Model = (*User)(nil)

// User is a reader account in the local database.
type User struct {
	id        string
	sequence  int
	email     string
	name      string
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewUser creates a [User] with creation and update timestamps set to now.
func NewUser(sequence int, email, name string) *User {
	now := time.Now().UTC()
	return &User{
		sequence:  sequence,
		email:     strings.TrimSpace(email),
		name:      name,
		createdAt: now,
		updatedAt: now,
	}
}

func (u *User) ID() string                { return u.id }
func (u *User) Sequence() int             { return u.sequence }
func (u *User) Email() string             { return u.email }
func (u *User) Name() string              { return u.name }
func (u *User) CreatedAt() time.Time      { return u.createdAt }
func (u *User) UpdatedAt() time.Time      { return u.updatedAt }
func (u *User) DeletedAt() *time.Time     { return u.deletedAt }
func (u *User) SetID(id string)           { u.id = id }
func (u *User) SetSequence(seq int)       { u.sequence = seq }
func (u *User) SetName(name string)       { u.name = name }
func (u *User) SetCreatedAt(t time.Time)  { u.createdAt = t }
func (u *User) SetUpdatedAt(t time.Time)  { u.updatedAt = t }
func (u *User) SetDeletedAt(t *time.Time) { u.deletedAt = t }

// Identity returns the identity-service view of this user.
func (u *User) Identity() Identity {
	return Identity{UserID: u.id, Email: u.email}
}

// Validate requires an ID and a plausible email address.
func (u *User) Validate() error {
	if u.id == "" {
		return fmt.Errorf("user id is required")
	}
	if u.email == "" {
		return fmt.Errorf("user email is required")
	}
	if !strings.Contains(u.email, "@") {
		return fmt.Errorf("user email %q is not an email address", u.email)
	}
	return nil
}

// Identity is the authenticated reader as reported by the identity service.
type Identity struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
}
