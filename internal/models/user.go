package models

import (
	"time"

	"github.com/google/uuid"
)

type Provider string

const (
	ProviderLocal  Provider = "local"
	ProviderGoogle Provider = "google"
)

const RoleUser = "user"

// User is a single principal. ProviderID is set only for federated accounts;
// use Identity to reason about the account kind.
type User struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email            string    `gorm:"not null;size:255;uniqueIndex:idx_users_email" json:"email"`
	PasswordHash     string    `gorm:"not null" json:"-"`
	Provider         Provider  `gorm:"size:20;not null;uniqueIndex:idx_users_provider_subject" json:"provider"`
	ProviderID       *string   `gorm:"size:255;uniqueIndex:idx_users_provider_subject" json:"-"`
	RefreshTokenHash *string   `gorm:"size:64" json:"-"`
	Role             string    `gorm:"size:20;not null" json:"role"`
	Username         string    `gorm:"size:255" json:"username"`
	Avatar           string    `gorm:"size:1024" json:"avatar"`
	PhoneNo          string    `gorm:"size:32" json:"phoneNo"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Identity describes how a user authenticates. It is either LocalIdentity or
// FederatedIdentity.
type Identity interface {
	isIdentity()
}

type LocalIdentity struct{}

type FederatedIdentity struct {
	Provider Provider
	Subject  string
}

func (LocalIdentity) isIdentity()     {}
func (FederatedIdentity) isIdentity() {}

// Identity projects the stored provider columns onto the Identity union.
func (u *User) Identity() Identity {
	if u.Provider == ProviderLocal || u.Provider == "" || u.ProviderID == nil {
		return LocalIdentity{}
	}
	return FederatedIdentity{Provider: u.Provider, Subject: *u.ProviderID}
}

// SetIdentity writes id into the provider columns.
func (u *User) SetIdentity(id Identity) {
	switch v := id.(type) {
	case LocalIdentity:
		u.Provider = ProviderLocal
		u.ProviderID = nil
	case FederatedIdentity:
		subject := v.Subject
		u.Provider = v.Provider
		u.ProviderID = &subject
	}
}
