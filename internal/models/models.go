package models

import (
	"time"
)

type User struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username       string    `gorm:"unique;not null;size:30"  json:"username"`
	Email          string    `gorm:"unique;not null;size:256" json:"email"`
	HashedPassword string    `gorm:"not null;size:60"         json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// SessionUser is the projection embedded in the session token and returned
// from the session endpoints. It never carries the password hash.
type SessionUser struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// PublicUser is the projection used anywhere a user appears in a list view.
type PublicUser struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

func (u *User) Session() SessionUser {
	return SessionUser{ID: u.ID, Username: u.Username, Email: u.Email}
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username}
}

type Cafe struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID     uint      `gorm:"index;not null"           json:"ownerId"`
	Title       string    `gorm:"not null;size:80"         json:"title"`
	Description string    `gorm:"not null"                 json:"description"`
	Img         string    `gorm:"not null"                 json:"img"`
	Address     string    `gorm:"not null"                 json:"address"`
	City        string    `gorm:"not null"                 json:"city"`
	ZipCode     string    `gorm:"not null"                 json:"zipCode"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Review keeps the wire name "businessId" for its cafe reference. Rows are
// removed together with their cafe, in the same transaction.
type Review struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"                   json:"id"`
	UserID     uint      `gorm:"index;not null"                             json:"userId"`
	BusinessID uint      `gorm:"index;not null;constraint:OnDelete:CASCADE" json:"businessId"`
	Answer     string    `gorm:"not null"                                   json:"answer"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
