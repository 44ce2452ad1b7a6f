package models

import (
	"time"

	"gorm.io/gorm"
)

// FieldUsername is the user document's display name field.
const FieldUsername = "username"

// User is an account that authors posts.
type User struct {
	ID        string    `gorm:"primaryKey;size:64" bson:"_id" json:"userId"`
	Username  string    `gorm:"size:128;uniqueIndex;not null" bson:"username" json:"username"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

func (User) TableName() string { return "users" }

// BeforeCreate ensures identifiers are generated automatically.
func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = Now()
	}
	return nil
}

func (u *User) EntityID() string { return u.ID }

func (u *User) Document() Document {
	return Document{
		FieldUserID:    u.ID,
		FieldUsername:  u.Username,
		FieldCreatedAt: formatTime(u.CreatedAt),
	}
}

// UserKind describes users. Users carry no counters.
var UserKind = register(&Kind{
	Name:       "user",
	Collection: "users",
	IDField:    FieldUserID,
	SortField:  FieldCreatedAt,
	Public:     []string{FieldUserID, FieldUsername, FieldCreatedAt},
	columns: map[string]string{
		FieldUserID:    "id",
		FieldUsername:  "username",
		FieldCreatedAt: "created_at",
	},
	newEntity: func() Entity { return &User{} },
})
