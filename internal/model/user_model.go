package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash *string   `gorm:"type:varchar(255)"`
	FullName     string    `gorm:"type:varchar(255);not null"`
	Role         string    `gorm:"type:varchar(32);not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

// UserLink is one row per parent->child edge. Both directions of the
// relationship are derived from this single table so the two sides can
// never diverge.
type UserLink struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ParentId  uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_user_links_pair"`
	ChildId   uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_user_links_pair"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (UserLink) TableName() string {
	return "user_links"
}
