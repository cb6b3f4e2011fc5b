package model

import "time"

// User is a registered person. Its Email is unique.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Active    bool      `gorm:"not null" json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserMeta keeps one free-form key/value pair of a User.
type UserMeta struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID uint   `gorm:"not null;index" json:"user_id"`
	User   *User  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Key    string `gorm:"size:64;not null" json:"key"`
	Value  string `gorm:"type:text" json:"value"`
}

// TableName overrides the default table name of UserMeta which would
// be user_meta, since meta is taken as an uncountable noun.
func (UserMeta) TableName() string {
	return "user_metas"
}
