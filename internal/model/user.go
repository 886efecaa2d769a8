package model

import "time"

const TableNameUser = "user"

// User mapped from table <user>
type User struct {
	UID       int64     `gorm:"column:uid;primaryKey;autoIncrement" json:"uid"`
	Email     string    `gorm:"column:email;size:191;not null;uniqueIndex:idx_user_email" json:"email"`
	Username  string    `gorm:"column:username;size:191;not null" json:"username"`
	Password  string    `gorm:"column:password;size:255;not null" json:"-"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (*User) TableName() string {
	return TableNameUser
}
