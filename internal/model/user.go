package model

import (
	"gorm.io/gorm"
)

// Role governs route-level authorization only; repositories never consult it.
type Role string

const (
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
)

type User struct {
	gorm.Model
	Username string  `gorm:"column:username;size:50;not null" json:"username"`
	Email    string  `gorm:"column:email;size:150;uniqueIndex;not null" json:"email"`
	Password string  `gorm:"column:password;not null" json:"-"`
	Avatar   *string `gorm:"column:avatar;size:255" json:"avatar"`
	// RefreshToken holds the currently valid refresh token verbatim; NULL
	// means logged out. A presented token must equal it exactly.
	RefreshToken *string `gorm:"column:refresh_token" json:"-"`
	Confirmed    bool    `gorm:"column:confirmed;default:false;not null" json:"confirmed"`
	Role         Role    `gorm:"column:role;type:varchar(16);default:user;not null" json:"role"`
}
