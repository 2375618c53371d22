package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Contact struct {
	gorm.Model
	FirstName string         `gorm:"column:firstname;size:50;not null" json:"firstname"`
	LastName  string         `gorm:"column:lastname;size:50;not null" json:"lastname"`
	Email     string         `gorm:"column:email;size:150;not null" json:"email"`
	Mobile    string         `gorm:"column:mobile;size:50" json:"mobile"`
	BirthDate datatypes.Date `gorm:"column:birth_date" json:"birth_date"`
	Note      string         `gorm:"column:note;size:250" json:"note"`
	UserID    uint           `gorm:"column:user_id;index;not null" json:"-"`
	User      User           `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
