package models

import "time"

// UsersGroup represents a role/group users belong to. New registrations are
// assigned the default "users" group.
type UsersGroup struct {
	ID   uint   `json:"group_id" gorm:"column:group_id;primaryKey;autoIncrement"`
	Name string `json:"group_name" gorm:"column:group_name;not null"`
}

func (UsersGroup) TableName() string { return "users_groups" }

// User represents a registered user of the service.
type User struct {
	ID           uint      `json:"user_id" gorm:"column:user_id;primaryKey;autoIncrement"`
	FirstName    string    `json:"first_name" gorm:"column:first_name;type:varchar(50);not null" validate:"required,min=1,max=50"`
	LastName     string    `json:"last_name" gorm:"column:last_name;type:varchar(50);not null" validate:"required,min=1,max=50"`
	Email        string    `json:"email" gorm:"column:email;type:varchar(100);uniqueIndex;not null" validate:"required,email"`
	Phone        string    `json:"phone" gorm:"column:phone;type:varchar(30);not null"` // stored in E.164 form
	PasswordHash string    `json:"-" gorm:"column:password;type:varchar(255);not null"` // never serialized
	Active       bool      `json:"active" gorm:"column:active;not null;default:true"`
	Created      time.Time `json:"created" gorm:"column:created"`

	GroupID uint       `json:"group_id" gorm:"column:group_id;not null"`
	Group   UsersGroup `json:"-" gorm:"foreignKey:GroupID;references:ID"`
}

func (User) TableName() string { return "users" }
