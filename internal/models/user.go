package models

// UserModel is an internal operator account. Accounts are provisioned by the
// identity provider; this service only reads them to address notifications.
type UserModel struct {
	Base
	Username string `json:"username" gorm:"size:191;uniqueIndex;not null"`
	Name     string `json:"name"`
	Mail     string `json:"mail"`
}

func (UserModel) TableName() string { return "users" }
