package models

type User struct {
	ID               string `json:"id"`
	Username         string `json:"username"`
	Email            string `json:"email"`
	RegistrationDate string `json:"registration_date"`
	IsActive         bool   `json:"is_active"`
	IsAdmin          bool   `json:"is_admin"`
}

// CanBeDeactivated reports whether the admin panel offers deactivation.
func (u User) CanBeDeactivated() bool {
	return u.IsActive && !u.IsAdmin
}
