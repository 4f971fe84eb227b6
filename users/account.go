package users

// Account is the server-side record of a user, as kept by a backend implementation.
type Account struct {
	User
	TenantCode    string
	Email         string
	Address       string
	ContactNumber string
	PasswordHash  string
}

// Username is the login name: the email when set, otherwise the user code.
func (a *Account) Username() string {
	if a.Email != "" {
		return a.Email
	}
	return a.UserCode
}

// Public returns the account without its API key.
func (a *Account) Public() User {
	u := a.User
	u.APIKey = ""
	return u
}
