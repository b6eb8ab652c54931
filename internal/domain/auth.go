package domain

// Credentials is the login request body.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the body returned by a successful login.
type LoginResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	User    User   `json:"user"`
}

// RefreshResponse is the body returned by the token refresh endpoint.
type RefreshResponse struct {
	Access string `json:"access"`
}

// Registration is the account creation request body.
type Registration struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	FirstName       string `json:"first_name,omitempty"`
	LastName        string `json:"last_name,omitempty"`
	Role            Role   `json:"role"`
	Organisation    *int64 `json:"organisation,omitempty"`
	Phone           string `json:"phone,omitempty"`
}

// HashVerification is the blockchain verification reply.
type HashVerification struct {
	Verified bool   `json:"verified"`
	Hash     string `json:"hash,omitempty"`
	TxID     string `json:"tx_id,omitempty"`
}
