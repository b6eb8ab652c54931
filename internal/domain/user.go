package domain

import "encoding/json"

// User is the account record returned by the API on login and persisted
// alongside the session tokens.
type User struct {
	ID               int64  `json:"id"`
	Username         string `json:"username"`
	Email            string `json:"email,omitempty"`
	FirstName        string `json:"first_name,omitempty"`
	LastName         string `json:"last_name,omitempty"`
	Role             Role   `json:"role"`
	Organisation     *int64 `json:"organisation"`
	OrganisationName string `json:"organisation_name,omitempty"`
	Phone            string `json:"phone,omitempty"`
	IsApproved       bool   `json:"is_approved"`
}

// DisplayName prefers the first name and falls back to the username.
func (u User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Username
}

// UnmarshalJSON tolerates organisation references encoded as numbers,
// numeric strings or null.
func (u *User) UnmarshalJSON(data []byte) error {
	type alias User
	aux := struct {
		*alias
		Organisation json.RawMessage `json:"organisation"`
	}{alias: (*alias)(u)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	u.Organisation = nil
	if len(aux.Organisation) == 0 || string(aux.Organisation) == "null" {
		return nil
	}
	var id json.Number
	if err := json.Unmarshal(aux.Organisation, &id); err != nil {
		var s string
		if err := json.Unmarshal(aux.Organisation, &s); err != nil || s == "" {
			return nil
		}
		id = json.Number(s)
	}
	if n, err := id.Int64(); err == nil {
		u.Organisation = &n
	}
	return nil
}
