package types

// IdentityUser is the normalized identity provider account
type IdentityUser struct {
	ID                    string
	PrimaryEmailAddressID string
	EmailAddresses        []IdentityEmailAddress
}

// IdentityEmailAddress is one address attached to an identity
type IdentityEmailAddress struct {
	ID           string
	EmailAddress string
	Verified     bool
}

// PrimaryEmail returns the address flagged as primary, or the first one
func (u *IdentityUser) PrimaryEmail() string {
	for _, e := range u.EmailAddresses {
		if e.ID == u.PrimaryEmailAddressID {
			return e.EmailAddress
		}
	}
	if len(u.EmailAddresses) > 0 {
		return u.EmailAddresses[0].EmailAddress
	}
	return ""
}
