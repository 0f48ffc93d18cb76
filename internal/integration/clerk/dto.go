package clerk

import (
	"github.com/quizfunnel/leadsync/internal/types"
	"github.com/samber/lo"
)

const (
	// error code returned when creating a user whose email is already taken
	errCodeIdentifierExists = "form_identifier_exists"

	verificationStatusVerified = "verified"
)

type createUserRequest struct {
	EmailAddress         []string `json:"email_address"`
	SkipPasswordRequired bool     `json:"skip_password_requirement"`
}

type createEmailAddressRequest struct {
	UserID       string `json:"user_id"`
	EmailAddress string `json:"email_address"`
	Verified     bool   `json:"verified"`
	Primary      bool   `json:"primary"`
}

type updateEmailAddressRequest struct {
	Verified *bool `json:"verified,omitempty"`
	Primary  *bool `json:"primary,omitempty"`
}

type createSignInTokenRequest struct {
	UserID           string `json:"user_id"`
	ExpiresInSeconds int64  `json:"expires_in_seconds"`
}

type signInTokenResponse struct {
	ID     string `json:"id"`
	Token  string `json:"token"`
	Status string `json:"status"`
	URL    string `json:"url"`
}

type userResponse struct {
	ID                    string                 `json:"id"`
	PrimaryEmailAddressID *string                `json:"primary_email_address_id"`
	EmailAddresses        []emailAddressResponse `json:"email_addresses"`
}

type emailAddressResponse struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
	Verification *struct {
		Status string `json:"status"`
	} `json:"verification"`
}

type deletedObjectResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

type errorResponse struct {
	Errors []struct {
		Code        string `json:"code"`
		Message     string `json:"message"`
		LongMessage string `json:"long_message"`
	} `json:"errors"`
}

func (e errorResponse) hasCode(code string) bool {
	for _, item := range e.Errors {
		if item.Code == code {
			return true
		}
	}
	return false
}

func (u *userResponse) toIdentityUser() *types.IdentityUser {
	return &types.IdentityUser{
		ID:                    u.ID,
		PrimaryEmailAddressID: lo.FromPtr(u.PrimaryEmailAddressID),
		EmailAddresses: lo.Map(u.EmailAddresses, func(e emailAddressResponse, _ int) types.IdentityEmailAddress {
			return types.IdentityEmailAddress{
				ID:           e.ID,
				EmailAddress: e.EmailAddress,
				Verified:     e.Verification != nil && e.Verification.Status == verificationStatusVerified,
			}
		}),
	}
}
