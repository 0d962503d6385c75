package domain

import "time"

// AccessStatus is the provisioning state of a dashboard user.
// Records are created administratively; this API only reads them and
// updates the auth-code columns.
type AccessStatus string

const (
	AccessGranted AccessStatus = "granted"
	AccessDenied  AccessStatus = "denied"
	AccessPending AccessStatus = "pending"
	AccessUnknown AccessStatus = "unknown"
)

// ParseAccessStatus normalizes the raw access column. Provisioning has
// historically used a few spellings for "granted" and "denied"; anything
// else is treated as pending.
func ParseAccessStatus(raw string) AccessStatus {
	switch raw {
	case "granted", "yes", "true":
		return AccessGranted
	case "denied", "blocked":
		return AccessDenied
	case "pending":
		return AccessPending
	case "":
		return AccessUnknown
	default:
		return AccessPending
	}
}

// UserRecord is a row in the user directory table. Email is the key,
// stored trimmed and lowercased. The auth-code triplet (AuthCode,
// CodeIssuedAt, AttemptCount) is cleared on successful verification.
type UserRecord struct {
	Email        string     `json:"email" dynamodbav:"email"`
	DisplayName  string     `json:"name" dynamodbav:"display_name"`
	Access       string     `json:"access" dynamodbav:"access"`
	LastLogin    *time.Time `json:"last_login,omitempty" dynamodbav:"last_login"`
	AuthCode     string     `json:"-" dynamodbav:"auth_code"`
	CodeIssuedAt *time.Time `json:"-" dynamodbav:"code_issued_at"`
	AttemptCount int        `json:"-" dynamodbav:"attempt_count"`
}

// AccessStatus returns the parsed provisioning state of the record.
func (u *UserRecord) AccessStatus() AccessStatus {
	return ParseAccessStatus(u.Access)
}

type SendCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyCodeRequest struct {
	Email string `json:"email" validate:"required"`
	Code  string `json:"code" validate:"required"`
}
