package referral

import (
	"errors"
	"time"
)

// BonusPoints is credited to both sides of a successful referral.
const BonusPoints = 50

// ClaimWindow is how old a newly created account may be and still claim a
// referral. Anything older is treated as abuse.
const ClaimWindow = 5 * time.Minute

var (
	ErrSelfReferral     = errors.New("cannot refer yourself")
	ErrTooOld           = errors.New("account is too old to claim a referral")
	ErrReferrerNotFound = errors.New("referrer not found")
)

type ClaimRequest struct {
	ReferrerID string `json:"referrer_id" validate:"required"`
}

type ClaimResult struct {
	Claimed       bool   `json:"claimed"`
	AlreadyLinked bool   `json:"already_linked"`
	ReferredBy    string `json:"referred_by,omitempty"`
	BonusPoints   int    `json:"bonus_points"`
}
