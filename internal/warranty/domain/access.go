package domain

import (
	"strings"

	"github.com/bwmarrin/snowflake"
)

const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
)

// Actor is the authenticated principal performing an operation.
type Actor struct {
	UserID   snowflake.ID
	Role     string
	DealerID *snowflake.ID
}

func (a Actor) NormalizedRole() string {
	return strings.ToLower(strings.TrimSpace(a.Role))
}

func (a Actor) Validate() error {
	if a.UserID == 0 {
		return ErrInvalidActor
	}
	return nil
}

// Owns reports whether the actor's dealer owns the claim.
func (a Actor) Owns(claim Claim) bool {
	return a.DealerID != nil && *a.DealerID == claim.DealerID
}

// AccessScope is the capability set resolved once per operation for an actor.
type AccessScope struct {
	CanReadAll          bool
	RestrictToDealerID  *snowflake.ID
	CanSeeInternalNotes bool
	CanReview           bool
	CanAssign           bool
	CanClose            bool
}

// DealerScope is the scope of a dealer-like actor.
func DealerScope(dealerID *snowflake.ID) AccessScope {
	return AccessScope{RestrictToDealerID: dealerID}
}

// CanRead reports whether a claim owned by dealerID is visible.
func (s AccessScope) CanRead(dealerID snowflake.ID) bool {
	if s.CanReadAll {
		return true
	}
	return s.RestrictToDealerID != nil && *s.RestrictToDealerID == dealerID
}

// ReadsNothing is true for dealer-like scopes without a dealer.
func (s AccessScope) ReadsNothing() bool {
	return !s.CanReadAll && s.RestrictToDealerID == nil
}

// VisibleNotes drops internal notes for scopes that may not see them.
func (s AccessScope) VisibleNotes(notes []Note) []Note {
	if s.CanSeeInternalNotes {
		return notes
	}
	visible := make([]Note, 0, len(notes))
	for _, note := range notes {
		if note.IsInternal {
			continue
		}
		visible = append(visible, note)
	}
	return visible
}

// DealerFilter returns the dealer restriction for list and stats queries.
// Only read-all scopes may narrow to another dealer through requested.
func (s AccessScope) DealerFilter(requested *snowflake.ID) *snowflake.ID {
	if s.CanReadAll {
		return requested
	}
	return s.RestrictToDealerID
}
