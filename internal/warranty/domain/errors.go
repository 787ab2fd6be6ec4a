package domain

import "errors"

var (
	ErrInvalidActor            = errors.New("invalid_actor")
	ErrInvalidDealer           = errors.New("invalid_dealer")
	ErrInvalidClaimID          = errors.New("invalid_claim_id")
	ErrInvalidClaimType        = errors.New("invalid_claim_type")
	ErrInvalidPriority         = errors.New("invalid_priority")
	ErrInvalidStatus           = errors.New("invalid_status")
	ErrInvalidIssueDescription = errors.New("invalid_issue_description")
	ErrInvalidAmount           = errors.New("invalid_amount")
	ErrInvalidItems            = errors.New("invalid_items")
	ErrInvalidIssueType        = errors.New("invalid_issue_type")
	ErrInvalidReviewAction     = errors.New("invalid_review_action")
	ErrInvalidResolutionType   = errors.New("invalid_resolution_type")
	ErrInvalidItemDecision     = errors.New("invalid_item_decision")
	ErrInvalidAssignee         = errors.New("invalid_assignee")
	ErrInvalidNoteContent      = errors.New("invalid_note_content")
	ErrInvalidResponse         = errors.New("invalid_response")
	ErrInvalidSort             = errors.New("invalid_sort")
	ErrInvalidDateRange        = errors.New("invalid_date_range")

	ErrClaimNotFound = errors.New("claim_not_found")
	ErrItemNotFound  = errors.New("item_not_found")

	ErrInvalidTransition = errors.New("invalid_transition")
	ErrForbidden         = errors.New("forbidden")

	ErrClaimNumberUnavailable = errors.New("claim_number_unavailable")
	ErrInternal               = errors.New("internal_error")
)

var validationErrors = []error{
	ErrInvalidActor,
	ErrInvalidDealer,
	ErrInvalidClaimID,
	ErrInvalidClaimType,
	ErrInvalidPriority,
	ErrInvalidStatus,
	ErrInvalidIssueDescription,
	ErrInvalidAmount,
	ErrInvalidItems,
	ErrInvalidIssueType,
	ErrInvalidReviewAction,
	ErrInvalidResolutionType,
	ErrInvalidItemDecision,
	ErrInvalidAssignee,
	ErrInvalidNoteContent,
	ErrInvalidResponse,
	ErrInvalidSort,
	ErrInvalidDateRange,
}

// IsValidationError reports whether err stems from rejected input.
func IsValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
