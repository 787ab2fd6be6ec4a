package domain

import "strings"

// ClaimStatus is the lifecycle state of a claim.
type ClaimStatus string

const (
	StatusDraft         ClaimStatus = "draft"
	StatusSubmitted     ClaimStatus = "submitted"
	StatusUnderReview   ClaimStatus = "under_review"
	StatusInfoRequested ClaimStatus = "info_requested"
	StatusApproved      ClaimStatus = "approved"
	StatusPartial       ClaimStatus = "partial"
	StatusDenied        ClaimStatus = "denied"
	StatusClosed        ClaimStatus = "closed"
)

var AllStatuses = []ClaimStatus{
	StatusDraft,
	StatusSubmitted,
	StatusUnderReview,
	StatusInfoRequested,
	StatusApproved,
	StatusPartial,
	StatusDenied,
	StatusClosed,
}

func ParseStatus(value string) (ClaimStatus, error) {
	status := ClaimStatus(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range AllStatuses {
		if status == known {
			return status, nil
		}
	}
	return "", ErrInvalidStatus
}

// IsResolved reports whether a review decision has been recorded.
func (s ClaimStatus) IsResolved() bool {
	switch s {
	case StatusApproved, StatusPartial, StatusDenied:
		return true
	default:
		return false
	}
}

// IsEditable reports whether the dealer may change claim details.
func (s ClaimStatus) IsEditable() bool {
	return s == StatusDraft || s == StatusInfoRequested
}

func (s ClaimStatus) Ptr() *ClaimStatus {
	return &s
}

// ClaimAction names every operation that moves (or re-records) a claim's status.
type ClaimAction string

const (
	ActionCreate      ClaimAction = "create"
	ActionSubmit      ClaimAction = "submit"
	ActionEdit        ClaimAction = "edit"
	ActionAssign      ClaimAction = "assign"
	ActionApprove     ClaimAction = "approve"
	ActionDeny        ClaimAction = "deny"
	ActionPartial     ClaimAction = "partial"
	ActionRequestInfo ClaimAction = "request_info"
	ActionRespond     ClaimAction = "respond"
	ActionResubmit    ClaimAction = "resubmit"
	ActionDelete      ClaimAction = "delete"
	ActionClose       ClaimAction = "close"
)

// ParseReviewAction accepts only the four reviewer decisions.
func ParseReviewAction(value string) (ClaimAction, error) {
	switch action := ClaimAction(strings.ToLower(strings.TrimSpace(value))); action {
	case ActionApprove, ActionDeny, ActionPartial, ActionRequestInfo:
		return action, nil
	default:
		return "", ErrInvalidReviewAction
	}
}

// IsResolving reports whether the action sets resolved_at.
func (a ClaimAction) IsResolving() bool {
	switch a {
	case ActionApprove, ActionDeny, ActionPartial:
		return true
	default:
		return false
	}
}

// IsReview reports whether the action is a reviewer decision.
func (a ClaimAction) IsReview() bool {
	return a.IsResolving() || a == ActionRequestInfo
}

// InitialStatus is the status a newly created claim starts in.
func InitialStatus(submit bool) ClaimStatus {
	if submit {
		return StatusSubmitted
	}
	return StatusDraft
}

// Transition returns the status a claim in from reaches through action,
// or ErrInvalidTransition when the action is not permitted from that state.
// Edit, respond, reassign and delete keep the current status.
func Transition(from ClaimStatus, action ClaimAction) (ClaimStatus, error) {
	switch action {
	case ActionCreate:
		return "", ErrInvalidTransition
	case ActionSubmit:
		if from == StatusDraft {
			return StatusSubmitted, nil
		}
	case ActionEdit:
		if from.IsEditable() {
			return from, nil
		}
	case ActionAssign:
		switch from {
		case StatusSubmitted:
			return StatusUnderReview, nil
		case StatusUnderReview, StatusInfoRequested:
			return from, nil
		}
	case ActionApprove, ActionDeny, ActionPartial, ActionRequestInfo:
		if from == StatusSubmitted || from == StatusUnderReview {
			return reviewOutcome(action), nil
		}
	case ActionRespond:
		if from == StatusInfoRequested {
			return from, nil
		}
	case ActionResubmit:
		if from == StatusInfoRequested {
			return StatusSubmitted, nil
		}
	case ActionDelete:
		if from == StatusDraft {
			return from, nil
		}
	case ActionClose:
		if from.IsResolved() {
			return StatusClosed, nil
		}
	}
	return "", ErrInvalidTransition
}

func reviewOutcome(action ClaimAction) ClaimStatus {
	switch action {
	case ActionApprove:
		return StatusApproved
	case ActionDeny:
		return StatusDenied
	case ActionPartial:
		return StatusPartial
	default:
		return StatusInfoRequested
	}
}

var defaultHistoryNotes = map[ClaimAction]string{
	ActionCreate:      "Claim created",
	ActionSubmit:      "Claim submitted for review",
	ActionEdit:        "Claim details updated",
	ActionAssign:      "Claim assigned for review",
	ActionApprove:     "Claim approved",
	ActionDeny:        "Claim denied",
	ActionPartial:     "Claim partially approved",
	ActionRequestInfo: "Additional information requested",
	ActionRespond:     "Dealer responded to information request",
	ActionResubmit:    "Dealer responded and resubmitted the claim",
	ActionClose:       "Claim closed",
}

// HistoryNote returns note when set, otherwise the default for action.
func HistoryNote(action ClaimAction, note string) string {
	if note = strings.TrimSpace(note); note != "" {
		return note
	}
	return defaultHistoryNotes[action]
}

var defaultSystemNotes = map[ClaimAction]string{
	ActionApprove:     "Your warranty claim has been approved.",
	ActionDeny:        "Your warranty claim has been denied.",
	ActionPartial:     "Your warranty claim has been partially approved.",
	ActionRequestInfo: "Additional information is required to continue reviewing this claim.",
}

// SystemNote is the dealer-visible note written with every review decision.
// overrides is keyed by action name.
func SystemNote(action ClaimAction, reviewerNote string, overrides map[string]string) string {
	if reviewerNote = strings.TrimSpace(reviewerNote); reviewerNote != "" {
		return reviewerNote
	}
	if tmpl := strings.TrimSpace(overrides[string(action)]); tmpl != "" {
		return tmpl
	}
	return defaultSystemNotes[action]
}
