package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransitionTable(t *testing.T) {
	allowed := map[ClaimAction]map[ClaimStatus]ClaimStatus{
		ActionSubmit: {StatusDraft: StatusSubmitted},
		ActionEdit: {
			StatusDraft:         StatusDraft,
			StatusInfoRequested: StatusInfoRequested,
		},
		ActionAssign: {
			StatusSubmitted:     StatusUnderReview,
			StatusUnderReview:   StatusUnderReview,
			StatusInfoRequested: StatusInfoRequested,
		},
		ActionApprove:     {StatusSubmitted: StatusApproved, StatusUnderReview: StatusApproved},
		ActionDeny:        {StatusSubmitted: StatusDenied, StatusUnderReview: StatusDenied},
		ActionPartial:     {StatusSubmitted: StatusPartial, StatusUnderReview: StatusPartial},
		ActionRequestInfo: {StatusSubmitted: StatusInfoRequested, StatusUnderReview: StatusInfoRequested},
		ActionRespond:     {StatusInfoRequested: StatusInfoRequested},
		ActionResubmit:    {StatusInfoRequested: StatusSubmitted},
		ActionDelete:      {StatusDraft: StatusDraft},
		ActionClose: {
			StatusApproved: StatusClosed,
			StatusPartial:  StatusClosed,
			StatusDenied:   StatusClosed,
		},
		ActionCreate: {},
	}

	for action, targets := range allowed {
		for _, from := range AllStatuses {
			to, err := Transition(from, action)
			want, ok := targets[from]
			if ok {
				assert.NoError(t, err, "%s from %s", action, from)
				assert.Equal(t, want, to, "%s from %s", action, from)
				continue
			}
			assert.ErrorIs(t, err, ErrInvalidTransition, "%s from %s", action, from)
		}
	}
}

func TestResolvedStatesAreTerminalForReview(t *testing.T) {
	for _, from := range []ClaimStatus{StatusApproved, StatusPartial, StatusDenied, StatusClosed} {
		for _, action := range []ClaimAction{ActionApprove, ActionDeny, ActionPartial, ActionRequestInfo} {
			_, err := Transition(from, action)
			assert.ErrorIs(t, err, ErrInvalidTransition)
		}
	}
}

func TestParseReviewAction(t *testing.T) {
	action, err := ParseReviewAction(" Approve ")
	assert.NoError(t, err)
	assert.Equal(t, ActionApprove, action)

	_, err = ParseReviewAction("close")
	assert.ErrorIs(t, err, ErrInvalidReviewAction)
}

func TestHistoryNote(t *testing.T) {
	assert.Equal(t, "Claim submitted for review", HistoryNote(ActionSubmit, "  "))
	assert.Equal(t, "looks good", HistoryNote(ActionApprove, "looks good"))
}

func TestSystemNote(t *testing.T) {
	overrides := map[string]string{"deny": "Denied per policy 4.2."}
	assert.Equal(t, "custom", SystemNote(ActionApprove, "custom", overrides))
	assert.Equal(t, "Denied per policy 4.2.", SystemNote(ActionDeny, "", overrides))
	assert.Equal(t, "Your warranty claim has been partially approved.", SystemNote(ActionPartial, "", overrides))
}

func TestParseStatus(t *testing.T) {
	status, err := ParseStatus("UNDER_REVIEW")
	assert.NoError(t, err)
	assert.Equal(t, StatusUnderReview, status)

	_, err = ParseStatus("archived")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
