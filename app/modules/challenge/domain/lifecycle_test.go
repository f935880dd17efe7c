package challengedomain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Black-And-White-Club/fitleague/app/shared/leagueerr"
)

func TestTransition(t *testing.T) {
	assert.NoError(t, Transition(StatusDraft, StatusScheduled))
	assert.NoError(t, Transition(StatusPublished, StatusClosed))
	assert.True(t, leagueerr.Is(Transition(StatusDraft, StatusActive), leagueerr.KindState))
	assert.True(t, leagueerr.Is(Transition(StatusActive, StatusScheduled), leagueerr.KindState))
	assert.True(t, leagueerr.Is(Transition(StatusClosed, StatusDraft), leagueerr.KindState))
}

func TestCheckPublishable(t *testing.T) {
	ready := Challenge{Status: StatusSubmissionClosed}
	assert.NoError(t, CheckPublishable(ready, 0))

	err := CheckPublishable(ready, 2)
	require.Error(t, err)
	assert.True(t, leagueerr.Is(err, leagueerr.KindState))
	assert.Contains(t, err.Error(), "2 submission(s)")

	assert.True(t, leagueerr.Is(CheckPublishable(Challenge{Status: StatusActive}, 0), leagueerr.KindState))
}

func TestReviewTransition(t *testing.T) {
	tests := []struct {
		name      string
		current   SubmissionStatus
		action    Action
		challenge Status
		want      SubmissionStatus
		wantKind  leagueerr.Kind
	}{
		{name: "approve pending", current: SubmissionPending, action: ActionApprove, challenge: StatusActive, want: SubmissionApproved},
		{name: "update approved", current: SubmissionApproved, action: ActionUpdate, challenge: StatusSubmissionClosed, want: SubmissionApproved},
		{name: "reject approved", current: SubmissionApproved, action: ActionReject, challenge: StatusActive, want: SubmissionRejected},
		{name: "approve twice", current: SubmissionApproved, action: ActionApprove, challenge: StatusActive, wantKind: leagueerr.KindState},
		{name: "update pending", current: SubmissionPending, action: ActionUpdate, challenge: StatusActive, wantKind: leagueerr.KindState},
		{name: "rejected is final", current: SubmissionRejected, action: ActionReject, challenge: StatusActive, wantKind: leagueerr.KindState},
		{name: "published challenge", current: SubmissionPending, action: ActionApprove, challenge: StatusPublished, wantKind: leagueerr.KindState},
		{name: "unknown action", current: SubmissionPending, action: "boost", challenge: StatusActive, wantKind: leagueerr.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReviewTransition(tt.current, tt.action, tt.challenge)
			if tt.wantKind != "" {
				require.Error(t, err)
				assert.True(t, leagueerr.Is(err, tt.wantKind), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInferAction(t *testing.T) {
	assert.Equal(t, ActionApprove, InferAction(SubmissionPending))
	assert.Equal(t, ActionUpdate, InferAction(SubmissionApproved))
}
