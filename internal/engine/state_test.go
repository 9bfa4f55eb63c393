package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_ClaimConflictLeavesActiveRunUntouched(t *testing.T) {
	s := NewState()
	id1, err := s.Claim(3)
	require.NoError(t, err)
	s.Append(success("step one"))

	_, err = s.Claim(5)
	require.ErrorIs(t, err, ErrRunActive)

	snap := s.Snapshot()
	assert.Equal(t, id1, snap.RunID)
	assert.Equal(t, 3, snap.TotalSteps)
	assert.Equal(t, 1, snap.StepIndex)
	require.Len(t, snap.Outcomes, 1)
}

func TestState_StepIndexTracksOutcomeLog(t *testing.T) {
	s := NewState()
	_, err := s.Claim(2)
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.Equal(t, 0, snap.StepIndex)

	s.Append(success("a"))
	s.Append(info("progress"))
	s.Append(notFound("b"))

	snap = s.Snapshot()
	assert.Equal(t, len(snap.Outcomes), snap.StepIndex)
	assert.Equal(t, 3, snap.StepIndex)
	// info outcomes never count toward the success tally
	assert.Equal(t, 1, snap.Succeeded)
}

func TestState_AbortIsNoOpWhenIdle(t *testing.T) {
	s := NewState()
	assert.False(t, s.Abort())
	assert.False(t, s.AbortRequested())
}

func TestState_AbortFlagFrozenUntilNextClaim(t *testing.T) {
	s := NewState()
	_, err := s.Claim(1)
	require.NoError(t, err)
	require.True(t, s.Abort())
	s.Finish()

	// a poller arriving after completion still sees why the run ended
	snap := s.Snapshot()
	assert.True(t, snap.Aborted)
	assert.True(t, snap.Completed)
	assert.False(t, snap.Running)

	// abort on the finished run is a no-op
	assert.False(t, s.Abort())
	assert.True(t, s.Snapshot().Aborted)

	// the next claim starts clean
	_, err = s.Claim(1)
	require.NoError(t, err)
	snap = s.Snapshot()
	assert.False(t, snap.Aborted)
	assert.False(t, snap.Completed)
	assert.Empty(t, snap.Outcomes)
}

func TestState_NewRunGetsFreshID(t *testing.T) {
	s := NewState()
	id1, err := s.Claim(1)
	require.NoError(t, err)
	s.Finish()
	id2, err := s.Claim(1)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)
}
