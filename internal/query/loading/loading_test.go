package loading

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		hasData  bool
		inFlight bool
		trigger  Trigger
		want     State
	}{
		{"nothing yet", false, false, TriggerUser, Idle},
		{"first request", false, true, TriggerUser, InitialLoad},
		{"first background request", false, true, TriggerBackground, InitialLoad},
		{"settled", true, false, TriggerUser, Ready},
		{"filter change", true, true, TriggerUser, FilterRefetch},
		{"revalidation", true, true, TriggerBackground, BackgroundRefetch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.hasData, tt.inFlight, tt.trigger))
		})
	}
}

func TestState_Presentation(t *testing.T) {
	assert.True(t, InitialLoad.ShowSkeleton())
	assert.True(t, FilterRefetch.ShowSkeleton())
	assert.False(t, BackgroundRefetch.ShowSkeleton())
	assert.True(t, BackgroundRefetch.ShowRefetchIndicator())
	assert.False(t, Ready.Busy())
}

func TestClassifier_Lifecycle(t *testing.T) {
	c := NewClassifier()
	assert.Equal(t, Idle, c.State())

	assert.Equal(t, InitialLoad, c.Begin(TriggerUser))
	assert.Equal(t, Ready, c.Settle(true))

	assert.Equal(t, FilterRefetch, c.Begin(TriggerUser))
	assert.Equal(t, Ready, c.Settle(false), "a failed refetch keeps the page visible")

	assert.Equal(t, BackgroundRefetch, c.Begin(TriggerBackground))
	assert.Equal(t, FilterRefetch, c.Begin(TriggerUser))
	assert.Equal(t, Ready, c.Settle(true))
}

func TestClassifier_BackgroundDoesNotDowngradeUserRequest(t *testing.T) {
	c := NewClassifier()
	c.Begin(TriggerUser)
	c.Settle(true)

	c.Begin(TriggerUser)
	assert.Equal(t, FilterRefetch, c.Begin(TriggerBackground))
}

func TestClassifier_FailedInitialLoad(t *testing.T) {
	c := NewClassifier()
	c.Begin(TriggerUser)
	assert.Equal(t, Idle, c.Settle(false))
}
