package fallback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmoore-dev/reeltap/internal/profiles"
)

func TestNewPlan_RejectsEmptyOrder(t *testing.T) {
	_, err := NewPlan(nil, "", false)
	require.Error(t, err)
}

func TestNewPlan_PreservesOrder(t *testing.T) {
	order := []profiles.Profile{profiles.TV, profiles.IOS}
	plan, err := NewPlan(order, "", false)
	require.NoError(t, err)
	assert.Equal(t, order, plan.Profiles)
}

func TestNewPlan_PreferredProfilePlacedFirst(t *testing.T) {
	order := []profiles.Profile{profiles.TV, profiles.IOS, profiles.Android}
	plan, err := NewPlan(order, profiles.Android, false)
	require.NoError(t, err)
	assert.Equal(t, []profiles.Profile{profiles.Android, profiles.TV, profiles.IOS}, plan.Profiles)
}

func TestNewPlan_UnknownPreferredIsIgnoredNotRejected(t *testing.T) {
	order := []profiles.Profile{profiles.TV, profiles.IOS}
	plan, err := NewPlan(order, profiles.Profile("nonsense"), false)
	require.NoError(t, err)
	assert.Equal(t, order, plan.Profiles)
}

func TestNewPlan_DropsCredentialledProfilesWhenNotCredentialed(t *testing.T) {
	order := []profiles.Profile{profiles.TV, profiles.Cookies, profiles.Android}
	plan, err := NewPlan(order, "", false)
	require.NoError(t, err)
	assert.Equal(t, []profiles.Profile{profiles.TV, profiles.Android}, plan.Profiles)
}

func TestNewPlan_KeepsCredentialledProfilesWhenCredentialed(t *testing.T) {
	order := []profiles.Profile{profiles.TV, profiles.Cookies, profiles.Android}
	plan, err := NewPlan(order, "", true)
	require.NoError(t, err)
	assert.Equal(t, order, plan.Profiles)
}

func TestNewPlan_FailsWhenOnlyCredentialledProfileAndNotCredentialed(t *testing.T) {
	_, err := NewPlan([]profiles.Profile{profiles.Cookies}, "", false)
	require.Error(t, err)
}
