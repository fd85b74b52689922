package cloudauth

import (
	"testing"

	"github.com/oracle/ai-optimizer-server/internal/apierrors"
	"github.com/oracle/ai-optimizer-server/internal/model"
	"github.com/stretchr/testify/require"
)

func TestUpsertRejectsIncompleteAPIKeyProfile(t *testing.T) {
	r := New()
	err := r.Upsert(model.CloudAuthProfile{
		ProfileName:    "DEFAULT",
		Authentication: model.AuthModeAPIKey,
		User:           "ocid1.user.oc1..x",
	})
	require.Error(t, err)

	_, getErr := r.Get("DEFAULT")
	require.Error(t, getErr, "rejected upsert must not register the profile")
}

func TestInstanceIdentityNeedsNoSecret(t *testing.T) {
	r := New()
	err := r.Upsert(model.CloudAuthProfile{
		ProfileName:    "DEFAULT",
		Authentication: model.AuthModeInstanceIdentity,
	})
	require.NoError(t, err)
}

func TestGetUnknownReturnsNotFound(t *testing.T) {
	r := New()
	_, err := r.Get("missing")
	require.Error(t, err)
	require.Equal(t, 404, apierrors.StatusOf(err))
}

func TestDeleteUnknownReturnsNotFound(t *testing.T) {
	r := New()
	err := r.Delete("missing")
	require.Error(t, err)
	require.Equal(t, 404, apierrors.StatusOf(err))
}
