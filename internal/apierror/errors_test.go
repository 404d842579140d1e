package apierror_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"winecellar/internal/apierror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apierror.Validation("bad volume"), http.StatusBadRequest},
		{apierror.NotFound("lot %s not found", "x"), http.StatusNotFound},
		{apierror.Conflict(apierror.CodeCapacityExceeded, "full"), http.StatusConflict},
		{apierror.Storage(errors.New("connection reset")), http.StatusInternalServerError},
		{errors.New("unclassified"), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", apierror.NotFound("gone")), http.StatusNotFound},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, apierror.HTTPStatus(tc.err), tc.err.Error())
	}
}

func TestEnvelope_HidesStorageDetails(t *testing.T) {
	env := apierror.Envelope(apierror.Storage(errors.New("pq: relation does not exist")))
	assert.Equal(t, "internal server error", env.Detail)
	assert.Empty(t, env.Code)

	env = apierror.Envelope(errors.New("raw driver error"))
	assert.Equal(t, "internal server error", env.Detail)
}

func TestEnvelope_CarriesConflictCode(t *testing.T) {
	env := apierror.Envelope(apierror.Conflict(apierror.CodeInsufficientVolume, "container holds %d L", 10))
	assert.Equal(t, "container holds 10 L", env.Detail)
	assert.Equal(t, apierror.CodeInsufficientVolume, env.Code)
}

func TestAsAndIsKind(t *testing.T) {
	cause := errors.New("deadlock detected")
	err := fmt.Errorf("bulk transfer: %w", apierror.Storage(cause))

	e, ok := apierror.As(err)
	require.True(t, ok)
	assert.Equal(t, apierror.KindStorage, e.Kind)
	assert.ErrorIs(t, err, cause)
	assert.True(t, apierror.IsKind(err, apierror.KindStorage))
	assert.False(t, apierror.IsKind(err, apierror.KindConflict))
	assert.False(t, apierror.IsKind(errors.New("plain"), apierror.KindStorage))
}
