package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	ts := TokenService{Secret: []byte("test-secret"), Issuer: "gamehub", Duration: time.Hour}

	token, exp, err := ts.Sign()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := ts.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "gamehub", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenWrongSecretRejected(t *testing.T) {
	ts := TokenService{Secret: []byte("test-secret"), Issuer: "gamehub", Duration: time.Hour}
	token, _, err := ts.Sign()
	require.NoError(t, err)

	other := TokenService{Secret: []byte("not-the-secret"), Issuer: "gamehub", Duration: time.Hour}
	_, err = other.Parse(token)
	assert.Error(t, err)
}

func TestTokenExpiredRejected(t *testing.T) {
	ts := TokenService{Secret: []byte("test-secret"), Issuer: "gamehub", Duration: -time.Minute}
	token, _, err := ts.Sign()
	require.NoError(t, err)

	_, err = ts.Parse(token)
	assert.Error(t, err)
}

func TestTokenGarbageRejected(t *testing.T) {
	ts := TokenService{Secret: []byte("test-secret")}
	_, err := ts.Parse("not.a.token")
	assert.Error(t, err)
}
