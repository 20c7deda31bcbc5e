package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := GenerateAccessToken("user-1", "a@umass.edu", testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseAccessToken(tok, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "a@umass.edu", claims.Email)
}

func TestParseAccessTokenRejects(t *testing.T) {
	good, err := GenerateAccessToken("user-1", "", testSecret, time.Hour)
	require.NoError(t, err)
	expired, err := GenerateAccessToken("user-1", "", testSecret, -time.Minute)
	require.NoError(t, err)
	noSubject, err := GenerateAccessToken("", "", testSecret, time.Hour)
	require.NoError(t, err)
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{Subject: "user-1"}).
		SignedString([]byte(testSecret))
	require.NoError(t, err)

	cases := map[string]struct{ token, secret string }{
		"wrong secret": {good, "other-secret"},
		"expired":      {expired, testSecret},
		"no subject":   {noSubject, testSecret},
		"wrong method": {hs512, testSecret},
		"not a jwt":    {"abc.def", testSecret},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseAccessToken(tc.token, tc.secret)
			assert.Error(t, err)
		})
	}
}
