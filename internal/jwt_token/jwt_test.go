package jwttoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "handoff/pkg/domain-errors"
)

var svc = NewService("test-signing-key")

func Test_Issue(t *testing.T) {
	token, err := svc.Issue("operator:sam", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "operator:sam", claims.Operator)
	assert.Equal(t, "operator:sam", claims.Subject)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func Test_Issue_RequiresOperator(t *testing.T) {
	_, err := svc.Issue("", time.Hour)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidArgument))
}

func Test_Validate_Garbage(t *testing.T) {
	_, err := svc.Validate("invalid-token-string")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_Validate_Expired(t *testing.T) {
	token, err := svc.Issue("operator:sam", -time.Hour)
	require.NoError(t, err)

	_, err = svc.Validate(token)
	require.Error(t, err)
	assert.Equal(t, "token has expired", err.Error())
}

func Test_Validate_WrongKey(t *testing.T) {
	token, err := NewService("other-key").Issue("operator:sam", time.Hour)
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_Validate_WrongAudience(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Operator: "operator:sam",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Audience:  []string{"someone-else"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := tok.SignedString([]byte("test-signing-key"))
	require.NoError(t, err)

	_, err = svc.Validate(signed)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
