package jwttoken

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "landverify/pkg/domain"
	dErrors "landverify/pkg/domain-errors"
)

var jwtService = NewJWTService(
	"test-signing-key",
	"test-issuer",
	"test-audience",
)
var subjectID = id.SubjectID(uuid.New())

func Test_GenerateAccessToken(t *testing.T) {
	token, err := jwtService.GenerateAccessToken(subjectID, id.RoleSeller, "Ravi Kumar", "ravi@example.com", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, subjectID.String(), claims.Subject)
	assert.Equal(t, "seller", claims.Role)
	assert.Equal(t, "Ravi Kumar", claims.Name)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := jwtService.ValidateToken("invalid-token-string")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	token, err := jwtService.GenerateAccessToken(subjectID, id.RoleSeller, "", "", -time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.Error(t, err)
	de, ok := dErrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "token has expired", de.Message)
}

func Test_ValidateToken_WrongAudience(t *testing.T) {
	other := NewJWTService("test-signing-key", "test-issuer", "another-audience")
	token, err := other.GenerateAccessToken(subjectID, id.RoleSeller, "", "", time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_MiddlewareValidator(t *testing.T) {
	v := NewMiddlewareValidator(jwtService)

	t.Run("maps claims to principal", func(t *testing.T) {
		token, err := jwtService.GenerateAccessToken(subjectID, id.RoleSeller, "Ravi Kumar", "", time.Hour)
		require.NoError(t, err)

		p, err := v.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, subjectID, p.SubjectID)
		assert.Equal(t, id.RoleSeller, p.Role)
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		token, err := jwtService.GenerateAccessToken(subjectID, id.Role("landlord"), "", "", time.Hour)
		require.NoError(t, err)

		_, err = v.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
