package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	hashed, err := Hash("admin123")
	require.NoError(t, err)

	assert.True(t, IsHashed(hashed))
	assert.NotEqual(t, "admin123", hashed)
	assert.True(t, Verify(hashed, "admin123"))
	assert.False(t, Verify(hashed, "admin1234"))
	assert.False(t, Verify(hashed, ""))
}

func TestVerify_Plaintext(t *testing.T) {
	assert.False(t, IsHashed("pass123"))
	assert.True(t, Verify("pass123", "pass123"))
	assert.False(t, Verify("pass123", "Pass123"))
	assert.False(t, Verify("pass123", "pass12"))
}
