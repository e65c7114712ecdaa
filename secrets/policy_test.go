package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/c360studio/qaengine/spec"
)

func TestPolicyDefaultDeny(t *testing.T) {
	pol := New(spec.SecretsPolicy{})
	assert.False(t, pol.MayRead("api_key"))
	assert.False(t, pol.MayWrite("api_key"))
}

func TestPolicyAllowDenyGlobs(t *testing.T) {
	pol := New(spec.SecretsPolicy{
		Enabled:     true,
		ReadEnabled: true,
		Allow:       []string{"vendor.**"},
		Deny:        []string{"vendor.internal.**"},
	})

	assert.True(t, pol.MayRead("vendor.api_key"))
	assert.False(t, pol.MayRead("vendor.internal.token"))
	assert.False(t, pol.MayRead("other.key"))
}

func TestPolicyWriteRequiresWriteEnabled(t *testing.T) {
	pol := New(spec.SecretsPolicy{
		Enabled:     true,
		ReadEnabled: true,
		Allow:       []string{"**"},
	})
	assert.True(t, pol.MayRead("anything"))
	assert.False(t, pol.MayWrite("anything"))
}
