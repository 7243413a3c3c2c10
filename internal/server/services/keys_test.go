package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/custodykeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestKeyring_DummyHashReadyBeforeFirstMiss(t *testing.T) {
	env := newTestEnv(t)
	k := newKeyring(env.deriver)

	require.NotEmpty(t, k.dummyHash)
	cost, err := bcrypt.Cost([]byte(k.dummyHash))
	require.NoError(t, err)
	assert.Equal(t, env.deriver.BcryptCost(), cost)
}

func TestKeyring_BurnFailsLikeVerify(t *testing.T) {
	env := newTestEnv(t)
	k := newKeyring(env.deriver)
	k.dummyHash = ""

	err := k.burn(context.Background(), []byte("anything"))
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	assert.NotEmpty(t, k.dummyHash)
}
