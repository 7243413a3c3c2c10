package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWallet_LastLogin(t *testing.T) {
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	w := &Wallet{CreatedAt: created}

	assert.Equal(t, created, w.LastLogin())

	login := created.Add(time.Hour)
	w.LastLoginAt = &login
	assert.Equal(t, login, w.LastLogin())
}

func TestWallet_Summary(t *testing.T) {
	created := time.Now()
	w := &Wallet{
		ID:                  "id-1",
		Address:             "0xabc",
		Email:               "u@test.io",
		PasswordHash:        "hash",
		EncryptedPrivateKey: "ct:tag",
		Active:              true,
		CreatedAt:           created,
	}

	s := w.Summary()

	assert.Equal(t, &WalletSummary{
		ID:          "id-1",
		Address:     "0xabc",
		Email:       "u@test.io",
		Active:      true,
		CreatedAt:   created,
		LastLoginAt: created,
	}, s)
}
