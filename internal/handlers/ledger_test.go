package handlers

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursepay/internal/middleware"
	"coursepay/internal/models"
	"coursepay/internal/repositories"
	"coursepay/internal/services/currency"
	"coursepay/internal/services/ledger"
	"coursepay/internal/services/wallet"
)

func ownerToken(t *testing.T, ownerID uint) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.UserClaims{
		UserID: ownerID,
		Role:   "student",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte("dev-secret"))
	require.NoError(t, err)
	return signed
}

func newLedgerApp(t *testing.T) (*fiber.App, wallet.Service) {
	t.Helper()
	repo := repositories.NewMemoryRepository()
	walletSvc := wallet.NewService(repo, nil, currency.NewNormalizer(), wallet.Config{}, nil)
	ledgerSvc := ledger.NewService(repo, nil)
	handler := NewLedgerHandler(walletSvc, ledgerSvc)

	app := fiber.New()
	group := app.Group("/api/v1/ledger", middleware.Auth())
	group.Get("/history", handler.History)
	group.Get("/ref/:ref", handler.ByExternalRef)
	return app, walletSvc
}

func TestLedgerHandler_ByExternalRefOwnership(t *testing.T) {
	app, walletSvc := newLedgerApp(t)
	ctx := context.Background()

	for _, owner := range []uint{1, 2} {
		_, err := walletSvc.CreateAccount(ctx, wallet.CreateAccountInput{OwnerID: owner})
		require.NoError(t, err)
	}
	_, err := walletSvc.Credit(ctx, wallet.OperationInput{
		OwnerID:     1,
		Amount:      decimal.RequireFromString("25.00"),
		Currency:    "USD",
		ExternalRef: "ch_owner1",
	})
	require.NoError(t, err)

	t.Run("owner reads their own entry", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/ledger/ref/ch_owner1", nil)
		req.Header.Set("Authorization", "Bearer "+ownerToken(t, 1))
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("another owner cannot probe the ref", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/ledger/ref/ch_owner1", nil)
		req.Header.Set("Authorization", "Bearer "+ownerToken(t, 2))
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("unknown ref", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/ledger/ref/ch_missing", nil)
		req.Header.Set("Authorization", "Bearer "+ownerToken(t, 1))
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}
