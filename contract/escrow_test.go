package contract

import (
	"math"
	"testing"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettle(t *testing.T) {
	tests := []struct {
		name    string
		price   uint64
		paid    uint64
		refund  uint64
		wantErr error
	}{
		{name: "exact payment", price: 10, paid: 10, refund: 0},
		{name: "one over", price: 10, paid: 11, refund: 1},
		{name: "large overpayment", price: 1, paid: math.MaxUint64, refund: math.MaxUint64 - 1},
		{name: "one short", price: 10, paid: 9, wantErr: ErrInsufficientPayment},
		{name: "nothing attached", price: 10, paid: 0, wantErr: ErrInsufficientPayment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Settle(tt.price, tt.paid)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, err.Error(), "Not enough ether provided")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.price, s.Transfer)
			assert.Equal(t, tt.refund, s.Refund)
			assert.Equal(t, tt.paid, s.Transfer+s.Refund)
		})
	}
}

func TestBalanceSheetSelfPayment(t *testing.T) {
	h := newHarness(t)
	h.setupChain()

	err := h.invoke(distributorID, func(ctx contractapi.TransactionContextInterface) error {
		sheet := newBalanceSheet(ctx)
		s, err := Settle(30, 50)
		if err != nil {
			return err
		}
		if err := sheet.apply(distributorID, distributorID, s); err != nil {
			return err
		}
		return sheet.commit()
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(100), h.balance(distributorID))
}

func TestBalanceSheetInsufficientFunds(t *testing.T) {
	h := newHarness(t)
	h.setupChain()

	err := h.invoke(distributorID, func(ctx contractapi.TransactionContextInterface) error {
		s, _ := Settle(30, 101)
		return newBalanceSheet(ctx).apply(distributorID, farmerID, s)
	})
	require.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, uint64(100), h.balance(distributorID))
	assert.Equal(t, uint64(0), h.balance(farmerID))
}

func TestMint(t *testing.T) {
	h := newHarness(t)
	h.setupChain()

	h.mint(farmerID, 5)
	assert.Equal(t, "Minted", h.lastEvent().Name)
	h.mint(farmerID, 7)
	assert.Equal(t, uint64(12), h.balance(farmerID))

	err := h.invoke(farmerID, func(ctx contractapi.TransactionContextInterface) error {
		return h.cc.Mint(ctx, farmerID, 1)
	})
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, h.events)

	err = h.invoke(ownerID, func(ctx contractapi.TransactionContextInterface) error {
		return h.cc.Mint(ctx, farmerID, 0)
	})
	require.ErrorIs(t, err, ErrInvalidInput)

	err = h.invoke(ownerID, func(ctx contractapi.TransactionContextInterface) error {
		return h.cc.Mint(ctx, farmerID, math.MaxUint64)
	})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, uint64(12), h.balance(farmerID))
}

func TestMintStoppedContract(t *testing.T) {
	h := newHarness(t)
	h.setupChain()
	require.NoError(t, h.invoke(ownerID, h.cc.ToggleContractActive))

	err := h.invoke(ownerID, func(ctx contractapi.TransactionContextInterface) error {
		return h.cc.Mint(ctx, farmerID, 1)
	})
	require.ErrorIs(t, err, ErrContractStopped)
}

func TestBalanceOfUnknownAccount(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, uint64(0), h.balance(strangerID))
}
