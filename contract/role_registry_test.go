package contract

import (
	"testing"

	"supplychain/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (h *harness) isRole(kind model.RoleKind, account string) bool {
	h.t.Helper()
	return query(h, strangerID, func(ctx contractapi.TransactionContextInterface) (bool, error) {
		return h.cc.IsRole(ctx, string(kind), account)
	})
}

func TestInitLedgerSeedsDeployerInEveryRegistry(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.invoke(ownerID, h.cc.InitLedger))

	for _, kind := range model.RoleKinds {
		assert.True(t, h.isRole(kind, ownerID), "deployer should be a %s", kind)
		assert.False(t, h.isRole(kind, strangerID))
	}
}

func TestAddRole(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.invoke(ownerID, h.cc.InitLedger))

	require.NoError(t, h.invoke(ownerID, func(ctx contractapi.TransactionContextInterface) error {
		return h.cc.AddDistributor(ctx, distributorID)
	}))
	ev := h.lastEvent()
	assert.Equal(t, "DistributorAdded", ev.Name)
	assert.Equal(t, distributorID, ev.Payload["account"])

	assert.True(t, h.isRole(model.RoleDistributor, distributorID))
	assert.False(t, h.isRole(model.RoleFarmer, distributorID), "registries are independent")

	isDistributor := query(h, strangerID, func(ctx contractapi.TransactionContextInterface) (bool, error) {
		return h.cc.IsDistributor(ctx, distributorID)
	})
	assert.True(t, isDistributor)
}

func TestAddRoleRejections(t *testing.T) {
	h := newHarness(t)
	h.setupChain()

	t.Run("member cannot add peers", func(t *testing.T) {
		err := h.invoke(farmerID, func(ctx contractapi.TransactionContextInterface) error {
			return h.cc.AddFarmer(ctx, strangerID)
		})
		require.ErrorIs(t, err, ErrUnauthorized)
		assert.Contains(t, err.Error(), "Only owner can call this function")
		assert.Empty(t, h.events)
		assert.False(t, h.isRole(model.RoleFarmer, strangerID))
	})

	t.Run("zero address", func(t *testing.T) {
		err := h.invoke(ownerID, func(ctx contractapi.TransactionContextInterface) error {
			return h.cc.AddRetailer(ctx, "")
		})
		require.ErrorIs(t, err, ErrInvalidIdentity)
		assert.Contains(t, err.Error(), "Roles: account is the zero address")
	})

	t.Run("existing member", func(t *testing.T) {
		err := h.invoke(ownerID, func(ctx contractapi.TransactionContextInterface) error {
			return h.cc.AddFarmer(ctx, farmerID)
		})
		require.ErrorIs(t, err, ErrAlreadyMember)
		assert.Empty(t, h.events)
	})

	t.Run("unknown kind", func(t *testing.T) {
		err := h.invoke(ownerID, func(ctx contractapi.TransactionContextInterface) error {
			return h.cc.AddRole(ctx, "processor", strangerID)
		})
		require.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestRenounceRoleTwice(t *testing.T) {
	h := newHarness(t)
	h.setupChain()

	require.NoError(t, h.invoke(consumerID, h.cc.RenounceConsumer))
	ev := h.lastEvent()
	assert.Equal(t, "ConsumerRemoved", ev.Name)
	assert.Equal(t, consumerID, ev.Payload["account"])
	assert.False(t, h.isRole(model.RoleConsumer, consumerID))

	err := h.invoke(consumerID, h.cc.RenounceConsumer)
	require.ErrorIs(t, err, ErrNotMember)
	assert.Empty(t, h.events)
}

func TestRenounceRoleByKind(t *testing.T) {
	h := newHarness(t)
	h.setupChain()

	require.NoError(t, h.invoke(retailerID, func(ctx contractapi.TransactionContextInterface) error {
		return h.cc.RenounceRole(ctx, string(model.RoleRetailer))
	}))
	assert.False(t, h.isRole(model.RoleRetailer, retailerID))

	err := h.invoke(strangerID, func(ctx contractapi.TransactionContextInterface) error {
		return h.cc.RenounceRole(ctx, string(model.RoleFarmer))
	})
	require.ErrorIs(t, err, ErrNotMember)
}

func TestRemoveRole(t *testing.T) {
	h := newHarness(t)
	h.setupChain()

	err := h.invoke(farmerID, func(ctx contractapi.TransactionContextInterface) error {
		return h.cc.RemoveRole(ctx, string(model.RoleFarmer), farmer2ID)
	})
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.True(t, h.isRole(model.RoleFarmer, farmer2ID))

	require.NoError(t, h.invoke(ownerID, func(ctx contractapi.TransactionContextInterface) error {
		return h.cc.RemoveRole(ctx, string(model.RoleFarmer), farmer2ID)
	}))
	assert.Equal(t, "FarmerRemoved", h.lastEvent().Name)
	assert.False(t, h.isRole(model.RoleFarmer, farmer2ID))

	err = h.invoke(ownerID, func(ctx contractapi.TransactionContextInterface) error {
		return h.cc.RemoveRole(ctx, string(model.RoleFarmer), farmer2ID)
	})
	require.ErrorIs(t, err, ErrNotMember)
}

func TestRoleAdminIgnoresCircuitBreaker(t *testing.T) {
	h := newHarness(t)
	h.setupChain()
	require.NoError(t, h.invoke(ownerID, h.cc.ToggleContractActive))

	require.NoError(t, h.invoke(ownerID, func(ctx contractapi.TransactionContextInterface) error {
		return h.cc.AddConsumer(ctx, strangerID)
	}))
	require.NoError(t, h.invoke(strangerID, h.cc.RenounceConsumer))
}

func TestMembershipRecord(t *testing.T) {
	h := newHarness(t)
	h.setupChain()

	m := query(h, strangerID, func(ctx contractapi.TransactionContextInterface) (*model.RoleMembership, error) {
		return NewRoleRegistry(ctx, model.RoleRetailer).Membership(retailerID)
	})
	require.NotNil(t, m)
	assert.Equal(t, ownerID, m.AddedBy)
	assert.Equal(t, model.RoleRetailer, m.Kind)
	assert.NotEmpty(t, m.AddedAt)

	missing := query(h, strangerID, func(ctx contractapi.TransactionContextInterface) (*model.RoleMembership, error) {
		return NewRoleRegistry(ctx, model.RoleRetailer).Membership(strangerID)
	})
	assert.Nil(t, missing)
}
