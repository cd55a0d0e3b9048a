package contract

import (
	"supplychain/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Lifecycle: Admin Operations ---

// InitLedger makes the caller the contract owner and the first member of every
// role registry. It can run once per ledger.
//
// Whoever calls it first becomes owner, so it must be submitted right after
// deployment. Setting AdminMSPID limits it to the administering organisation.
func (s *SupplyChainContract) InitLedger(ctx contractapi.TransactionContextInterface) error {
	logger.Info("Attempting to initialise ledger with deploying identity...")
	state, err := loadContractState(ctx)
	if err != nil {
		return err
	}
	if state.Initialized {
		logger.Info("InitLedger: ledger already initialised, refusing to re-run.")
		return newError(KindAlreadyInitialized, "ledger is already initialized")
	}

	actor, err := s.getCurrentActorInfo(ctx)
	if err != nil {
		return err
	}
	if s.AdminMSPID != "" && actor.mspID != s.AdminMSPID {
		logger.Warningf("InitLedger: rejected identity '%s' from MSP '%s', expected MSP '%s'", actor.fullID, actor.mspID, s.AdminMSPID)
		return newError(KindUnauthorized, "only members of MSP '%s' can initialise the ledger", s.AdminMSPID)
	}
	now, err := s.getCurrentTxTime(ctx)
	if err != nil {
		return err
	}

	state.Initialized = true
	state.Owner = actor.fullID
	state.Stopped = false
	state.UpdatedAt = now
	if err := putContractState(ctx, state); err != nil {
		return err
	}
	if err := seedRoles(ctx, actor.fullID, now); err != nil {
		return err
	}

	if err := s.emitEvent(ctx, "OwnershipTransferred", actor, map[string]interface{}{"previousOwner": "", "newOwner": actor.fullID}); err != nil {
		return err
	}
	logger.Infof("InitLedger: ledger initialised. Identity '%s' (MSP '%s') is owner and member of all roles.", actor.fullID, actor.mspID)
	return nil
}

// Owner returns the current owner, or "" once ownership was renounced.
func (s *SupplyChainContract) Owner(ctx contractapi.TransactionContextInterface) (string, error) {
	state, err := loadContractState(ctx)
	if err != nil {
		return "", err
	}
	return state.Owner, nil
}

// IsOwner reports whether the caller is the current owner.
func (s *SupplyChainContract) IsOwner(ctx contractapi.TransactionContextInterface) (bool, error) {
	actor, err := s.getCurrentActorInfo(ctx)
	if err != nil {
		return false, err
	}
	state, err := loadContractState(ctx)
	if err != nil {
		return false, err
	}
	return state.Owner != "" && state.Owner == actor.fullID, nil
}

// TransferOwnership hands the owner role to newOwner. Owner only.
func (s *SupplyChainContract) TransferOwnership(ctx contractapi.TransactionContextInterface, newOwner string) error {
	actor, err := s.getCurrentActorInfo(ctx)
	if err != nil {
		return err
	}
	state, err := loadContractState(ctx)
	if err != nil {
		return err
	}
	if err := requireOwner(state, actor); err != nil {
		return err
	}
	if err := validateAccount(newOwner); err != nil {
		return err
	}
	return s.setOwner(ctx, state, actor, newOwner)
}

// RenounceOwnership leaves the contract without an owner. Owner only.
//
// This is a point of no return: no identity can ever be owner again, so role
// administration, the circuit breaker toggle and minting stay unavailable for
// the lifetime of the ledger. If the breaker is stopped at that moment it
// stays stopped.
func (s *SupplyChainContract) RenounceOwnership(ctx contractapi.TransactionContextInterface) error {
	actor, err := s.getCurrentActorInfo(ctx)
	if err != nil {
		return err
	}
	state, err := loadContractState(ctx)
	if err != nil {
		return err
	}
	if err := requireOwner(state, actor); err != nil {
		return err
	}
	logger.Warningf("Owner '%s' is renouncing ownership; owner-gated operations become unavailable permanently", actor.fullID)
	return s.setOwner(ctx, state, actor, "")
}

func (s *SupplyChainContract) setOwner(ctx contractapi.TransactionContextInterface, state *model.ContractState, actor *actorInfo, newOwner string) error {
	now, err := s.getCurrentTxTime(ctx)
	if err != nil {
		return err
	}
	previous := state.Owner
	state.Owner = newOwner
	state.UpdatedAt = now
	if err := putContractState(ctx, state); err != nil {
		return err
	}
	if err := s.emitEvent(ctx, "OwnershipTransferred", actor, map[string]interface{}{"previousOwner": previous, "newOwner": newOwner}); err != nil {
		return err
	}
	logger.Infof("Ownership transferred from '%s' to '%s'", previous, newOwner)
	return nil
}

// --- Circuit breaker ---

// ToggleContractActive flips the emergency stop. Owner only, and never
// blocked by the breaker itself.
func (s *SupplyChainContract) ToggleContractActive(ctx contractapi.TransactionContextInterface) error {
	actor, err := s.getCurrentActorInfo(ctx)
	if err != nil {
		return err
	}
	state, err := loadContractState(ctx)
	if err != nil {
		return err
	}
	if err := requireOwner(state, actor); err != nil {
		return err
	}
	now, err := s.getCurrentTxTime(ctx)
	if err != nil {
		return err
	}
	state.Stopped = !state.Stopped
	state.UpdatedAt = now
	if err := putContractState(ctx, state); err != nil {
		return err
	}
	if err := s.emitEvent(ctx, "CircuitBreakerToggled", actor, map[string]interface{}{"stopped": state.Stopped}); err != nil {
		return err
	}
	logger.Infof("Circuit breaker toggled by '%s', stopped=%t", actor.fullID, state.Stopped)
	return nil
}

func (s *SupplyChainContract) IsStopped(ctx contractapi.TransactionContextInterface) (bool, error) {
	state, err := loadContractState(ctx)
	if err != nil {
		return false, err
	}
	return state.Stopped, nil
}
