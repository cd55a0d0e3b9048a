package contract

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"supplychain/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Core Helper Methods (used across multiple operations) ---

// getCurrentTxTimestamp retrieves the current transaction timestamp from the stub.
func (s *SupplyChainContract) getCurrentTxTimestamp(ctx contractapi.TransactionContextInterface) (time.Time, error) {
	ts, err := ctx.GetStub().GetTxTimestamp()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get transaction timestamp: %w", err)
	}
	return ts.AsTime().UTC(), nil
}

func (s *SupplyChainContract) getCurrentTxTime(ctx contractapi.TransactionContextInterface) (string, error) {
	now, err := s.getCurrentTxTimestamp(ctx)
	if err != nil {
		return "", internalError(err, "read transaction time")
	}
	return now.Format(time.RFC3339), nil
}

// getCurrentActorInfo resolves the invoking client identity.
func (s *SupplyChainContract) getCurrentActorInfo(ctx contractapi.TransactionContextInterface) (*actorInfo, error) {
	clientIdentity := ctx.GetClientIdentity()
	if clientIdentity == nil {
		return nil, newError(KindInvalidIdentity, "client identity is nil from context")
	}
	id, err := clientIdentity.GetID()
	if err != nil {
		return nil, internalError(err, "failed to get client identity ID")
	}
	if strings.TrimSpace(id) == "" {
		return nil, newError(KindInvalidIdentity, "client identity ID is empty")
	}
	mspID, err := clientIdentity.GetMSPID()
	if err != nil {
		logger.Warningf("Could not determine MSPID for caller '%s': %v", id, err)
	}
	return &actorInfo{fullID: id, mspID: mspID}, nil
}

// --- Keys ---

func createItemCompositeKey(ctx contractapi.TransactionContextInterface, upc uint64) (string, error) {
	return ctx.GetStub().CreateCompositeKey(itemObjectType, []string{strconv.FormatUint(upc, 10)})
}

func createRoleCompositeKey(ctx contractapi.TransactionContextInterface, kind model.RoleKind, account string) (string, error) {
	return ctx.GetStub().CreateCompositeKey(roleObjectType, []string{string(kind), account})
}

func createBalanceCompositeKey(ctx contractapi.TransactionContextInterface, account string) (string, error) {
	return ctx.GetStub().CreateCompositeKey(balanceObjectType, []string{account})
}

// validateAccount rejects the null identity.
func validateAccount(account string) error {
	if strings.TrimSpace(account) == "" {
		return newError(KindInvalidIdentity, "Roles: account is the zero address")
	}
	if len(account) > maxAccountLength {
		return newError(KindInvalidInput, "account exceeds max length %d", maxAccountLength)
	}
	return nil
}

// --- Contract singletons ---

// loadContractState returns the owner / breaker / SKU record. An uninitialised
// ledger yields a zero record with no owner.
func loadContractState(ctx contractapi.TransactionContextInterface) (*model.ContractState, error) {
	raw, err := ctx.GetStub().GetState(contractStateKey)
	if err != nil {
		return nil, internalError(err, "failed to read contract state")
	}
	state := &model.ContractState{ObjectType: contractStateKey}
	if raw == nil {
		return state, nil
	}
	if err := json.Unmarshal(raw, state); err != nil {
		return nil, internalError(err, "failed to unmarshal contract state")
	}
	return state, nil
}

func putContractState(ctx contractapi.TransactionContextInterface, state *model.ContractState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return internalError(err, "failed to marshal contract state")
	}
	if err := ctx.GetStub().PutState(contractStateKey, raw); err != nil {
		return internalError(err, "failed to save contract state")
	}
	return nil
}

// requireActive is the circuit-breaker gate. It runs before any other check.
func requireActive(state *model.ContractState) error {
	if state.Stopped {
		return newError(KindContractStopped, "Contract is stopped")
	}
	return nil
}

// requireOwner fails unless the caller is the current owner. After
// renunciation the owner is empty and nobody passes.
func requireOwner(state *model.ContractState, actor *actorInfo) error {
	if state.Owner == "" || state.Owner != actor.fullID {
		return newError(KindUnauthorized, "Only owner can call this function")
	}
	return nil
}

// --- Events ---

// emitEvent sends the single chaincode event of a transaction. A failure
// rejects the transaction so no write commits without its event.
func (s *SupplyChainContract) emitEvent(ctx contractapi.TransactionContextInterface, eventName string, actor *actorInfo, payload map[string]interface{}) error {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	if actor != nil {
		payload["actor"] = actor.fullID
	}
	eventBytes, err := json.Marshal(payload)
	if err != nil {
		return internalError(err, "failed to marshal payload of event '%s'", eventName)
	}
	if err := ctx.GetStub().SetEvent(eventName, eventBytes); err != nil {
		logger.Warningf("emitEvent: Failed to set event '%s': %v", eventName, err)
		return internalError(err, "failed to set event '%s'", eventName)
	}
	return nil
}

// emitItemEvent sends the event of an item transition, keyed by UPC.
func (s *SupplyChainContract) emitItemEvent(ctx contractapi.TransactionContextInterface, eventName string, item *model.Item, actor *actorInfo, additionalPayload map[string]interface{}) error {
	payload := map[string]interface{}{
		"upc":       item.UPC,
		"sku":       item.SKU,
		"itemState": item.State,
		"ownerId":   item.OwnerID,
		"timestamp": item.UpdatedAt,
	}
	for k, v := range additionalPayload {
		payload[k] = v
	}
	return s.emitEvent(ctx, eventName, actor, payload)
}
