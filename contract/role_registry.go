package contract

import (
	"encoding/json"
	"fmt"

	"supplychain/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric/common/flogging"
)

var roleLogger = flogging.MustGetLogger("supplychain.roleregistry")

// RoleRegistry is the membership set of one role kind. Each kind has its own
// independent set in the world state, keyed RoleMember{kind, account}.
//
// The registry does not authorise its callers; the contract checks ownership
// before add/remove and identity before renounce.
type RoleRegistry struct {
	Ctx  contractapi.TransactionContextInterface
	Kind model.RoleKind
}

// NewRoleRegistry creates the registry for kind within the current transaction.
func NewRoleRegistry(ctx contractapi.TransactionContextInterface, kind model.RoleKind) *RoleRegistry {
	return &RoleRegistry{Ctx: ctx, Kind: kind}
}

func (r *RoleRegistry) memberKey(account string) (string, error) {
	key, err := createRoleCompositeKey(r.Ctx, r.Kind, account)
	if err != nil {
		return "", internalError(err, "failed to create %s membership key for '%s'", r.Kind, account)
	}
	return key, nil
}

// IsMember reports whether account belongs to the registry. The null
// identity is never a member.
func (r *RoleRegistry) IsMember(account string) (bool, error) {
	if account == "" {
		return false, nil
	}
	key, err := r.memberKey(account)
	if err != nil {
		return false, err
	}
	raw, err := r.Ctx.GetStub().GetState(key)
	if err != nil {
		return false, internalError(err, "ledger error checking %s membership for '%s'", r.Kind, account)
	}
	return raw != nil, nil
}

// Membership returns the stored record, or nil when account is not a member.
func (r *RoleRegistry) Membership(account string) (*model.RoleMembership, error) {
	key, err := r.memberKey(account)
	if err != nil {
		return nil, err
	}
	raw, err := r.Ctx.GetStub().GetState(key)
	if err != nil {
		return nil, internalError(err, "ledger error reading %s membership for '%s'", r.Kind, account)
	}
	if raw == nil {
		return nil, nil
	}
	var m model.RoleMembership
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, internalError(err, "failed to unmarshal %s membership for '%s'", r.Kind, account)
	}
	return &m, nil
}

// RequireMember fails with Unauthorized ("Caller is not a farmer") unless
// account is a member.
func (r *RoleRegistry) RequireMember(account string) error {
	ok, err := r.IsMember(account)
	if err != nil {
		return err
	}
	if !ok {
		return newError(KindUnauthorized, "Caller is not a %s", r.Kind)
	}
	roleLogger.Debugf("Role check passed for role '%s' for '%s'.", r.Kind, account)
	return nil
}

// Add inserts account. Re-adding an existing member is rejected with
// AlreadyMember so that every successful add corresponds to exactly one
// RoleAdded event.
func (r *RoleRegistry) Add(account, addedBy, addedAt string) error {
	if err := validateAccount(account); err != nil {
		return err
	}
	ok, err := r.IsMember(account)
	if err != nil {
		return err
	}
	if ok {
		return newError(KindAlreadyMember, "Roles: account already has role %s", r.Kind)
	}
	return r.put(account, addedBy, addedAt)
}

// put writes the membership record without checks. Used by Add and by
// ledger initialisation.
func (r *RoleRegistry) put(account, addedBy, addedAt string) error {
	key, err := r.memberKey(account)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(model.RoleMembership{
		ObjectType: roleObjectType,
		Kind:       r.Kind,
		Account:    account,
		AddedBy:    addedBy,
		AddedAt:    addedAt,
	})
	if err != nil {
		return internalError(err, "failed to marshal %s membership", r.Kind)
	}
	if err := r.Ctx.GetStub().PutState(key, raw); err != nil {
		return internalError(err, "failed to save %s membership for '%s'", r.Kind, account)
	}
	roleLogger.Infof("Role '%s' assigned to '%s' by '%s'.", r.Kind, account, addedBy)
	return nil
}

// Remove deletes account, failing with NotMember if it is absent.
func (r *RoleRegistry) Remove(account string) error {
	if err := validateAccount(account); err != nil {
		return err
	}
	ok, err := r.IsMember(account)
	if err != nil {
		return err
	}
	if !ok {
		return newError(KindNotMember, "Roles: account does not have role %s", r.Kind)
	}
	key, err := r.memberKey(account)
	if err != nil {
		return err
	}
	if err := r.Ctx.GetStub().DelState(key); err != nil {
		return internalError(err, "failed to delete %s membership for '%s'", r.Kind, account)
	}
	roleLogger.Infof("Role '%s' removed from '%s'.", r.Kind, account)
	return nil
}

func parseRoleKind(kind string) (model.RoleKind, error) {
	k := model.RoleKind(kind)
	if !k.Valid() {
		return "", newError(KindInvalidInput, "invalid role: '%s'. Valid roles are: %v", kind, model.RoleKinds)
	}
	return k, nil
}

// --- Contract surface: role administration ---

// addRole is owner-gated and not subject to the circuit breaker.
func (s *SupplyChainContract) addRole(ctx contractapi.TransactionContextInterface, kind model.RoleKind, account string) error {
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
	if err := NewRoleRegistry(ctx, kind).Add(account, actor.fullID, now); err != nil {
		return err
	}
	if err := s.emitEvent(ctx, kind.Title()+"Added", actor, map[string]interface{}{"account": account}); err != nil {
		return err
	}
	logger.Infof("Owner '%s' added '%s' as %s", actor.fullID, account, kind)
	return nil
}

func (s *SupplyChainContract) removeRole(ctx contractapi.TransactionContextInterface, kind model.RoleKind, account string) error {
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
	if err := NewRoleRegistry(ctx, kind).Remove(account); err != nil {
		return err
	}
	if err := s.emitEvent(ctx, kind.Title()+"Removed", actor, map[string]interface{}{"account": account}); err != nil {
		return err
	}
	logger.Infof("Owner '%s' removed '%s' from %s", actor.fullID, account, kind)
	return nil
}

// renounceRole removes the caller from kind. Any member may do this for
// themselves at any time.
func (s *SupplyChainContract) renounceRole(ctx contractapi.TransactionContextInterface, kind model.RoleKind) error {
	actor, err := s.getCurrentActorInfo(ctx)
	if err != nil {
		return err
	}
	if err := NewRoleRegistry(ctx, kind).Remove(actor.fullID); err != nil {
		return err
	}
	if err := s.emitEvent(ctx, kind.Title()+"Removed", actor, map[string]interface{}{"account": actor.fullID}); err != nil {
		return err
	}
	logger.Infof("'%s' renounced role %s", actor.fullID, kind)
	return nil
}

func (s *SupplyChainContract) isRole(ctx contractapi.TransactionContextInterface, kind model.RoleKind, account string) (bool, error) {
	return NewRoleRegistry(ctx, kind).IsMember(account)
}

// AddRole adds account to the registry named by kind. Owner only.
func (s *SupplyChainContract) AddRole(ctx contractapi.TransactionContextInterface, kind string, account string) error {
	k, err := parseRoleKind(kind)
	if err != nil {
		return err
	}
	return s.addRole(ctx, k, account)
}

// RemoveRole removes account from the registry named by kind. Owner only.
func (s *SupplyChainContract) RemoveRole(ctx contractapi.TransactionContextInterface, kind string, account string) error {
	k, err := parseRoleKind(kind)
	if err != nil {
		return err
	}
	return s.removeRole(ctx, k, account)
}

// RenounceRole removes the caller from the registry named by kind.
func (s *SupplyChainContract) RenounceRole(ctx contractapi.TransactionContextInterface, kind string) error {
	k, err := parseRoleKind(kind)
	if err != nil {
		return err
	}
	return s.renounceRole(ctx, k)
}

func (s *SupplyChainContract) IsRole(ctx contractapi.TransactionContextInterface, kind string, account string) (bool, error) {
	k, err := parseRoleKind(kind)
	if err != nil {
		return false, err
	}
	return s.isRole(ctx, k, account)
}

func (s *SupplyChainContract) AddFarmer(ctx contractapi.TransactionContextInterface, account string) error {
	return s.addRole(ctx, model.RoleFarmer, account)
}

func (s *SupplyChainContract) AddDistributor(ctx contractapi.TransactionContextInterface, account string) error {
	return s.addRole(ctx, model.RoleDistributor, account)
}

func (s *SupplyChainContract) AddRetailer(ctx contractapi.TransactionContextInterface, account string) error {
	return s.addRole(ctx, model.RoleRetailer, account)
}

func (s *SupplyChainContract) AddConsumer(ctx contractapi.TransactionContextInterface, account string) error {
	return s.addRole(ctx, model.RoleConsumer, account)
}

func (s *SupplyChainContract) RenounceFarmer(ctx contractapi.TransactionContextInterface) error {
	return s.renounceRole(ctx, model.RoleFarmer)
}

func (s *SupplyChainContract) RenounceDistributor(ctx contractapi.TransactionContextInterface) error {
	return s.renounceRole(ctx, model.RoleDistributor)
}

func (s *SupplyChainContract) RenounceRetailer(ctx contractapi.TransactionContextInterface) error {
	return s.renounceRole(ctx, model.RoleRetailer)
}

func (s *SupplyChainContract) RenounceConsumer(ctx contractapi.TransactionContextInterface) error {
	return s.renounceRole(ctx, model.RoleConsumer)
}

func (s *SupplyChainContract) IsFarmer(ctx contractapi.TransactionContextInterface, account string) (bool, error) {
	return s.isRole(ctx, model.RoleFarmer, account)
}

func (s *SupplyChainContract) IsDistributor(ctx contractapi.TransactionContextInterface, account string) (bool, error) {
	return s.isRole(ctx, model.RoleDistributor, account)
}

func (s *SupplyChainContract) IsRetailer(ctx contractapi.TransactionContextInterface, account string) (bool, error) {
	return s.isRole(ctx, model.RoleRetailer, account)
}

func (s *SupplyChainContract) IsConsumer(ctx contractapi.TransactionContextInterface, account string) (bool, error) {
	return s.isRole(ctx, model.RoleConsumer, account)
}

// seedRoles makes account the first member of every registry.
func seedRoles(ctx contractapi.TransactionContextInterface, account, at string) error {
	for _, kind := range model.RoleKinds {
		if err := NewRoleRegistry(ctx, kind).put(account, account, at); err != nil {
			return fmt.Errorf("seed %s registry: %w", kind, err)
		}
	}
	return nil
}
