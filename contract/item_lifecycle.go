package contract

import (
	"encoding/json"

	"supplychain/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// historyLabels is the audit entry appended when an item reaches a state.
var historyLabels = map[model.ItemState]string{
	model.StateHarvested: "Item Harvested",
	model.StateProcessed: "Item Processed",
	model.StatePacked:    "Item Packed",
	model.StateForSale:   "Item For Sale",
	model.StateSold:      "Item Sold",
	model.StateShipped:   "Item Shipped",
	model.StateReceived:  "Item Received",
	model.StatePurchased: "Item Purchased",
}

// predecessorNames completes the "Item not ..." message of a rejected
// transition, naming the state the item should have been in.
var predecessorNames = map[model.ItemState]string{
	model.StateHarvested: "harvested",
	model.StateProcessed: "processed",
	model.StatePacked:    "packed",
	model.StateForSale:   "for sale",
	model.StateSold:      "sold",
	model.StateShipped:   "shipped",
	model.StateReceived:  "received",
}

// getItem loads the item stored under upc.
func (s *SupplyChainContract) getItem(ctx contractapi.TransactionContextInterface, upc uint64) (*model.Item, error) {
	key, err := createItemCompositeKey(ctx, upc)
	if err != nil {
		return nil, internalError(err, "failed to create key for item %d", upc)
	}
	raw, err := ctx.GetStub().GetState(key)
	if err != nil {
		return nil, internalError(err, "failed to read item %d", upc)
	}
	if raw == nil {
		return nil, newError(KindItemNotFound, "Item with UPC %d does not exist", upc)
	}
	var item model.Item
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, internalError(err, "failed to unmarshal item %d", upc)
	}
	if item.History == nil {
		item.History = []string{}
	}
	return &item, nil
}

func (s *SupplyChainContract) itemExists(ctx contractapi.TransactionContextInterface, upc uint64) (bool, error) {
	key, err := createItemCompositeKey(ctx, upc)
	if err != nil {
		return false, internalError(err, "failed to create key for item %d", upc)
	}
	raw, err := ctx.GetStub().GetState(key)
	if err != nil {
		return false, internalError(err, "failed to check for existing item %d", upc)
	}
	return raw != nil, nil
}

func (s *SupplyChainContract) putItem(ctx contractapi.TransactionContextInterface, item *model.Item) error {
	key, err := createItemCompositeKey(ctx, item.UPC)
	if err != nil {
		return internalError(err, "failed to create key for item %d", item.UPC)
	}
	raw, err := json.Marshal(item)
	if err != nil {
		return internalError(err, "failed to marshal item %d", item.UPC)
	}
	if err := ctx.GetStub().PutState(key, raw); err != nil {
		return internalError(err, "failed to save item %d", item.UPC)
	}
	return nil
}

// advance moves item into state to, stamping the time and appending the
// history label.
func advance(item *model.Item, to model.ItemState, now string) {
	item.State = to
	item.UpdatedAt = now
	item.History = append(item.History, historyLabels[to])
}

// transition describes one step of the custody chain after harvest.
type transition struct {
	name string         // Transaction name, for logs
	role model.RoleKind // Registry the caller must belong to
	from model.ItemState

	// validate checks the arguments once the caller's role is known.
	validate func() error
	// authorize checks the caller against the loaded item.
	authorize func(item *model.Item, actor *actorInfo) error
	// payee returns who is paid the item price. Nil for unpaid transitions.
	payee func(item *model.Item) string
	// apply records the caller's part in the item. State, time and history
	// are handled by the runner.
	apply func(item *model.Item, actor *actorInfo)
}

// runTransition checks every guard of t against the current state and only
// then writes the item (and, for payable steps, the balances). Guards run in
// the order: breaker, role, arguments, item existence, caller, state, payment,
// funds.
func (s *SupplyChainContract) runTransition(ctx contractapi.TransactionContextInterface, upc uint64, paid uint64, t transition) (*model.Item, error) {
	state, err := loadContractState(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireActive(state); err != nil {
		return nil, err
	}
	actor, err := s.getCurrentActorInfo(ctx)
	if err != nil {
		return nil, err
	}
	if err := NewRoleRegistry(ctx, t.role).RequireMember(actor.fullID); err != nil {
		return nil, err
	}
	if t.validate != nil {
		if err := t.validate(); err != nil {
			return nil, err
		}
	}
	item, err := s.getItem(ctx, upc)
	if err != nil {
		return nil, err
	}
	if t.authorize != nil {
		if err := t.authorize(item, actor); err != nil {
			return nil, err
		}
	}
	if item.State != t.from {
		return nil, newError(KindInvalidState, "Item not %s", predecessorNames[t.from])
	}
	to, ok := t.from.Next()
	if !ok {
		return nil, newError(KindInvalidState, "Item %d is in terminal state %s", upc, item.State)
	}

	var (
		sheet      *balanceSheet
		settlement Settlement
		payee      string
	)
	if t.payee != nil {
		settlement, err = Settle(item.ProductPrice, paid)
		if err != nil {
			return nil, err
		}
		payee = t.payee(item)
		sheet = newBalanceSheet(ctx)
		if err := sheet.apply(actor.fullID, payee, settlement); err != nil {
			return nil, err
		}
	}

	now, err := s.getCurrentTxTime(ctx)
	if err != nil {
		return nil, err
	}
	t.apply(item, actor)
	advance(item, to, now)

	if sheet != nil {
		if err := sheet.commit(); err != nil {
			return nil, err
		}
	}
	if err := s.putItem(ctx, item); err != nil {
		return nil, err
	}

	var extra map[string]interface{}
	if sheet != nil {
		extra = map[string]interface{}{
			"payee":  payee,
			"price":  settlement.Price,
			"paid":   settlement.Paid,
			"refund": settlement.Refund,
		}
	}
	if err := s.emitItemEvent(ctx, to.String(), item, actor, extra); err != nil {
		return nil, err
	}
	logger.Infof("%s: item %d moved to %s by '%s'", t.name, upc, to, actor.fullID)
	return item, nil
}

// onlyOriginFarmer restricts a step to the farmer who harvested the item.
func onlyOriginFarmer(action string) func(*model.Item, *actorInfo) error {
	return func(item *model.Item, actor *actorInfo) error {
		if item.OriginFarmerID != actor.fullID {
			return newError(KindUnauthorized, "Only the farmer who harvested can %s this item", action)
		}
		return nil
	}
}

func onlyBuyingDistributor(item *model.Item, actor *actorInfo) error {
	if item.DistributorID != actor.fullID {
		return newError(KindUnauthorized, "Only the distributor who bought can ship this item")
	}
	return nil
}

func noChange(*model.Item, *actorInfo) {}
