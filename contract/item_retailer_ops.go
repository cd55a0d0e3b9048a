package contract

import (
	"supplychain/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Lifecycle: Retailer and Consumer Operations ---

// ReceiveItem takes a shipped item into the calling retailer's custody and
// pays the distributor the item price.
func (s *SupplyChainContract) ReceiveItem(ctx contractapi.TransactionContextInterface, upc uint64, paid uint64) error {
	_, err := s.runTransition(ctx, upc, paid, transition{
		name: "ReceiveItem",
		role: model.RoleRetailer,
		from: model.StateShipped,
		payee: func(item *model.Item) string {
			return item.DistributorID
		},
		apply: func(item *model.Item, actor *actorInfo) {
			item.RetailerID = actor.fullID
			item.OwnerID = actor.fullID
		},
	})
	return err
}

// PurchaseItem sells a received item to the calling consumer and pays the
// retailer. Purchased is terminal.
func (s *SupplyChainContract) PurchaseItem(ctx contractapi.TransactionContextInterface, upc uint64, paid uint64) error {
	_, err := s.runTransition(ctx, upc, paid, transition{
		name: "PurchaseItem",
		role: model.RoleConsumer,
		from: model.StateReceived,
		payee: func(item *model.Item) string {
			return item.RetailerID
		},
		apply: func(item *model.Item, actor *actorInfo) {
			item.ConsumerID = actor.fullID
			item.OwnerID = actor.fullID
		},
	})
	return err
}
