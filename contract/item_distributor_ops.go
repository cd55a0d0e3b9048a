package contract

import (
	"supplychain/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Lifecycle: Distributor Operations ---

// BuyItem transfers an item offered for sale to the calling distributor.
// paid is escrowed from the caller's balance; the price goes to the
// originating farmer and the rest is refunded.
func (s *SupplyChainContract) BuyItem(ctx contractapi.TransactionContextInterface, upc uint64, paid uint64) error {
	_, err := s.runTransition(ctx, upc, paid, transition{
		name: "BuyItem",
		role: model.RoleDistributor,
		from: model.StateForSale,
		payee: func(item *model.Item) string {
			return item.OriginFarmerID
		},
		apply: func(item *model.Item, actor *actorInfo) {
			item.DistributorID = actor.fullID
			item.OwnerID = actor.fullID
		},
	})
	return err
}

// ShipItem marks a sold item as shipped. Only the distributor who bought it
// may ship it; custody does not change.
func (s *SupplyChainContract) ShipItem(ctx contractapi.TransactionContextInterface, upc uint64) error {
	_, err := s.runTransition(ctx, upc, 0, transition{
		name:      "ShipItem",
		role:      model.RoleDistributor,
		from:      model.StateSold,
		authorize: onlyBuyingDistributor,
		apply:     noChange,
	})
	return err
}
