package contract

import (
	"encoding/json"
	"sort"

	"supplychain/model"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Query Functions ---
// None of these are gated by the circuit breaker and none write state.

// FetchItemBufferOne returns the custody and origin view of an item.
func (s *SupplyChainContract) FetchItemBufferOne(ctx contractapi.TransactionContextInterface, upc uint64) (*model.ItemBufferOne, error) {
	logger.Debugf("FetchItemBufferOne: querying item %d", upc)
	item, err := s.getItem(ctx, upc)
	if err != nil {
		return nil, err
	}
	view := item.BufferOne()
	return &view, nil
}

// FetchItemBufferTwo returns the product and party view of an item.
func (s *SupplyChainContract) FetchItemBufferTwo(ctx contractapi.TransactionContextInterface, upc uint64) (*model.ItemBufferTwo, error) {
	logger.Debugf("FetchItemBufferTwo: querying item %d", upc)
	item, err := s.getItem(ctx, upc)
	if err != nil {
		return nil, err
	}
	view := item.BufferTwo()
	return &view, nil
}

func (s *SupplyChainContract) FetchOriginData(ctx contractapi.TransactionContextInterface, upc uint64) (*model.OriginData, error) {
	item, err := s.getItem(ctx, upc)
	if err != nil {
		return nil, err
	}
	origin := item.Origin()
	return &origin, nil
}

func (s *SupplyChainContract) FetchProductData(ctx contractapi.TransactionContextInterface, upc uint64) (*model.ProductData, error) {
	item, err := s.getItem(ctx, upc)
	if err != nil {
		return nil, err
	}
	product := item.Product()
	return &product, nil
}

// FetchItem returns the full item record.
func (s *SupplyChainContract) FetchItem(ctx contractapi.TransactionContextInterface, upc uint64) (*model.Item, error) {
	logger.Debugf("FetchItem: querying item %d", upc)
	return s.getItem(ctx, upc)
}

// FetchItemHistory returns the audit labels of an item, oldest first.
func (s *SupplyChainContract) FetchItemHistory(ctx contractapi.TransactionContextInterface, upc uint64) ([]string, error) {
	item, err := s.getItem(ctx, upc)
	if err != nil {
		return nil, err
	}
	return item.HistoryCopy(), nil
}

// GetAllItems lists every item ordered by SKU, up to maxListedItems.
func (s *SupplyChainContract) GetAllItems(ctx contractapi.TransactionContextInterface) ([]*model.Item, error) {
	return s.listItems(ctx, func(*model.Item) bool { return true })
}

// GetItemsByOwner lists the items currently in account's custody, ordered by SKU.
func (s *SupplyChainContract) GetItemsByOwner(ctx contractapi.TransactionContextInterface, account string) ([]*model.Item, error) {
	if err := validateAccount(account); err != nil {
		return nil, err
	}
	return s.listItems(ctx, func(it *model.Item) bool { return it.OwnerID == account })
}

func (s *SupplyChainContract) listItems(ctx contractapi.TransactionContextInterface, keep func(*model.Item) bool) ([]*model.Item, error) {
	resultsIterator, err := ctx.GetStub().GetStateByPartialCompositeKey(itemObjectType, []string{})
	if err != nil {
		return nil, internalError(err, "failed to get item iterator")
	}
	defer resultsIterator.Close()

	items, err := s.processItemIterator(resultsIterator, keep)
	if err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool { return items[i].SKU < items[j].SKU })
	if len(items) > maxListedItems {
		logger.Warningf("listItems: listing truncated to the first %d of %d items by SKU", maxListedItems, len(items))
		items = items[:maxListedItems]
	}
	logger.Debugf("listItems: returning %d items", len(items))
	return items, nil
}

// processItemIterator decodes the items of iterator. Undecodable entries are
// skipped and logged.
func (s *SupplyChainContract) processItemIterator(iterator shim.StateQueryIteratorInterface, keep func(*model.Item) bool) ([]*model.Item, error) {
	items := []*model.Item{}
	for iterator.HasNext() {
		queryResponse, err := iterator.Next()
		if err != nil {
			return nil, internalError(err, "failed to iterate items")
		}
		var item model.Item
		if err := json.Unmarshal(queryResponse.Value, &item); err != nil {
			logger.Warningf("processItemIterator: Error unmarshalling item (key: %s): %v. Skipping.", queryResponse.Key, err)
			continue
		}
		if item.History == nil {
			item.History = []string{}
		}
		if !keep(&item) {
			continue
		}
		items = append(items, &item)
	}
	return items, nil
}
