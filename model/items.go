package model

import "fmt"

// ItemState is the position of an item in the custody chain.
// States only move forward, one step at a time.
type ItemState uint8

const (
	StateHarvested ItemState = iota // Created by the originating farmer
	StateProcessed                  // Processed by the originating farmer
	StatePacked                     // Packed by the originating farmer
	StateForSale                    // Price set, waiting for a distributor
	StateSold                       // Bought by a distributor
	StateShipped                    // Shipped by the buying distributor
	StateReceived                   // Received (and paid for) by a retailer
	StatePurchased                  // Purchased by a consumer, terminal
)

var itemStateNames = [...]string{
	StateHarvested: "Harvested",
	StateProcessed: "Processed",
	StatePacked:    "Packed",
	StateForSale:   "ForSale",
	StateSold:      "Sold",
	StateShipped:   "Shipped",
	StateReceived:  "Received",
	StatePurchased: "Purchased",
}

func (s ItemState) String() string {
	if int(s) < len(itemStateNames) {
		return itemStateNames[s]
	}
	return fmt.Sprintf("ItemState(%d)", uint8(s))
}

// Next returns the state that directly follows s. ok is false for the terminal state.
func (s ItemState) Next() (next ItemState, ok bool) {
	if s >= StatePurchased {
		return s, false
	}
	return s + 1, true
}

// Item is the ledger record for one physical good, keyed by UPC.
//
// Fields are revealed progressively as the item advances. Each field notes the
// state from which it is valid; before that state it holds its zero value.
// The transition functions in the contract package are the only writers.
type Item struct {
	ObjectType string    `json:"objectType"` // "Item"
	SKU        uint64    `json:"sku"`        // Ledger-assigned sequence number
	UPC        uint64    `json:"upc"`        // Caller-assigned key, never reused
	OwnerID    string    `json:"ownerId"`    // Current custodian
	State      ItemState `json:"itemState"`
	CreatedAt  string    `json:"createdAt"` // RFC3339 transaction time
	UpdatedAt  string    `json:"updatedAt"`

	// Valid from Harvested, immutable afterwards.
	OriginFarmerID        string `json:"originFarmerId"`
	OriginFarmName        string `json:"originFarmName"`
	OriginFarmInformation string `json:"originFarmInformation"`
	OriginFarmLatitude    string `json:"originFarmLatitude"`
	OriginFarmLongitude   string `json:"originFarmLongitude"`
	ProductID             uint64 `json:"productId"` // Equal to SKU
	ProductNotes          string `json:"productNotes"`

	ProductPrice  uint64 `json:"productPrice"`  // Valid from ForSale, immutable afterwards
	DistributorID string `json:"distributorId"` // Valid from Sold
	RetailerID    string `json:"retailerId"`    // Valid from Received
	ConsumerID    string `json:"consumerId"`    // Valid from Purchased

	// History is append-only: one label per successful transition.
	History []string `json:"history"`
}

// OriginData is the immutable provenance of an item.
type OriginData struct {
	OriginFarmerID        string `json:"originFarmerId"`
	OriginFarmName        string `json:"originFarmName"`
	OriginFarmInformation string `json:"originFarmInformation"`
	OriginFarmLatitude    string `json:"originFarmLatitude"`
	OriginFarmLongitude   string `json:"originFarmLongitude"`
}

// ProductData is the commercial part of an item.
type ProductData struct {
	ProductID    uint64 `json:"productId"`
	ProductNotes string `json:"productNotes"`
	ProductPrice uint64 `json:"productPrice"`
}

// ItemBufferOne is the custody and origin view of an item.
type ItemBufferOne struct {
	SKU                   uint64 `json:"itemSku"`
	UPC                   uint64 `json:"itemUpc"`
	OwnerID               string `json:"ownerId"`
	OriginFarmerID        string `json:"originFarmerId"`
	OriginFarmName        string `json:"originFarmName"`
	OriginFarmInformation string `json:"originFarmInformation"`
	OriginFarmLatitude    string `json:"originFarmLatitude"`
	OriginFarmLongitude   string `json:"originFarmLongitude"`
}

// ItemBufferTwo is the product and party view of an item.
type ItemBufferTwo struct {
	SKU           uint64    `json:"itemSku"`
	UPC           uint64    `json:"itemUpc"`
	ProductID     uint64    `json:"productId"`
	ProductNotes  string    `json:"productNotes"`
	ProductPrice  uint64    `json:"productPrice"`
	State         ItemState `json:"itemState"`
	DistributorID string    `json:"distributorId"`
	RetailerID    string    `json:"retailerId"`
	ConsumerID    string    `json:"consumerId"`
}

// HarvestData is the input of a harvest. The range of coordinates is the
// caller's concern; the ledger stores them as given.
type HarvestData struct {
	UPC                   uint64 `json:"upc" validate:"required,gt=0"`
	OriginFarmName        string `json:"originFarmName" validate:"required,max=256"`
	OriginFarmInformation string `json:"originFarmInformation" validate:"max=1024"`
	OriginFarmLatitude    string `json:"originFarmLatitude" validate:"max=64"`
	OriginFarmLongitude   string `json:"originFarmLongitude" validate:"max=64"`
	ProductNotes          string `json:"productNotes" validate:"max=1024"`
}

// Origin returns the provenance part of the item.
func (it *Item) Origin() OriginData {
	return OriginData{
		OriginFarmerID:        it.OriginFarmerID,
		OriginFarmName:        it.OriginFarmName,
		OriginFarmInformation: it.OriginFarmInformation,
		OriginFarmLatitude:    it.OriginFarmLatitude,
		OriginFarmLongitude:   it.OriginFarmLongitude,
	}
}

// Product returns the commercial part of the item.
func (it *Item) Product() ProductData {
	return ProductData{
		ProductID:    it.ProductID,
		ProductNotes: it.ProductNotes,
		ProductPrice: it.ProductPrice,
	}
}

func (it *Item) BufferOne() ItemBufferOne {
	return ItemBufferOne{
		SKU:                   it.SKU,
		UPC:                   it.UPC,
		OwnerID:               it.OwnerID,
		OriginFarmerID:        it.OriginFarmerID,
		OriginFarmName:        it.OriginFarmName,
		OriginFarmInformation: it.OriginFarmInformation,
		OriginFarmLatitude:    it.OriginFarmLatitude,
		OriginFarmLongitude:   it.OriginFarmLongitude,
	}
}

func (it *Item) BufferTwo() ItemBufferTwo {
	return ItemBufferTwo{
		SKU:           it.SKU,
		UPC:           it.UPC,
		ProductID:     it.ProductID,
		ProductNotes:  it.ProductNotes,
		ProductPrice:  it.ProductPrice,
		State:         it.State,
		DistributorID: it.DistributorID,
		RetailerID:    it.RetailerID,
		ConsumerID:    it.ConsumerID,
	}
}

// HistoryCopy returns the history labels in order. The returned slice is not
// backed by the item.
func (it *Item) HistoryCopy() []string {
	out := make([]string, len(it.History))
	copy(out, it.History)
	return out
}
