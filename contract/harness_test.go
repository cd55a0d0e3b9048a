package contract

import (
	"crypto/x509"
	"encoding/json"
	"fmt"
	"testing"

	"supplychain/model"

	"github.com/hyperledger/fabric-chaincode-go/shimtest"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/stretchr/testify/require"
)

const (
	ownerID       = "x509::CN=owner,OU=admin::CN=ca.org1.example.com"
	farmerID      = "x509::CN=farmer,OU=client::CN=ca.org1.example.com"
	farmer2ID     = "x509::CN=farmer2,OU=client::CN=ca.org1.example.com"
	distributorID = "x509::CN=distributor,OU=client::CN=ca.org2.example.com"
	retailerID    = "x509::CN=retailer,OU=client::CN=ca.org2.example.com"
	consumerID    = "x509::CN=consumer,OU=client::CN=ca.org3.example.com"
	strangerID    = "x509::CN=stranger,OU=client::CN=ca.org3.example.com"
)

// fakeIdentity is the caller of a transaction.
type fakeIdentity struct {
	id  string
	msp string
}

func (f *fakeIdentity) GetID() (string, error)    { return f.id, nil }
func (f *fakeIdentity) GetMSPID() (string, error) { return f.msp, nil }
func (f *fakeIdentity) GetAttributeValue(string) (string, bool, error) {
	return "", false, nil
}
func (f *fakeIdentity) AssertAttributeValue(name, _ string) error {
	return fmt.Errorf("attribute '%s' not found", name)
}
func (f *fakeIdentity) GetX509Certificate() (*x509.Certificate, error) { return nil, nil }

type recordedEvent struct {
	Name    string
	Payload map[string]interface{}
}

// harness drives the contract against an in-memory world state. Every call
// runs in its own mock transaction.
type harness struct {
	t      *testing.T
	stub   *shimtest.MockStub
	cc     *SupplyChainContract
	txn    int
	events []recordedEvent   // Events of the last call
	msps   map[string]string // Caller MSP overrides, default Org1MSP
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{
		t:    t,
		stub: shimtest.NewMockStub("supplychain", nil),
		cc:   NewSupplyChainContract(),
	}
}

func (h *harness) ctx(caller string) contractapi.TransactionContextInterface {
	ctx := new(contractapi.TransactionContext)
	ctx.SetStub(h.stub)
	msp, ok := h.msps[caller]
	if !ok {
		msp = "Org1MSP"
	}
	ctx.SetClientIdentity(&fakeIdentity{id: caller, msp: msp})
	return ctx
}

func (h *harness) invoke(caller string, fn func(ctx contractapi.TransactionContextInterface) error) error {
	h.txn++
	txID := fmt.Sprintf("tx-%d", h.txn)
	h.stub.MockTransactionStart(txID)
	err := fn(h.ctx(caller))
	h.stub.MockTransactionEnd(txID)
	h.drainEvents()
	return err
}

func (h *harness) drainEvents() {
	h.events = nil
	for {
		select {
		case ev := <-h.stub.ChaincodeEventsChannel:
			payload := map[string]interface{}{}
			require.NoError(h.t, json.Unmarshal(ev.Payload, &payload))
			h.events = append(h.events, recordedEvent{Name: ev.EventName, Payload: payload})
		default:
			return
		}
	}
}

// lastEvent returns the single event of the last call.
func (h *harness) lastEvent() recordedEvent {
	h.t.Helper()
	require.Len(h.t, h.events, 1, "expected exactly one event")
	return h.events[0]
}

func query[T any](h *harness, caller string, fn func(ctx contractapi.TransactionContextInterface) (T, error)) T {
	h.t.Helper()
	var out T
	err := h.invoke(caller, func(ctx contractapi.TransactionContextInterface) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	require.NoError(h.t, err)
	return out
}

// setupChain initialises the ledger, registers one member per role and funds
// the paying roles.
func (h *harness) setupChain() {
	h.t.Helper()
	c := h.cc
	require.NoError(h.t, h.invoke(ownerID, c.InitLedger))
	for _, add := range []struct {
		fn      func(contractapi.TransactionContextInterface, string) error
		account string
	}{
		{c.AddFarmer, farmerID},
		{c.AddFarmer, farmer2ID},
		{c.AddDistributor, distributorID},
		{c.AddRetailer, retailerID},
		{c.AddConsumer, consumerID},
	} {
		add := add
		require.NoError(h.t, h.invoke(ownerID, func(ctx contractapi.TransactionContextInterface) error {
			return add.fn(ctx, add.account)
		}))
	}
	for _, account := range []string{distributorID, retailerID, consumerID} {
		h.mint(account, 100)
	}
}

func (h *harness) mint(account string, amount uint64) {
	h.t.Helper()
	require.NoError(h.t, h.invoke(ownerID, func(ctx contractapi.TransactionContextInterface) error {
		return h.cc.Mint(ctx, account, amount)
	}))
}

func (h *harness) balance(account string) uint64 {
	h.t.Helper()
	return query(h, strangerID, func(ctx contractapi.TransactionContextInterface) (uint64, error) {
		return h.cc.BalanceOf(ctx, account)
	})
}

func (h *harness) item(upc uint64) *model.Item {
	h.t.Helper()
	return query(h, strangerID, func(ctx contractapi.TransactionContextInterface) (*model.Item, error) {
		return h.cc.FetchItem(ctx, upc)
	})
}

func harvestData(upc uint64, farm string) model.HarvestData {
	return model.HarvestData{
		UPC:                   upc,
		OriginFarmName:        farm,
		OriginFarmInformation: "Yarray Valley",
		OriginFarmLatitude:    "-38.239770",
		OriginFarmLongitude:   "144.341490",
		ProductNotes:          "Best beans for Espresso",
	}
}

func (h *harness) harvest(caller string, upc uint64, farm string) error {
	return h.invoke(caller, func(ctx contractapi.TransactionContextInterface) error {
		return h.cc.HarvestItem(ctx, harvestData(upc, farm))
	})
}

func (h *harness) step(caller string, fn func(contractapi.TransactionContextInterface, uint64) error, upc uint64) error {
	return h.invoke(caller, func(ctx contractapi.TransactionContextInterface) error {
		return fn(ctx, upc)
	})
}

func (h *harness) pay(caller string, fn func(contractapi.TransactionContextInterface, uint64, uint64) error, upc, amount uint64) error {
	return h.invoke(caller, func(ctx contractapi.TransactionContextInterface) error {
		return fn(ctx, upc, amount)
	})
}

// advanceTo drives a fresh item through the chain until it reaches target.
func (h *harness) advanceTo(upc uint64, target model.ItemState, price uint64) {
	h.t.Helper()
	c := h.cc
	require.NoError(h.t, h.harvest(farmerID, upc, "Farm "+fmt.Sprint(upc)))
	steps := []func() error{
		func() error { return h.step(farmerID, c.ProcessItem, upc) },
		func() error { return h.step(farmerID, c.PackItem, upc) },
		func() error { return h.pay(farmerID, c.SellItem, upc, price) },
		func() error { return h.pay(distributorID, c.BuyItem, upc, price) },
		func() error { return h.step(distributorID, c.ShipItem, upc) },
		func() error { return h.pay(retailerID, c.ReceiveItem, upc, price) },
		func() error { return h.pay(consumerID, c.PurchaseItem, upc, price) },
	}
	for i := 0; i < int(target); i++ {
		require.NoError(h.t, steps[i]())
	}
}
