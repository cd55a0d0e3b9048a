package contract

import (
	"fmt"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric-contract-api-go/metadata"
	"github.com/hyperledger/fabric/common/flogging"
)

var logger = flogging.MustGetLogger("supplychain.contract")

// Object types for composite keys, also usable as 'docType' for CouchDB queries.
const (
	itemObjectType    = "Item"
	roleObjectType    = "RoleMember"
	balanceObjectType = "Balance"
	contractStateKey  = "ContractState"
)

// Constants for input validation and limits
const (
	maxAccountLength = 1024
	maxListedItems   = 1000 // Upper bound for unpaginated item listings
)

// ContractName is the name the contract is registered under in the chaincode.
const ContractName = "SupplyChainContract"

// SupplyChainContract tracks items through the farmer → distributor →
// retailer → consumer custody chain.
// @contract:SupplyChainContract
type SupplyChainContract struct {
	contractapi.Contract

	// AdminMSPID restricts InitLedger to clients of this MSP. Empty leaves
	// InitLedger open to the first caller.
	AdminMSPID string
}

// actorInfo holds commonly needed details about the transaction invoker.
type actorInfo struct {
	fullID string
	mspID  string
}

// NewSupplyChainContract returns the contract with its metadata and hooks set.
func NewSupplyChainContract() *SupplyChainContract {
	c := &SupplyChainContract{}
	c.Name = ContractName
	c.Info = metadata.InfoMetadata{
		Title:       "Supply chain custody ledger",
		Description: "Role-gated custody chain with escrowed payments and a circuit breaker",
		Version:     "1.0.0",
	}
	c.BeforeTransaction = beforeTransaction
	c.UnknownTransaction = unknownTransaction
	return c
}

// GetEvaluateTransactions lists the read-only functions so clients evaluate
// rather than submit them.
func (s *SupplyChainContract) GetEvaluateTransactions() []string {
	return []string{
		"Owner", "IsOwner", "IsStopped",
		"IsFarmer", "IsDistributor", "IsRetailer", "IsConsumer", "IsRole",
		"FetchItemBufferOne", "FetchItemBufferTwo", "FetchOriginData", "FetchProductData",
		"FetchItem", "FetchItemHistory", "GetAllItems", "GetItemsByOwner",
		"BalanceOf",
	}
}

func beforeTransaction(ctx contractapi.TransactionContextInterface) {
	fn, params := ctx.GetStub().GetFunctionAndParameters()
	logger.Debugf("Chaincode Call: %s (%d args) tx '%s'", fn, len(params), ctx.GetStub().GetTxID())
}

func unknownTransaction(ctx contractapi.TransactionContextInterface) error {
	fn, _ := ctx.GetStub().GetFunctionAndParameters()
	logger.Warningf("Unknown function '%s' invoked in tx '%s'", fn, ctx.GetStub().GetTxID())
	return fmt.Errorf("function '%s' is not defined on %s", fn, ContractName)
}
