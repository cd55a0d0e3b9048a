package contract

import (
	"encoding/json"
	"math"
	"sort"

	"supplychain/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// Settlement is the outcome of matching an attached payment against a price.
type Settlement struct {
	Price    uint64 `json:"price"`
	Paid     uint64 `json:"paid"`
	Transfer uint64 `json:"transfer"` // Forwarded to the seller, always Price
	Refund   uint64 `json:"refund"`   // Returned to the payer, Paid - Price
}

// Settle computes how a payment is split. It touches no state.
func Settle(price, paid uint64) (Settlement, error) {
	if paid < price {
		return Settlement{}, newError(KindInsufficientPayment, "Not enough ether provided")
	}
	return Settlement{Price: price, Paid: paid, Transfer: price, Refund: paid - price}, nil
}

// balanceSheet stages balance changes for one transaction. Each account is
// read from the world state at most once and written at most once on commit,
// so a payer that is also the payee nets out correctly.
type balanceSheet struct {
	ctx      contractapi.TransactionContextInterface
	balances map[string]uint64
}

func newBalanceSheet(ctx contractapi.TransactionContextInterface) *balanceSheet {
	return &balanceSheet{ctx: ctx, balances: make(map[string]uint64)}
}

func (b *balanceSheet) balance(account string) (uint64, error) {
	if v, ok := b.balances[account]; ok {
		return v, nil
	}
	v, err := readBalance(b.ctx, account)
	if err != nil {
		return 0, err
	}
	b.balances[account] = v
	return v, nil
}

func (b *balanceSheet) debit(account string, amount uint64) error {
	v, err := b.balance(account)
	if err != nil {
		return err
	}
	if v < amount {
		return newError(KindInsufficientFunds, "balance of '%s' is %d, %d required", account, v, amount)
	}
	b.balances[account] = v - amount
	return nil
}

func (b *balanceSheet) credit(account string, amount uint64) error {
	v, err := b.balance(account)
	if err != nil {
		return err
	}
	if v > math.MaxUint64-amount {
		return newError(KindInvalidInput, "balance of '%s' would overflow", account)
	}
	b.balances[account] = v + amount
	return nil
}

// apply escrows the attached payment from payer, forwards the price to payee
// and refunds the excess. Nothing is written until commit.
func (b *balanceSheet) apply(payer, payee string, s Settlement) error {
	if err := b.debit(payer, s.Paid); err != nil {
		return err
	}
	if err := b.credit(payee, s.Transfer); err != nil {
		return err
	}
	return b.credit(payer, s.Refund)
}

// commit writes every touched account in sorted order.
func (b *balanceSheet) commit() error {
	accounts := make([]string, 0, len(b.balances))
	for a := range b.balances {
		accounts = append(accounts, a)
	}
	sort.Strings(accounts)
	for _, a := range accounts {
		if err := writeBalance(b.ctx, a, b.balances[a]); err != nil {
			return err
		}
	}
	return nil
}

func readBalance(ctx contractapi.TransactionContextInterface, account string) (uint64, error) {
	key, err := createBalanceCompositeKey(ctx, account)
	if err != nil {
		return 0, internalError(err, "failed to create balance key for '%s'", account)
	}
	raw, err := ctx.GetStub().GetState(key)
	if err != nil {
		return 0, internalError(err, "failed to read balance of '%s'", account)
	}
	if raw == nil {
		return 0, nil
	}
	var bal model.AccountBalance
	if err := json.Unmarshal(raw, &bal); err != nil {
		return 0, internalError(err, "failed to unmarshal balance of '%s'", account)
	}
	return bal.Amount, nil
}

func writeBalance(ctx contractapi.TransactionContextInterface, account string, amount uint64) error {
	key, err := createBalanceCompositeKey(ctx, account)
	if err != nil {
		return internalError(err, "failed to create balance key for '%s'", account)
	}
	raw, err := json.Marshal(model.AccountBalance{ObjectType: balanceObjectType, Account: account, Amount: amount})
	if err != nil {
		return internalError(err, "failed to marshal balance of '%s'", account)
	}
	if err := ctx.GetStub().PutState(key, raw); err != nil {
		return internalError(err, "failed to save balance of '%s'", account)
	}
	return nil
}

// Mint credits amount to account. Owner only, gated by the circuit breaker.
func (s *SupplyChainContract) Mint(ctx contractapi.TransactionContextInterface, account string, amount uint64) error {
	state, err := loadContractState(ctx)
	if err != nil {
		return err
	}
	if err := requireActive(state); err != nil {
		return err
	}
	actor, err := s.getCurrentActorInfo(ctx)
	if err != nil {
		return err
	}
	if err := requireOwner(state, actor); err != nil {
		return err
	}
	if err := validateAccount(account); err != nil {
		return err
	}
	if amount == 0 {
		return newError(KindInvalidInput, "mint amount must be greater than zero")
	}
	sheet := newBalanceSheet(ctx)
	if err := sheet.credit(account, amount); err != nil {
		return err
	}
	if err := sheet.commit(); err != nil {
		return err
	}
	if err := s.emitEvent(ctx, "Minted", actor, map[string]interface{}{"account": account, "amount": amount}); err != nil {
		return err
	}
	logger.Infof("Minted %d to '%s'", amount, account)
	return nil
}

// BalanceOf returns the spendable balance of account; unknown accounts hold 0.
func (s *SupplyChainContract) BalanceOf(ctx contractapi.TransactionContextInterface, account string) (uint64, error) {
	logger.Debugf("BalanceOf called for '%s'", account)
	return readBalance(ctx, account)
}
