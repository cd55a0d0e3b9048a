package contract

import (
	"errors"
	"reflect"
	"strings"

	"supplychain/model"

	"github.com/go-playground/validator/v10"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names, as clients send them.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateHarvestData converts validator failures into an InvalidInput error
// naming the first offending field.
func validateHarvestData(data *model.HarvestData) error {
	err := validate.Struct(data)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Param() != "" {
			return newError(KindInvalidInput, "invalid harvest data: field '%s' failed '%s=%s'", fe.Field(), fe.Tag(), fe.Param())
		}
		return newError(KindInvalidInput, "invalid harvest data: field '%s' failed '%s'", fe.Field(), fe.Tag())
	}
	return newError(KindInvalidInput, "invalid harvest data: %v", err)
}

// --- Lifecycle: Farmer Operations ---

// HarvestItem creates a new item in state Harvested owned by the calling
// farmer, and assigns it the next SKU.
func (s *SupplyChainContract) HarvestItem(ctx contractapi.TransactionContextInterface, data model.HarvestData) error {
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
	if err := NewRoleRegistry(ctx, model.RoleFarmer).RequireMember(actor.fullID); err != nil {
		return err
	}
	if err := validateHarvestData(&data); err != nil {
		return err
	}

	logger.Infof("Farmer '%s' harvesting item %d at '%s'", actor.fullID, data.UPC, data.OriginFarmName)

	exists, err := s.itemExists(ctx, data.UPC)
	if err != nil {
		return err
	}
	if exists {
		return newError(KindDuplicateUPC, "Item with UPC %d already exists", data.UPC)
	}

	now, err := s.getCurrentTxTime(ctx)
	if err != nil {
		return err
	}
	state.SKUCount++
	state.UpdatedAt = now

	item := &model.Item{
		ObjectType:            itemObjectType,
		SKU:                   state.SKUCount,
		UPC:                   data.UPC,
		OwnerID:               actor.fullID,
		CreatedAt:             now,
		OriginFarmerID:        actor.fullID,
		OriginFarmName:        data.OriginFarmName,
		OriginFarmInformation: data.OriginFarmInformation,
		OriginFarmLatitude:    data.OriginFarmLatitude,
		OriginFarmLongitude:   data.OriginFarmLongitude,
		ProductID:             state.SKUCount,
		ProductNotes:          data.ProductNotes,
		History:               []string{},
	}
	advance(item, model.StateHarvested, now)

	if err := putContractState(ctx, state); err != nil {
		return err
	}
	if err := s.putItem(ctx, item); err != nil {
		return err
	}

	if err := s.emitItemEvent(ctx, model.StateHarvested.String(), item, actor, map[string]interface{}{"originFarmName": item.OriginFarmName}); err != nil {
		return err
	}
	logger.Infof("Item %d harvested with SKU %d by farmer '%s'", item.UPC, item.SKU, actor.fullID)
	return nil
}

// ProcessItem moves an item from Harvested to Processed.
func (s *SupplyChainContract) ProcessItem(ctx contractapi.TransactionContextInterface, upc uint64) error {
	_, err := s.runTransition(ctx, upc, 0, transition{
		name:      "ProcessItem",
		role:      model.RoleFarmer,
		from:      model.StateHarvested,
		authorize: onlyOriginFarmer("process"),
		apply:     noChange,
	})
	return err
}

// PackItem moves an item from Processed to Packed.
func (s *SupplyChainContract) PackItem(ctx contractapi.TransactionContextInterface, upc uint64) error {
	_, err := s.runTransition(ctx, upc, 0, transition{
		name:      "PackItem",
		role:      model.RoleFarmer,
		from:      model.StateProcessed,
		authorize: onlyOriginFarmer("pack"),
		apply:     noChange,
	})
	return err
}

// SellItem fixes the price and offers a packed item to distributors. The
// price cannot change afterwards.
func (s *SupplyChainContract) SellItem(ctx contractapi.TransactionContextInterface, upc uint64, price uint64) error {
	_, err := s.runTransition(ctx, upc, 0, transition{
		name: "SellItem",
		role: model.RoleFarmer,
		from: model.StatePacked,
		validate: func() error {
			if price == 0 {
				return newError(KindInvalidInput, "price must be greater than zero")
			}
			return nil
		},
		authorize: onlyOriginFarmer("sell"),
		apply: func(item *model.Item, _ *actorInfo) {
			item.ProductPrice = price
		},
	})
	return err
}
