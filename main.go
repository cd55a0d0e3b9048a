package main

import (
	"fmt"
	"os"

	"supplychain/config"
	"supplychain/contract"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric/common/flogging"
)

var logger = flogging.MustGetLogger("supplychain.main")

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Error loading chaincode config: " + err.Error())
	}
	flogging.ActivateSpec(cfg.LogLevel)

	supplyChain := contract.NewSupplyChainContract()
	supplyChain.AdminMSPID = cfg.AdminMSPID
	if cfg.AdminMSPID == "" {
		logger.Warning("CHAINCODE_ADMIN_MSPID is not set; any client can claim ownership through InitLedger")
	}

	cc, err := contractapi.NewChaincode(supplyChain)
	if err != nil {
		panic("Error creating SupplyChainContract: " + err.Error())
	}
	cc.Info.Title = "supplychain"
	cc.Info.Version = "1.0.0"
	cc.DefaultContract = contract.ContractName

	if !cfg.ServerMode() {
		if err := cc.Start(); err != nil {
			panic("Error starting chaincode: " + err.Error())
		}
		return
	}

	tlsProps, err := tlsProperties(cfg)
	if err != nil {
		panic("Error reading chaincode TLS material: " + err.Error())
	}
	server := &shim.ChaincodeServer{
		CCID:     cfg.ChaincodeID,
		Address:  cfg.ServerAddress,
		CC:       cc,
		TLSProps: tlsProps,
	}
	logger.Infof("Starting chaincode service '%s' on %s (tls disabled: %t)", cfg.ChaincodeID, cfg.ServerAddress, cfg.TLSDisabled)
	if err := server.Start(); err != nil {
		panic("Error starting chaincode server: " + err.Error())
	}
}

func tlsProperties(cfg config.Config) (shim.TLSProperties, error) {
	if cfg.TLSDisabled {
		return shim.TLSProperties{Disabled: true}, nil
	}
	key, err := os.ReadFile(cfg.TLSKeyPath)
	if err != nil {
		return shim.TLSProperties{}, fmt.Errorf("read tls key: %w", err)
	}
	cert, err := os.ReadFile(cfg.TLSCertPath)
	if err != nil {
		return shim.TLSProperties{}, fmt.Errorf("read tls cert: %w", err)
	}
	props := shim.TLSProperties{Key: key, Cert: cert}
	if cfg.ClientCAPath != "" {
		ca, err := os.ReadFile(cfg.ClientCAPath)
		if err != nil {
			return shim.TLSProperties{}, fmt.Errorf("read client ca cert: %w", err)
		}
		props.ClientCACerts = ca
	}
	return props, nil
}
