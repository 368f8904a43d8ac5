/*
SPDX-License-Identifier: Apache-2.0
*/

package listings

import (
	"encoding/pem"
	"fmt"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"

	"github.com/nandlab/fabric-listings/chaincode-go/internal/ledger"
	"github.com/nandlab/fabric-listings/chaincode-go/internal/protocol"
)

// getSubmittingClientIdentity returns the unique id of the submitting client,
// which is the account name used throughout the ledger
func getSubmittingClientIdentity(ctx contractapi.TransactionContextInterface) (string, error) {
	clientID, err := ctx.GetClientIdentity().GetID()
	if err != nil {
		return "", fmt.Errorf("failed to read clientID: %v: %w", err, protocol.ErrInvalidCallerIdentity)
	}
	if clientID == "" {
		return "", protocol.ErrInvalidCallerIdentity
	}
	return clientID, nil
}

// certDerToPem converts a certificate from binary DER to PEM text format
func certDerToPem(derCert []byte) string {
	pemCertBytes := pem.EncodeToMemory(&pem.Block{
		Type:  "CERTIFICATE",
		Bytes: derCert,
	})
	return string(pemCertBytes)
}

// setSummaryEvent sets an event about the listing which can be received by contract users
func setSummaryEvent(tx *ledger.Tx, name string, summary *ListingSummary) error {
	if summary == nil {
		return fmt.Errorf("summary cannot be nil")
	}
	return tx.SetEvent(name, summary)
}
