/*
SPDX-License-Identifier: Apache-2.0
*/

package ledger

import (
	"fmt"

	"github.com/nandlab/fabric-listings/chaincode-go/internal/protocol"
)

const metadataObjectType = "metadata"

// AssetMetadata describes a non-fungible or semi-fungible mint. Collection is
// empty for standalone assets and for collection mints themselves.
type AssetMetadata struct {
	Mint       string `json:"mint"`
	Collection string `json:"collection,omitempty"`
	Name       string `json:"name,omitempty"`
	URI        string `json:"uri,omitempty"`
}

// HasCollection reports whether the asset belongs to a collection.
func (m *AssetMetadata) HasCollection() bool {
	return m.Collection != ""
}

// FindMetadata loads the metadata of mint and reports whether it exists.
func (tx *Tx) FindMetadata(mint string) (*AssetMetadata, bool, error) {
	key, err := tx.Key(metadataObjectType, mint)
	if err != nil {
		return nil, false, err
	}
	var metadata AssetMetadata
	found, err := tx.Get(key, &metadata)
	if err != nil {
		return nil, false, fmt.Errorf("could not get metadata of %s: %w", mint, err)
	}
	if !found {
		return nil, false, nil
	}
	return &metadata, true, nil
}

// Metadata loads the metadata of mint.
func (tx *Tx) Metadata(mint string) (*AssetMetadata, error) {
	metadata, found, err := tx.FindMetadata(mint)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("metadata of %s: %w", mint, protocol.ErrMetadataNotFound)
	}
	return metadata, nil
}

// CreateMetadata stores the metadata of a new mint.
func (tx *Tx) CreateMetadata(metadata *AssetMetadata) error {
	if metadata.Mint == "" {
		return fmt.Errorf("metadata mint cannot be empty")
	}
	_, found, err := tx.FindMetadata(metadata.Mint)
	if err != nil {
		return err
	}
	if found {
		return fmt.Errorf("metadata of %s: %w", metadata.Mint, protocol.ErrMetadataAlreadyExists)
	}
	key, err := tx.Key(metadataObjectType, metadata.Mint)
	if err != nil {
		return err
	}
	return tx.Put(key, metadata)
}
