/*
Copyright Persona Chain Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package wallet provides the credential store bundled with the SDK. The
// presentation engine only depends on the store interface it declares; this
// implementation keeps credentials in an aries storage provider so callers
// can plug in mem, leveldb or any other backend.
package wallet

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/trustbloc/logutil-go/pkg/log"

	"github.com/persona-chain/wallet-sdk/internal/logfields"
	"github.com/persona-chain/wallet-sdk/pkg/doc/vc"
)

var logger = log.New("wallet-store")

const (
	credentialStoreName = "wallet_credentials"
	credentialTagName   = "credential"
)

// Store keeps the holder's credentials.
type Store struct {
	store storage.Store
}

// NewStore opens the credential store on the given provider.
func NewStore(provider storage.Provider) (*Store, error) {
	store, err := provider.OpenStore(credentialStoreName)
	if err != nil {
		return nil, fmt.Errorf("open credential store: %w", err)
	}

	err = provider.SetStoreConfig(credentialStoreName, storage.StoreConfiguration{
		TagNames: []string{credentialTagName},
	})
	if err != nil {
		return nil, fmt.Errorf("configure credential store: %w", err)
	}

	return &Store{store: store}, nil
}

// Add stores a credential document. Credentials without an id are keyed by
// the digest of their content.
func (s *Store) Add(credential *vc.Credential) error {
	raw, err := credential.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}

	key := credential.ID
	if key == "" {
		digest := sha256.Sum256(raw)
		key = hex.EncodeToString(digest[:])
	}

	if err = s.store.Put(key, raw, storage.Tag{Name: credentialTagName}); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}

	logger.Debug("stored credential", logfields.WithCredentialID(key))

	return nil
}

// Get returns the credential stored under the given id.
func (s *Store) Get(id string) (*vc.Credential, error) {
	raw, err := s.store.Get(id)
	if err != nil {
		return nil, fmt.Errorf("get credential %q: %w", id, err)
	}

	return vc.ParseCredential(raw)
}

// List returns all stored credentials.
func (s *Store) List(_ context.Context) ([]*vc.Credential, error) {
	iter, err := s.store.Query(credentialTagName)
	if err != nil {
		return nil, fmt.Errorf("query credentials: %w", err)
	}

	defer func() {
		_ = iter.Close()
	}()

	var credentials []*vc.Credential

	for {
		ok, err := iter.Next()
		if err != nil {
			return nil, fmt.Errorf("iterate credentials: %w", err)
		}

		if !ok {
			break
		}

		raw, err := iter.Value()
		if err != nil {
			return nil, fmt.Errorf("read credential: %w", err)
		}

		credential, err := vc.ParseCredential(raw)
		if err != nil {
			return nil, err
		}

		credentials = append(credentials, credential)
	}

	logger.Debug("listed credentials", logfields.WithCredentialCount(len(credentials)))

	return credentials, nil
}

// Delete removes the credential stored under the given id.
func (s *Store) Delete(id string) error {
	if err := s.store.Delete(id); err != nil {
		return fmt.Errorf("delete credential %q: %w", id, err)
	}

	return nil
}
