/*
Copyright Persona Chain Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package credentialstore persists wallet credentials in MongoDB. It offers
// the same surface as the in-memory wallet store, so either can back the
// presentation engine.
package credentialstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/hyperledger/aries-framework-go/spi/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/persona-chain/wallet-sdk/pkg/doc/vc"
	"github.com/persona-chain/wallet-sdk/pkg/storage/mongodb"
)

const (
	credentialCollectionName = "wallet_credentials"
	credentialIDFieldName    = "credentialId"
)

// Store manages wallet credentials in mongodb. Credential documents are
// stored verbatim as JSON text, keyed by credential id.
type Store struct {
	mongoClient *mongodb.Client
}

// NewStore creates Store.
func NewStore(mongoClient *mongodb.Client) *Store {
	return &Store{mongoClient: mongoClient}
}

type credentialDocument struct {
	CredentialID string `bson:"credentialId"`
	Credential   string `bson:"credential"`
}

// Add stores a credential document, replacing any previous document with the
// same id. Credentials without an id are keyed by the digest of their content.
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

	ctxWithTimeout, cancel := s.mongoClient.ContextWithTimeout()
	defer cancel()

	collection := s.mongoClient.Database().Collection(credentialCollectionName)

	_, err = collection.ReplaceOne(ctxWithTimeout,
		bson.D{{Key: credentialIDFieldName, Value: key}},
		&credentialDocument{CredentialID: key, Credential: string(raw)},
		mongooptions.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("store credential: %w", err)
	}

	return nil
}

// Get returns the credential stored under the given id.
func (s *Store) Get(id string) (*vc.Credential, error) {
	ctxWithTimeout, cancel := s.mongoClient.ContextWithTimeout()
	defer cancel()

	collection := s.mongoClient.Database().Collection(credentialCollectionName)

	var doc credentialDocument

	err := collection.FindOne(ctxWithTimeout,
		bson.D{{Key: credentialIDFieldName, Value: id}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, storage.ErrDataNotFound
		}

		return nil, fmt.Errorf("get credential %q: %w", id, err)
	}

	return vc.ParseCredential([]byte(doc.Credential))
}

// List returns all stored credentials.
func (s *Store) List(ctx context.Context) ([]*vc.Credential, error) {
	collection := s.mongoClient.Database().Collection(credentialCollectionName)

	cursor, err := collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("query credentials: %w", err)
	}

	defer func() {
		_ = cursor.Close(ctx)
	}()

	var credentials []*vc.Credential

	for cursor.Next(ctx) {
		var doc credentialDocument

		if err = cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("read credential: %w", err)
		}

		credential, err := vc.ParseCredential([]byte(doc.Credential))
		if err != nil {
			return nil, err
		}

		credentials = append(credentials, credential)
	}

	if err = cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate credentials: %w", err)
	}

	return credentials, nil
}

// Delete removes the credential stored under the given id.
func (s *Store) Delete(id string) error {
	ctxWithTimeout, cancel := s.mongoClient.ContextWithTimeout()
	defer cancel()

	collection := s.mongoClient.Database().Collection(credentialCollectionName)

	_, err := collection.DeleteOne(ctxWithTimeout,
		bson.D{{Key: credentialIDFieldName, Value: id}})
	if err != nil {
		return fmt.Errorf("delete credential %q: %w", id, err)
	}

	return nil
}
