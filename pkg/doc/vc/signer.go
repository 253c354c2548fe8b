/*
Copyright Persona Chain Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package vc

// SignerAlgorithm signs with the holder's key.
type SignerAlgorithm interface {
	Sign(data []byte) ([]byte, error)
	Alg() string
}

// Holder identifies the wallet owner and the key used for presentation
// proofs. KeyID is the DID URL of the verification method backing Signer.
type Holder struct {
	DID    string
	KeyID  string
	Signer SignerAlgorithm
}
