/*
Copyright Persona Chain Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package vc

// Format is the serialization family of a verifiable presentation.
type Format string

// OIDCFormat is the corresponding OpenID4VP format designation used in
// descriptor maps and client metadata.
type OIDCFormat string

const (
	Jwt Format = "jwt"
	Ldp Format = "ldp"
)

const (
	JwtVP = OIDCFormat("jwt_vp")
	LdpVP = OIDCFormat("ldp_vp")
)

var formatToOIDC = map[Format]OIDCFormat{
	Jwt: JwtVP,
	Ldp: LdpVP,
}

// OIDC maps a format to its OpenID4VP designation.
func (f Format) OIDC() OIDCFormat {
	return formatToOIDC[f]
}
