/*
 * samlsp
 * Copyright (C) 2026  Gravitational, Inc.
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

package xmlsec

import (
	"github.com/beevik/etree"
	"github.com/gravitational/trace"
	dsig "github.com/russellhaering/goxmldsig"

	samlsp "github.com/gravitational/samlsp"
)

// SignerConfig describes how outbound messages are signed.
type SignerConfig struct {
	// KeyStore holds the SP signing key and certificate.
	KeyStore dsig.X509KeyStore
	// SignatureAlgorithm is the XML signature method URI.
	SignatureAlgorithm string
	// DigestAlgorithm is the reference digest method URI.
	DigestAlgorithm string
	// Canonicalization selects the canonicalization method URI. Exclusive
	// C14N without comments when empty.
	Canonicalization string
}

// CheckAndSetDefaults validates the config and fills in defaults.
func (c *SignerConfig) CheckAndSetDefaults() error {
	if c.KeyStore == nil {
		return trace.BadParameter("missing parameter KeyStore")
	}
	if c.SignatureAlgorithm == "" {
		c.SignatureAlgorithm = samlsp.SignatureRSASHA256
	}
	if c.DigestAlgorithm == "" {
		c.DigestAlgorithm = samlsp.DigestSHA256
	}
	if c.Canonicalization == "" {
		c.Canonicalization = samlsp.CanonicalizationExclusive
	}
	return nil
}

// NewSigningContext assembles a signing context for enveloped signatures
// from the config.
func NewSigningContext(cfg SignerConfig) (*dsig.SigningContext, error) {
	if err := cfg.CheckAndSetDefaults(); err != nil {
		return nil, trace.Wrap(err)
	}
	ctx := dsig.NewDefaultSigningContext(cfg.KeyStore)
	if err := ctx.SetSignatureMethod(cfg.SignatureAlgorithm); err != nil {
		return nil, trace.Wrap(err)
	}
	hash, err := DigestHash(cfg.DigestAlgorithm)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	ctx.Hash = hash
	switch cfg.Canonicalization {
	case samlsp.CanonicalizationExclusive:
		ctx.Canonicalizer = dsig.MakeC14N10ExclusiveCanonicalizerWithPrefixList("")
	case samlsp.CanonicalizationExclusiveWithComments:
		ctx.Canonicalizer = dsig.MakeC14N10ExclusiveWithCommentsCanonicalizerWithPrefixList("")
	default:
		return nil, trace.BadParameter("unsupported canonicalization method %q", cfg.Canonicalization)
	}
	return ctx, nil
}

// SignEnveloped signs el and returns a copy carrying the signature. The
// signature element is inserted directly after the Issuer child when one
// exists, the position the SAML schema assigns to it; placement does not
// affect the digest because the enveloped transform removes the signature
// before digesting.
func SignEnveloped(el *etree.Element, cfg SignerConfig) (*etree.Element, error) {
	ctx, err := NewSigningContext(cfg)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	sig, err := ctx.ConstructSignature(el, true)
	if err != nil {
		return nil, trace.Wrap(err)
	}

	ret := el.Copy()
	pos := 0
	for i, child := range ret.Child {
		ce, ok := child.(*etree.Element)
		if ok && ce.Tag == "Issuer" && ce.NamespaceURI() == samlsp.NamespaceAssertion {
			pos = i + 1
			break
		}
	}
	children := make([]etree.Token, 0, len(ret.Child)+1)
	children = append(children, ret.Child[:pos]...)
	children = append(children, sig)
	children = append(children, ret.Child[pos:]...)
	ret.Child = children
	return ret, nil
}
