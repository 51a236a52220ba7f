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

// Package xmlsec implements the XML security layer of the service provider:
// hardened parsing of untrusted documents, enveloped XML signatures over
// canonicalized fragments, Redirect binding query string signatures, and
// XML encryption of assertions and name identifiers.
package xmlsec

import (
	"bytes"
	"strings"

	"github.com/beevik/etree"
	"github.com/gravitational/trace"
	xrv "github.com/mattermost/xml-roundtrip-validator"
)

// ParseDocument parses untrusted XML. Documents carrying DOCTYPE
// declarations are refused outright, which removes external entity and
// entity expansion attacks, and the input must survive round-trip
// validation so that no two parsers can disagree about its structure.
func ParseDocument(data []byte) (*etree.Document, error) {
	if len(data) == 0 {
		return nil, trace.BadParameter("empty XML document")
	}
	if err := xrv.Validate(bytes.NewReader(data)); err != nil {
		return nil, trace.Wrap(err, "XML failed round-trip validation")
	}
	doc := etree.NewDocument()
	doc.ReadSettings.ValidateInput = true
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, trace.Wrap(err, "failed to parse XML")
	}
	if doc.Root() == nil {
		return nil, trace.BadParameter("XML document has no root element")
	}
	if err := rejectDirectives(doc.Child); err != nil {
		return nil, trace.Wrap(err)
	}
	return doc, nil
}

func rejectDirectives(tokens []etree.Token) error {
	for _, token := range tokens {
		switch t := token.(type) {
		case *etree.Directive:
			return trace.BadParameter("document type declarations are not allowed")
		case *etree.Element:
			if err := rejectDirectives(t.Child); err != nil {
				return err
			}
		}
	}
	return nil
}

// CheckIDUniqueness rejects trees in which the same ID attribute value
// appears on more than one element. Duplicate IDs let a forged element
// satisfy a signature reference meant for another.
func CheckIDUniqueness(root *etree.Element) error {
	seen := make(map[string]struct{})
	var walk func(el *etree.Element) error
	walk = func(el *etree.Element) error {
		if id := el.SelectAttrValue("ID", ""); id != "" {
			if _, dup := seen[id]; dup {
				return trace.BadParameter("duplicate ID %q in document", id)
			}
			seen[id] = struct{}{}
		}
		for _, child := range el.ChildElements() {
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}
	if root == nil {
		return nil
	}
	return walk(root)
}

// FindChild returns the first direct child of el with the given namespace
// URI and local tag, or nil. Direct child lookup is deliberate: depth-first
// searches are what signature wrapping attacks exploit.
func FindChild(el *etree.Element, namespace, tag string) *etree.Element {
	if el == nil {
		return nil
	}
	for _, child := range el.ChildElements() {
		if child.Tag == tag && child.NamespaceURI() == namespace {
			return child
		}
	}
	return nil
}

// FindChildren returns all direct children of el with the given namespace
// URI and local tag.
func FindChildren(el *etree.Element, namespace, tag string) []*etree.Element {
	if el == nil {
		return nil
	}
	var out []*etree.Element
	for _, child := range el.ChildElements() {
		if child.Tag == tag && child.NamespaceURI() == namespace {
			out = append(out, child)
		}
	}
	return out
}

// FindDescendants returns all elements below el, in document order, with
// the given namespace URI and local tag.
func FindDescendants(el *etree.Element, namespace, tag string) []*etree.Element {
	if el == nil {
		return nil
	}
	var out []*etree.Element
	for _, child := range el.ChildElements() {
		if child.Tag == tag && child.NamespaceURI() == namespace {
			out = append(out, child)
		}
		out = append(out, FindDescendants(child, namespace, tag)...)
	}
	return out
}

// ElementText returns the trimmed text of el, or empty when el is nil.
func ElementText(el *etree.Element) string {
	if el == nil {
		return ""
	}
	return strings.TrimSpace(el.Text())
}
