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
	"testing"

	"github.com/stretchr/testify/require"

	samlsp "github.com/gravitational/samlsp"
)

func TestParseDocument(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{
			name: "well formed document",
			data: `<samlp:Response xmlns:samlp="urn:oasis:names:tc:SAML:2.0:protocol" ID="id-1"/>`,
		},
		{
			name:    "doctype rejected",
			data:    `<!DOCTYPE foo [<!ENTITY bar "baz">]><foo>&bar;</foo>`,
			wantErr: true,
		},
		{
			name:    "unbalanced markup rejected",
			data:    `<a><b></a>`,
			wantErr: true,
		},
		{
			name:    "trailing garbage rejected",
			data:    `<a></a></a>`,
			wantErr: true,
		},
		{
			name:    "empty input rejected",
			data:    ``,
			wantErr: true,
		},
		{
			name:    "no document element rejected",
			data:    `<!-- just a comment -->`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseDocument([]byte(tt.data))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, doc.Root())
		})
	}
}

func TestCheckIDUniqueness(t *testing.T) {
	t.Parallel()

	doc, err := ParseDocument([]byte(`<root ID="a"><child ID="b"><inner ID="c"/></child></root>`))
	require.NoError(t, err)
	require.NoError(t, CheckIDUniqueness(doc.Root()))

	doc, err = ParseDocument([]byte(`<root ID="a"><child ID="b"/><other><child ID="b"/></other></root>`))
	require.NoError(t, err)
	require.Error(t, CheckIDUniqueness(doc.Root()))
}

func TestFindChildIsDirect(t *testing.T) {
	t.Parallel()

	data := `<samlp:Response xmlns:samlp="urn:oasis:names:tc:SAML:2.0:protocol"` +
		` xmlns:saml="urn:oasis:names:tc:SAML:2.0:assertion">` +
		`<saml:Issuer>top</saml:Issuer>` +
		`<samlp:Status><saml:Issuer>nested</saml:Issuer></samlp:Status>` +
		`</samlp:Response>`
	doc, err := ParseDocument([]byte(data))
	require.NoError(t, err)
	root := doc.Root()

	// FindChild never descends: an element smuggled deeper in the tree
	// must not shadow a direct child.
	issuer := FindChild(root, samlsp.NamespaceAssertion, "Issuer")
	require.NotNil(t, issuer)
	require.Equal(t, "top", issuer.Text())

	require.Nil(t, FindChild(root, samlsp.NamespaceAssertion, "Absent"))
	require.Nil(t, FindChild(nil, samlsp.NamespaceAssertion, "Issuer"))

	require.Len(t, FindChildren(root, samlsp.NamespaceAssertion, "Issuer"), 1)
	require.Len(t, FindDescendants(root, samlsp.NamespaceAssertion, "Issuer"), 2)
}

func TestElementText(t *testing.T) {
	t.Parallel()

	doc, err := ParseDocument([]byte("<a>\n  padded value\n</a>"))
	require.NoError(t, err)
	require.Equal(t, "padded value", ElementText(doc.Root()))
	require.Empty(t, ElementText(nil))
}
