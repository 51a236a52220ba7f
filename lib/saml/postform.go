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

package saml

import (
	"bytes"
	"html/template"

	"github.com/gravitational/trace"

	"github.com/gravitational/samlsp/lib/xmlsec"
)

// BuildPostForm renders the self submitting HTML form of the HTTP-POST
// binding, carrying one base64 encoded message to action. The parameter
// names the hidden field, SAMLRequest or SAMLResponse. RelayState is
// included when non-empty.
func BuildPostForm(action, parameter, payload, relayState string) ([]byte, error) {
	if action == "" {
		return nil, trace.BadParameter("missing parameter action")
	}
	if payload == "" {
		return nil, trace.BadParameter("missing parameter payload")
	}
	if parameter != xmlsec.QuerySAMLRequest && parameter != xmlsec.QuerySAMLResponse {
		return nil, trace.BadParameter("parameter must be %v or %v, got %q",
			xmlsec.QuerySAMLRequest, xmlsec.QuerySAMLResponse, parameter)
	}

	htmlBuf := bytes.NewBuffer(nil)
	err := postFormTemplate.Execute(htmlBuf, postFormData{
		Action:     action,
		Parameter:  parameter,
		Payload:    payload,
		RelayState: relayState,
	})
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return htmlBuf.Bytes(), nil
}

type postFormData struct {
	Action     string
	Parameter  string
	Payload    string
	RelayState string
}

var postFormTemplate = template.Must(template.New("saml-post-form").Parse(`
<!doctype html>
<html>
 <head><title>SAML Service Provider</title></head>
 <body onload="document.forms[0].submit()">
  <noscript>
      <p>
        <strong>Note:</strong> Your browser does not support JavaScript,
        you must press the Continue button to proceed.
      </p>
  </noscript>
  <form method="post" action="{{.Action}}">
   <input type="hidden" name="{{.Parameter}}" value="{{.Payload}}">
{{- if .RelayState}}
   <input type="hidden" name="RelayState" value="{{.RelayState}}">
{{- end}}
   <noscript><input type="submit" value="Continue"></noscript>
  </form>
 </body>
</html>
`))
