// Package openapi embeds the OpenAPI document served by the HTTP API.
package openapi

import _ "embed"

// Users is the OpenAPI 3 document describing the /users endpoints.
//
//go:embed users.json
var Users []byte
