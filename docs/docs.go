// Package docs holds the OpenAPI description of the HTTP API.
package docs

import _ "embed"

//go:embed swagger.json
var SwaggerJSON []byte
