// Package docs встраивает OpenAPI-описание API для /swagger.
package docs

import _ "embed"

//go:embed swagger.json
var SwaggerJSON []byte
