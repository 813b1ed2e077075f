package api

import _ "embed"

// OpenAPI is the document served to the Swagger UI.
//
//go:embed openapi.json
var OpenAPI []byte
