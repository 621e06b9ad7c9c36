// Package docs registra la especificación OpenAPI servida en /docs.
//
// swagger.json es la plantilla que rellena ReadDoc (título, versión, host y basePath salen de
// SwaggerInfo). Regenerar desde las anotaciones de los handlers con go generate.
package docs

//go:generate swag init --dir ../ --generalInfo cmd/api/main.go --output . --outputTypes json

import (
	_ "embed"

	"github.com/swaggo/swag"
)

//go:embed swagger.json
var docTemplate string

// SwaggerInfo metadatos de la API; ReadDoc devuelve la especificación completa.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Garment Ledger API",
	Description:      "Libro de consumo de inventario: salidas, producción y estampado.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
