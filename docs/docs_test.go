package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestReadDoc_FillsTemplate(t *testing.T) {
	var doc struct {
		BasePath string `json:"basePath"`
		Info     struct {
			Title   string `json:"title"`
			Version string `json:"version"`
		} `json:"info"`
		Paths map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(SwaggerInfo.ReadDoc()), &doc))

	assert.Equal(t, "/api", doc.BasePath)
	assert.Equal(t, "Garment Ledger API", doc.Info.Title)
	assert.Equal(t, "1.0", doc.Info.Version)
	assert.Contains(t, doc.Paths, "/issues")
	for path := range doc.Paths {
		assert.NotRegexp(t, `^/api/`, path, "las rutas son relativas a basePath")
	}
}

func TestRegistered(t *testing.T) {
	raw, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	require.NoError(t, err)
	assert.Contains(t, raw, `"basePath": "/api"`)
}
