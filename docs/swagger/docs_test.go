package swagger

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartReconcileDescription(t *testing.T) {
	var doc struct {
		Paths map[string]map[string]struct {
			Description string `json:"description"`
		} `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(SwaggerInfo.ReadDoc()), &doc))

	post, ok := doc.Paths["/runs"]["post"]
	require.True(t, ok)
	assert.Contains(t, post.Description, "from the modified catalog")
	assert.NotContains(t, post.Description, "original catalog and")
}
