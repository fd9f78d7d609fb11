package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponse(t *testing.T) {
	raw, err := ParseResponse(`{
		"entities": [{"name": "Customer", "attributes": [{"name": "id", "type": "integer"}]}],
		"relationships": [{"from": "Customer", "to": "Invoice", "type": "one_to_many"}],
		"table_data": [{"table": "Customer", "rows": [{"id": 1}]}]
	}`)
	require.NoError(t, err)
	require.Len(t, raw.Entities, 1)
	assert.Equal(t, "Customer", raw.Entities[0].Name)
	require.Len(t, raw.Relationships, 1)
	assert.Equal(t, "one_to_many", raw.Relationships[0].Type)
	require.Len(t, raw.TableData, 1)
	assert.Equal(t, float64(1), raw.TableData[0].Rows[0]["id"])
}

func TestParseResponseWithCodeFence(t *testing.T) {
	raw, err := ParseResponse("```json\n{\"entities\": [{\"name\": \"Order\"}], \"relationships\": []}\n```")
	require.NoError(t, err)
	require.Len(t, raw.Entities, 1)
	assert.Equal(t, "Order", raw.Entities[0].Name)
}

func TestParseResponseInvalidJSON(t *testing.T) {
	_, err := ParseResponse("Sure! Here is the schema you asked for.")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid JSON")
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, StripCodeFence("```json\n{\"a\": 1}\n```"))
	assert.Equal(t, `{"a": 1}`, StripCodeFence("```\n{\"a\": 1}\n```"))
	assert.Equal(t, `{"a": 1}`, StripCodeFence(`{"a": 1}`))
	assert.Equal(t, "plain text", StripCodeFence("plain text"))
}
