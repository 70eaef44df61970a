package trie

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemID_PreferenceOrder(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want string
	}{
		{"id", Record{"id": "a", "Id": "b", "ID": "c"}, "a"},
		{"Id", Record{"Id": "b", "ID": "c"}, "b"},
		{"ID", Record{"ID": "c", "OrganizationId": "d"}, "c"},
		{"OrganizationId", Record{"OrganizationId": "d", "Index": 7}, "d"},
		{"Index", Record{"Index": 7}, "7"},
		{"skips empty", Record{"id": "", "ID": "c"}, "c"},
		{"skips nil", Record{"id": nil, "Index": 3}, "3"},
		{"float", Record{"id": 5.0}, "5"},
		{"int", Record{"id": 5}, "5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ItemID(tt.rec))
		})
	}
}

func TestItemID_HashFallback(t *testing.T) {
	a := ItemID(Record{"name": "Apple", "color": "red"})
	b := ItemID(Record{"color": "red", "name": "Apple"})
	c := ItemID(Record{"name": "Apple", "color": "green"})

	assert.True(t, strings.HasPrefix(a, "h"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestItemID_StableAcrossJSON(t *testing.T) {
	recs := []Record{
		{"name": "Apple", "qty": 5, "tags": []any{"x", "y"}},
		{"id": 12, "name": "Pear"},
		{"nested": map[string]any{"b": 1, "a": true}},
	}
	for _, rec := range recs {
		b, err := json.Marshal(rec)
		require.NoError(t, err)

		var back Record
		require.NoError(t, json.Unmarshal(b, &back))
		assert.Equal(t, ItemID(rec), ItemID(back))
	}
}
