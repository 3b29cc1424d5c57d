package siteconfig

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeImportRequiresProductsArray(t *testing.T) {
	_, err := DecodeImport([]byte(`{"version":"1.0"}`))
	assert.ErrorIs(t, err, ErrBadImport)

	_, err = DecodeImport([]byte(`{"products":{"id":1}}`))
	assert.ErrorIs(t, err, ErrBadImport)

	_, err = DecodeImport([]byte(`nope`))
	assert.ErrorIs(t, err, ErrBadImport)

	env, err := DecodeImport([]byte(`{"version":"1.0","products":[{"id":1,"name":"A"}]}`))
	require.NoError(t, err)
	assert.Len(t, env.Products, 1)
}

func TestMergeProductsOverlaysAndAppends(t *testing.T) {
	now := time.UnixMilli(5000).UTC()
	existing := []Product{
		{ID: 1, Name: "Phone", Price: "100", Category: "phones", Features: []string{"5G"}},
	}
	imported := []json.RawMessage{
		json.RawMessage(`{"id":1,"price":"90"}`),
		json.RawMessage(`{"name":"Charger","price":"20"}`),
		json.RawMessage(`{"id":42,"name":"Case"}`),
	}

	out, res, err := MergeProducts(existing, imported, now)
	require.NoError(t, err)
	assert.Equal(t, MergeResult{Added: 2, Updated: 1}, res)
	require.Len(t, out, 3)

	// Untouched fields survive the overlay.
	assert.Equal(t, Price("90"), out[0].Price)
	assert.Equal(t, "Phone", out[0].Name)
	assert.Equal(t, "phones", out[0].Category)
	assert.Equal(t, []string{"5G"}, out[0].Features)
	require.NotNil(t, out[0].DateUpdated)

	assert.Equal(t, ProductID(5000), out[1].ID)
	require.NotNil(t, out[1].DateAdded)
	assert.Equal(t, StatusActive, out[1].Status)

	assert.Equal(t, ProductID(42), out[2].ID)

	// The input slice is not modified.
	assert.Equal(t, Price("100"), existing[0].Price)
}

func TestMergeProductsBadEntry(t *testing.T) {
	_, _, err := MergeProducts(nil, []json.RawMessage{json.RawMessage(`"x"`)}, time.Now())
	assert.ErrorIs(t, err, ErrBadImport)
}

func TestApplyPatchKeepsIdentity(t *testing.T) {
	added := time.UnixMilli(1)
	base := Product{ID: 9, Name: "Old", DateAdded: &added, Stock: StockInStock}
	got, err := ApplyPatch(base, json.RawMessage(`{"id":77,"name":"New","stock":"limited"}`))
	require.NoError(t, err)
	assert.Equal(t, ProductID(9), got.ID)
	assert.Equal(t, "New", got.Name)
	assert.Equal(t, StockLimited, got.Stock)
	assert.Equal(t, &added, got.DateAdded)
}

func TestNewExport(t *testing.T) {
	now := time.Now()
	env := NewExport([]Product{{ID: 1, Name: "A"}}, now)
	assert.Equal(t, ExportVersion, env.Version)
	assert.Equal(t, now, env.ExportDate)
	assert.Len(t, env.Products, 1)
}
