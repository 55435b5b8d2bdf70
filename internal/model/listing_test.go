package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextUnmarshal(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want Text
	}{
		{"string", `"abc"`, "abc"},
		{"bare number", `123456`, "123456"},
		{"float", `4.6`, "4.6"},
		{"null", `null`, ""},
		{"empty string", `""`, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var got Text
			require.NoError(t, json.Unmarshal([]byte(tc.in), &got))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNumberUnmarshal(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		in    string
		value float64
		valid bool
	}{
		{"number", `4.6`, 4.6, true},
		{"integer", `12`, 12, true},
		{"string encoded", `"4.6"`, 4.6, true},
		{"null", `null`, 0, false},
		{"empty string", `""`, 0, false},
		{"malformed degrades to unknown", `"n/a"`, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var got Number
			require.NoError(t, json.Unmarshal([]byte(tc.in), &got))
			assert.Equal(t, tc.valid, got.Valid)
			if tc.valid {
				assert.InDelta(t, tc.value, got.Value, 1e-9)
			}
		})
	}
}

func TestNumberMarshal(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(Number{Value: 4.6, Valid: true})
	require.NoError(t, err)
	assert.Equal(t, "4.6", string(data))

	data, err = json.Marshal(Number{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestNumberFloat(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Number{}.Float())

	p := Number{Value: 2.5, Valid: true}.Float()
	require.NotNil(t, p)
	assert.InDelta(t, 2.5, *p, 1e-9)
}

func TestListingFieldResolution(t *testing.T) {
	t.Parallel()

	t.Run("title prefers title over product_name", func(t *testing.T) {
		t.Parallel()
		l := &Listing{Title: "New", ProductName: "Old"}
		assert.Equal(t, "New", l.DisplayTitle())

		l = &Listing{ProductName: "Old"}
		assert.Equal(t, "Old", l.DisplayTitle())
	})

	t.Run("local id priority", func(t *testing.T) {
		t.Parallel()
		l := &Listing{ProductID: "p", ItemID: "i", ArticleNumber: "a"}
		assert.Equal(t, "p", l.LocalID())

		l = &Listing{ItemID: "i", ArticleNumber: "a"}
		assert.Equal(t, "i", l.LocalID())

		l = &Listing{ArticleNumber: "a"}
		assert.Equal(t, "a", l.LocalID())
	})

	t.Run("inventory and url variants", func(t *testing.T) {
		t.Parallel()
		l := &Listing{Availability: "in stock", ProductURL: "https://x/p"}
		assert.Equal(t, "in stock", l.Inventory())
		assert.Equal(t, "https://x/p", l.URL())

		l = &Listing{InventoryStatus: "out of stock", Link: "https://x/l", ProductURL: "https://x/p"}
		assert.Equal(t, "out of stock", l.Inventory())
		assert.Equal(t, "https://x/l", l.URL())
	})
}

func TestNumericPrice(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		listing Listing
		want    float64
		ok      bool
	}{
		{"pre-parsed wins", Listing{PriceNumeric: Number{Value: 3.5, Valid: true}, Price: "$99.99"}, 3.5, true},
		{"raw dollar string", Listing{PriceRaw: "$4.60"}, 4.6, true},
		{"price fallback", Listing{Price: "2.49"}, 2.49, true},
		{"thousands separator", Listing{Price: "1,299.99"}, 1299.99, true},
		{"unparseable", Listing{Price: "see store"}, 0, false},
		{"empty", Listing{}, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			v, ok := tc.listing.NumericPrice()
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.InDelta(t, tc.want, v, 1e-9)
			}
		})
	}
}

func TestCanonicalProductMatched(t *testing.T) {
	t.Parallel()

	p := &CanonicalProduct{MatchMethod: "exact_brand_title_size"}
	assert.True(t, p.Matched())
	assert.False(t, (&CanonicalProduct{}).Matched())
}
