package catalog_test

import (
	"testing"

	"github.com/gofrs/uuid"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/storefront/internal/catalog"
)

func TestProductImages_Scan(t *testing.T) {
	imageID := uuid.Must(uuid.FromString("0b1e1c4e-4b8a-4d7e-9a39-3b0f1f0c9d11"))
	payload := `[{"id":"0b1e1c4e-4b8a-4d7e-9a39-3b0f1f0c9d11","image_url":"https://cdn.example.com/a.jpg","alt_text":"front","sort_order":1}]`
	want := catalog.ProductImages{{ID: imageID, ImageURL: "https://cdn.example.com/a.jpg", AltText: "front", SortOrder: 1}}

	tests := []struct {
		name string
		src  any
		want catalog.ProductImages
	}{
		{name: "bytes", src: []byte(payload), want: want},
		{name: "string", src: payload, want: want},
		{name: "null", src: nil, want: catalog.ProductImages{}},
		{name: "empty_array", src: "[]", want: catalog.ProductImages{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got catalog.ProductImages
			require.NoError(t, got.Scan(tt.src))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Scan() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestProductImages_ScanRejectsGarbage(t *testing.T) {
	var got catalog.ProductImages
	assert.Error(t, got.Scan(42))
	assert.Error(t, got.Scan("{not json"))
}

func TestProductImages_Value(t *testing.T) {
	v, err := catalog.ProductImages(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}
