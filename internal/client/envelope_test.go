package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelope_Shapes(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		kind  envelopeKind
		count int
		pages int
	}{
		{"paginated", `{"bookings":[{"_id":"a"},{"_id":"b"}],"totalPages":4,"currentPage":2,"totalBookings":7}`, kindPaginated, 2, 4},
		{"list", `[{"_id":"a"},{"_id":"b"},{"_id":"c"}]`, kindList, 3, 1},
		{"allbookings", `{"Allbookings":[{"_id":"a"}]}`, kindAllBookings, 1, 1},
		{"single", `{"_id":"a","company_name":"Acme"}`, kindSingle, 1, 1},
		{"null", `null`, kindEmpty, 0, 1},
		{"blank", "  \n", kindEmpty, 0, 1},
		{"empty object", `{}`, kindEmpty, 0, 1},
		{"empty list", `[]`, kindList, 0, 1},
		{"paginated null", `{"bookings":null,"totalPages":0}`, kindPaginated, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := decodeEnvelope([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.kind, env.kind)

			env = env.normalize()
			assert.Len(t, env.records, tt.count)
			assert.NotNil(t, env.records)
			assert.Equal(t, tt.pages, env.totalPages)
		})
	}
}

func TestDecodeEnvelope_UnknownShapesFail(t *testing.T) {
	for _, body := range []string{
		`{"data":[{"_id":"a"}]}`,
		`{"success":true,"data":{}}`,
		`"bookings"`,
		`42`,
		`{"bookings":"nope"}`,
		`[1,2,3]`,
	} {
		_, err := decodeEnvelope([]byte(body))
		assert.ErrorIs(t, err, ErrUnexpectedShape, body)
	}
}

func TestNormalize_SortsNewestFirst(t *testing.T) {
	env, err := decodeEnvelope([]byte(`[
		{"_id":"old","createdAt":"2024-01-01T00:00:00Z"},
		{"_id":"new","createdAt":"2024-03-01T00:00:00Z"},
		{"_id":"mid","createdAt":"2024-02-01T00:00:00Z"}
	]`))
	require.NoError(t, err)

	env = env.normalize()
	ids := []string{env.records[0].ID, env.records[1].ID, env.records[2].ID}
	assert.Equal(t, []string{"new", "mid", "old"}, ids)
}

func TestDecodeEnvelope_ServicesAsString(t *testing.T) {
	env, err := decodeEnvelope([]byte(`[{"_id":"a","services":"GST Registration"}]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"GST Registration"}, []string(env.records[0].Services))
}
