package badger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/hashstore/storage"
)

func TestHashCodec(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
	}{
		{"empty", map[string]string{}},
		{"single", map[string]string{"username": "alice"}},
		{"many", map[string]string{"a": "", "b": `{"k":"v"}`, "unicode": "héllo", "n": "123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := marshalHash(tt.fields)
			got, err := unmarshalHash(data)
			require.NoError(t, err)
			assert.Equal(t, tt.fields, got)
		})
	}
}

func TestHashCodec_Deterministic(t *testing.T) {
	fields := map[string]string{"z": "1", "a": "2", "m": "3"}
	first := marshalHash(fields)
	for range 10 {
		assert.Equal(t, first, marshalHash(fields))
	}
}

func TestUnmarshalHash_Corrupt(t *testing.T) {
	data := marshalHash(map[string]string{"field": "value"})

	_, err := unmarshalHash(data[:len(data)-2])
	assert.ErrorIs(t, err, storage.ErrTruncatedData)

	_, err = unmarshalHash(append(data, 0x01))
	assert.ErrorIs(t, err, storage.ErrSerializationFailed)

	_, err = unmarshalHash(nil)
	assert.ErrorIs(t, err, storage.ErrSerializationFailed)
}
