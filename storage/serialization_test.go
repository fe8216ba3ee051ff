package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coverscope/docintel/core"
)

func TestMarshalUnmarshalDocument(t *testing.T) {
	doc := &core.Document{
		Id:         core.IDFromContent("document:policy.pdf"),
		FileName:   "policy.pdf",
		Status:     core.StatusCompleted,
		InsertedAt: time.Now().UTC().Truncate(time.Microsecond),
		UpdatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}

	data := MarshalDocument(doc)
	require.NotEmpty(t, data)

	decoded, err := UnmarshalDocument(data)
	require.NoError(t, err)
	assert.Equal(t, doc, decoded)
}

func TestUnmarshal_CorruptBytes(t *testing.T) {
	// An unterminated varint fails every row codec at the first field.
	corrupt := []byte{0xff}

	_, err := UnmarshalID(nil)
	assert.ErrorIs(t, err, ErrSerializationFailed)

	_, err = UnmarshalDocument(corrupt)
	assert.ErrorIs(t, err, ErrSerializationFailed)

	_, err = UnmarshalChunk(corrupt)
	assert.ErrorIs(t, err, ErrSerializationFailed)

	_, err = UnmarshalCoreRecord(corrupt)
	assert.ErrorIs(t, err, ErrSerializationFailed)

	_, err = UnmarshalCategoryRecord(corrupt)
	assert.ErrorIs(t, err, ErrSerializationFailed)
}
