package docintel

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coverscope/docintel/ai/mock"
	"github.com/coverscope/docintel/core"
)

type noopBlobStore struct{}

func (noopBlobStore) ReadDocumentBytes(ctx context.Context, documentID core.ID) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

type noopTextExtractor struct{}

func (noopTextExtractor) ExtractPageText(ctx context.Context, r io.Reader) (core.PageText, error) {
	return core.PageText{}, nil
}

func TestNewDatabase(t *testing.T) {
	t.Run("create new database", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_db")
		db, err := NewDatabase(tmpDir, WithProvider(mock.NewMockProvider()))
		require.NoError(t, err)
		require.NotNil(t, db)
		defer db.Close()

		assert.NotNil(t, db.Documents())
		assert.NotNil(t, db.Chunks())
		assert.NotNil(t, db.Records())
		assert.NotNil(t, db.logger)
	})

	t.Run("error with invalid path", func(t *testing.T) {
		// A file path where a directory is needed
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		err := os.WriteFile(tmpFile, []byte("test"), 0644)
		require.NoError(t, err)

		db, err := NewDatabase(tmpFile, WithProvider(mock.NewMockProvider()))
		assert.Error(t, err)
		assert.Nil(t, db)
	})
}

func TestDatabase_Close(t *testing.T) {
	db, err := NewDatabase(t.TempDir(), WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	require.NotNil(t, db)

	err = db.Close()
	assert.NoError(t, err)
}

func TestDatabase_FactoryMethods(t *testing.T) {
	db, err := NewDatabase(t.TempDir(), WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	require.NotNil(t, db)
	defer db.Close()

	t.Run("can create orchestrator", func(t *testing.T) {
		orchestrator, err := db.NewOrchestrator(noopBlobStore{}, noopTextExtractor{})
		require.NoError(t, err)
		require.NotNil(t, orchestrator)
		orchestrator.Release()
	})

	t.Run("can create retriever", func(t *testing.T) {
		retriever, err := db.NewRetriever()
		require.NoError(t, err)
		require.NotNil(t, retriever)
	})
}
