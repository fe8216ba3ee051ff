package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/coverscope/docintel/core"
)

// Key prefixes for different data types
const (
	documentPrefix       = "docrec"
	chunkPrefix          = "chkrec"
	chunkDocIndexPrefix  = "chkdoc"
	coreRecordPrefix     = "correc"
	categoryRecordPrefix = "catrec"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

// makeChunkKey generates a key for a chunk by ID.
func makeChunkKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", chunkPrefix, id))
}

// makeChunkDocKey generates a composite key for the document index.
// Format: prefix:documentID:index:chunkID. Index is BigEndian so the
// iterator yields chunks in document order.
func makeChunkDocKey(documentID core.ID, index int, chunkID core.ID) []byte {
	prefix := []byte(chunkDocIndexPrefix + ":")
	buf := make([]byte, len(prefix)+24)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(index))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(chunkID))
	return buf
}

// makeChunkDocPrefix generates the iteration prefix for one document's
// chunk index entries.
func makeChunkDocPrefix(documentID core.ID) []byte {
	prefix := []byte(chunkDocIndexPrefix + ":")
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	return buf
}

// makeCoreRecordKey generates the key for a document's core record.
// One core record per document.
func makeCoreRecordKey(documentID core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", coreRecordPrefix, documentID))
}

// makeCategoryRecordKey generates a composite key for a category record.
// Format: prefix:documentID:categoryID, so per-document iteration yields
// categories in lexicographic order.
func makeCategoryRecordKey(documentID core.ID, categoryID string) []byte {
	prefix := []byte(categoryRecordPrefix + ":")
	buf := make([]byte, len(prefix)+8+1+len(categoryID))
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	offset += 8
	buf[offset] = ':'
	offset++
	copy(buf[offset:], categoryID)
	return buf
}

// makeCategoryRecordPrefix generates the iteration prefix for one
// document's category records.
func makeCategoryRecordPrefix(documentID core.ID) []byte {
	prefix := []byte(categoryRecordPrefix + ":")
	buf := make([]byte, len(prefix)+9)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	buf[offset+8] = ':'
	return buf
}
