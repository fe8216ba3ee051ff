// Copyright 2025 Coverscope Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import (
	"encoding/json"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the persisted types. Hand-written: the row shapes
// are small and stable, and optional fields need an explicit presence
// flag. Timestamps are stored as Unix microseconds.

// IDMUS serializes an ID.
var IDMUS = idSer{}

type idSer struct{}

func (idSer) Marshal(id ID, bs []byte) int { return varint.Uint64.Marshal(uint64(id), bs) }

func (idSer) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idSer) Size(id ID) int { return varint.Uint64.Size(uint64(id)) }

func (idSer) Skip(bs []byte) (int, error) { return varint.Uint64.Skip(bs) }

var vectorSer = ord.NewSliceSer[float32](raw.Float32)

// time helpers

func marshalTime(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	v, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(v).UTC(), n, nil
}

func sizeTime(t time.Time) int { return varint.Int64.Size(t.UnixMicro()) }

// optional float64: presence flag then value

func marshalFloatPtr(p *float64, bs []byte) (n int) {
	n = ord.Bool.Marshal(p != nil, bs)
	if p != nil {
		n += raw.Float64.Marshal(*p, bs[n:])
	}
	return n
}

func unmarshalFloatPtr(bs []byte) (*float64, int, error) {
	present, n, err := ord.Bool.Unmarshal(bs)
	if err != nil || !present {
		return nil, n, err
	}
	v, n1, err := raw.Float64.Unmarshal(bs[n:])
	if err != nil {
		return nil, n + n1, err
	}
	return &v, n + n1, nil
}

func sizeFloatPtr(p *float64) int {
	if p == nil {
		return ord.Bool.Size(false)
	}
	return ord.Bool.Size(true) + raw.Float64.Size(*p)
}

// optional time: presence flag then Unix microseconds

func marshalTimePtr(p *time.Time, bs []byte) (n int) {
	n = ord.Bool.Marshal(p != nil, bs)
	if p != nil {
		n += marshalTime(*p, bs[n:])
	}
	return n
}

func unmarshalTimePtr(bs []byte) (*time.Time, int, error) {
	present, n, err := ord.Bool.Unmarshal(bs)
	if err != nil || !present {
		return nil, n, err
	}
	t, n1, err := unmarshalTime(bs[n:])
	if err != nil {
		return nil, n + n1, err
	}
	return &t, n + n1, nil
}

func sizeTimePtr(p *time.Time) int {
	if p == nil {
		return ord.Bool.Size(false)
	}
	return ord.Bool.Size(true) + sizeTime(*p)
}

// DocumentMUS serializes a Document.
var DocumentMUS = documentSer{}

type documentSer struct{}

func (documentSer) Marshal(d Document, bs []byte) (n int) {
	n = IDMUS.Marshal(d.Id, bs)
	n += ord.String.Marshal(d.FileName, bs[n:])
	n += varint.Int.Marshal(int(d.Status), bs[n:])
	n += ord.String.Marshal(d.FailureReason, bs[n:])
	n += marshalTime(d.InsertedAt, bs[n:])
	n += marshalTime(d.UpdatedAt, bs[n:])
	return n
}

func (documentSer) Unmarshal(bs []byte) (d Document, n int, err error) {
	var n1 int
	if d.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if d.FileName, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	var status int
	if status, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	d.Status = DocumentStatus(status)
	if d.FailureReason, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.InsertedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.UpdatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return d, n + n1, err
	}
	return d, n + n1, nil
}

func (documentSer) Size(d Document) int {
	return IDMUS.Size(d.Id) +
		ord.String.Size(d.FileName) +
		varint.Int.Size(int(d.Status)) +
		ord.String.Size(d.FailureReason) +
		sizeTime(d.InsertedAt) +
		sizeTime(d.UpdatedAt)
}

func (s documentSer) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

// ChunkMUS serializes a Chunk, vector included.
var ChunkMUS = chunkSer{}

type chunkSer struct{}

func (chunkSer) Marshal(c Chunk, bs []byte) (n int) {
	n = IDMUS.Marshal(c.Id, bs)
	n += IDMUS.Marshal(c.DocumentId, bs[n:])
	n += varint.Int.Marshal(c.Index, bs[n:])
	n += ord.String.Marshal(c.Text, bs[n:])
	n += varint.Int.Marshal(c.PageStart, bs[n:])
	n += varint.Int.Marshal(c.PageEnd, bs[n:])
	n += ord.String.Marshal(c.SectionType, bs[n:])
	n += varint.Int.Marshal(c.TokenCount, bs[n:])
	n += vectorSer.Marshal(c.Vector, bs[n:])
	n += marshalTime(c.InsertedAt, bs[n:])
	return n
}

func (chunkSer) Unmarshal(bs []byte) (c Chunk, n int, err error) {
	var n1 int
	if c.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if c.DocumentId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Index, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Text, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.PageStart, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.PageEnd, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.SectionType, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.TokenCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Vector, n1, err = vectorSer.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.InsertedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return c, n + n1, err
	}
	return c, n + n1, nil
}

func (chunkSer) Size(c Chunk) int {
	return IDMUS.Size(c.Id) +
		IDMUS.Size(c.DocumentId) +
		varint.Int.Size(c.Index) +
		ord.String.Size(c.Text) +
		varint.Int.Size(c.PageStart) +
		varint.Int.Size(c.PageEnd) +
		ord.String.Size(c.SectionType) +
		varint.Int.Size(c.TokenCount) +
		vectorSer.Size(c.Vector) +
		sizeTime(c.InsertedAt)
}

func (s chunkSer) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

// CoreRecordMUS serializes a CoreRecord.
var CoreRecordMUS = coreRecordSer{}

type coreRecordSer struct{}

func (coreRecordSer) Marshal(r CoreRecord, bs []byte) (n int) {
	n = IDMUS.Marshal(r.Id, bs)
	n += IDMUS.Marshal(r.DocumentId, bs[n:])
	n += ord.String.Marshal(r.PolicyNumber, bs[n:])
	n += marshalTimePtr(r.EffectiveDate, bs[n:])
	n += marshalTimePtr(r.ExpirationDate, bs[n:])
	n += ord.String.Marshal(r.InsuredName, bs[n:])
	n += ord.String.Marshal(r.InsuredAddress, bs[n:])
	n += ord.String.Marshal(r.CarrierName, bs[n:])
	n += ord.String.Marshal(r.ProducerName, bs[n:])
	n += marshalFloatPtr(r.TotalPremium, bs[n:])
	n += marshalFloatPtr(r.TotalTaxesFees, bs[n:])
	n += ord.String.Marshal(r.PolicyStatus, bs[n:])
	n += raw.Float64.Marshal(r.Confidence, bs[n:])
	n += ord.String.Marshal(r.RawResponse, bs[n:])
	n += marshalTime(r.InsertedAt, bs[n:])
	return n
}

func (coreRecordSer) Unmarshal(bs []byte) (r CoreRecord, n int, err error) {
	var n1 int
	if r.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if r.DocumentId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.PolicyNumber, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.EffectiveDate, n1, err = unmarshalTimePtr(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.ExpirationDate, n1, err = unmarshalTimePtr(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.InsuredName, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.InsuredAddress, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.CarrierName, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.ProducerName, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.TotalPremium, n1, err = unmarshalFloatPtr(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.TotalTaxesFees, n1, err = unmarshalFloatPtr(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.PolicyStatus, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Confidence, n1, err = raw.Float64.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.RawResponse, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.InsertedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return r, n + n1, err
	}
	return r, n + n1, nil
}

func (coreRecordSer) Size(r CoreRecord) int {
	return IDMUS.Size(r.Id) +
		IDMUS.Size(r.DocumentId) +
		ord.String.Size(r.PolicyNumber) +
		sizeTimePtr(r.EffectiveDate) +
		sizeTimePtr(r.ExpirationDate) +
		ord.String.Size(r.InsuredName) +
		ord.String.Size(r.InsuredAddress) +
		ord.String.Size(r.CarrierName) +
		ord.String.Size(r.ProducerName) +
		sizeFloatPtr(r.TotalPremium) +
		sizeFloatPtr(r.TotalTaxesFees) +
		ord.String.Size(r.PolicyStatus) +
		raw.Float64.Size(r.Confidence) +
		ord.String.Size(r.RawResponse) +
		sizeTime(r.InsertedAt)
}

func (s coreRecordSer) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

// CategoryRecordMUS serializes a CategoryRecord. The open Details map is
// stored as a JSON document inside the row: its keys and value types are
// unbounded, so a fixed binary schema cannot hold it.
var CategoryRecordMUS = categoryRecordSer{}

type categoryRecordSer struct{}

func (categoryRecordSer) Marshal(r CategoryRecord, bs []byte) (n int) {
	n = IDMUS.Marshal(r.Id, bs)
	n += IDMUS.Marshal(r.DocumentId, bs[n:])
	n += ord.String.Marshal(r.CategoryId, bs[n:])
	n += ord.String.Marshal(r.Subtype, bs[n:])
	n += marshalFloatPtr(r.Common.EachOccurrenceLimit, bs[n:])
	n += marshalFloatPtr(r.Common.AggregateLimit, bs[n:])
	n += marshalFloatPtr(r.Common.Deductible, bs[n:])
	n += marshalFloatPtr(r.Common.DeductiblePercent, bs[n:])
	n += marshalFloatPtr(r.Common.Premium, bs[n:])
	n += ord.Bool.Marshal(r.Common.ClaimsMade, bs[n:])
	n += marshalTimePtr(r.Common.RetroactiveDate, bs[n:])
	n += ord.String.Marshal(detailsToJSON(r.Details), bs[n:])
	n += raw.Float64.Marshal(r.Confidence, bs[n:])
	n += ord.String.Marshal(r.RawResponse, bs[n:])
	n += marshalTime(r.InsertedAt, bs[n:])
	return n
}

func (categoryRecordSer) Unmarshal(bs []byte) (r CategoryRecord, n int, err error) {
	var n1 int
	if r.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if r.DocumentId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.CategoryId, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Subtype, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Common.EachOccurrenceLimit, n1, err = unmarshalFloatPtr(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Common.AggregateLimit, n1, err = unmarshalFloatPtr(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Common.Deductible, n1, err = unmarshalFloatPtr(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Common.DeductiblePercent, n1, err = unmarshalFloatPtr(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Common.Premium, n1, err = unmarshalFloatPtr(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Common.ClaimsMade, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Common.RetroactiveDate, n1, err = unmarshalTimePtr(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	var details string
	if details, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Details, err = detailsFromJSON(details); err != nil {
		return r, n, err
	}
	if r.Confidence, n1, err = raw.Float64.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.RawResponse, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.InsertedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return r, n + n1, err
	}
	return r, n + n1, nil
}

func (categoryRecordSer) Size(r CategoryRecord) int {
	return IDMUS.Size(r.Id) +
		IDMUS.Size(r.DocumentId) +
		ord.String.Size(r.CategoryId) +
		ord.String.Size(r.Subtype) +
		sizeFloatPtr(r.Common.EachOccurrenceLimit) +
		sizeFloatPtr(r.Common.AggregateLimit) +
		sizeFloatPtr(r.Common.Deductible) +
		sizeFloatPtr(r.Common.DeductiblePercent) +
		sizeFloatPtr(r.Common.Premium) +
		ord.Bool.Size(r.Common.ClaimsMade) +
		sizeTimePtr(r.Common.RetroactiveDate) +
		ord.String.Size(detailsToJSON(r.Details)) +
		raw.Float64.Size(r.Confidence) +
		ord.String.Size(r.RawResponse) +
		sizeTime(r.InsertedAt)
}

func (s categoryRecordSer) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

func detailsToJSON(details map[string]any) string {
	if len(details) == 0 {
		return ""
	}
	data, err := json.Marshal(details)
	if err != nil {
		return ""
	}
	return string(data)
}

func detailsFromJSON(data string) (map[string]any, error) {
	if data == "" {
		return map[string]any{}, nil
	}
	var details map[string]any
	if err := json.Unmarshal([]byte(data), &details); err != nil {
		return nil, err
	}
	return details, nil
}
