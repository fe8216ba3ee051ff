package extract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coverscope/docintel/ai/mock"
	"github.com/coverscope/docintel/core"
)

func TestCoreExtract(t *testing.T) {
	completer := mock.NewMockCompleter()
	completer.CompleteFunc = func(ctx context.Context, system, user string) (string, error) {
		assert.Contains(t, user, "Document type: policy")
		assert.Contains(t, user, "COMMERCIAL GENERAL LIABILITY DECLARATIONS")
		return `Here is the extracted data:
{
  "policy_number": "GL-2025-88341",
  "effective_date": "2025-04-01",
  "expiration_date": "2026-04-01",
  "insured_name": "Acme Fabrication LLC",
  "insured_address": "100 Mill Rd, Dayton, OH 45402",
  "carrier_name": "Hartford Casualty",
  "producer_name": null,
  "total_premium": "$24,500",
  "total_taxes_fees": 612.50,
  "policy_status": "renewal",
  "confidence": 0.92
}`, nil
	}

	e := NewCoreExtractor(completer)
	record, err := e.Extract(context.Background(),
		"COMMERCIAL GENERAL LIABILITY DECLARATIONS\nPolicy Number: GL-2025-88341", "policy")
	require.NoError(t, err)

	assert.Equal(t, "GL-2025-88341", record.PolicyNumber)
	require.NotNil(t, record.EffectiveDate)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), *record.EffectiveDate)
	require.NotNil(t, record.ExpirationDate)
	assert.Equal(t, "Acme Fabrication LLC", record.InsuredName)
	assert.Equal(t, "", record.ProducerName)
	require.NotNil(t, record.TotalPremium)
	assert.InDelta(t, 24500, *record.TotalPremium, 1e-9)
	require.NotNil(t, record.TotalTaxesFees)
	assert.InDelta(t, 612.50, *record.TotalTaxesFees, 1e-9)
	assert.Equal(t, "renewal", record.PolicyStatus)
	assert.InDelta(t, 0.92, record.Confidence, 1e-9)
	assert.Contains(t, record.RawResponse, "GL-2025-88341")
}

func TestCoreExtractMissingFieldsNotFatal(t *testing.T) {
	completer := mock.NewMockCompleter()
	completer.CompleteFunc = func(ctx context.Context, system, user string) (string, error) {
		return `{"policy_number": "Q-1", "effective_date": "sometime next month", "confidence": 0.4}`, nil
	}

	e := NewCoreExtractor(completer)
	record, err := e.Extract(context.Background(), "partial text", "quote")
	require.NoError(t, err)

	assert.Equal(t, "Q-1", record.PolicyNumber)
	assert.Nil(t, record.EffectiveDate)
	assert.Nil(t, record.ExpirationDate)
	assert.Nil(t, record.TotalPremium)
}

func TestCoreExtractCompletionError(t *testing.T) {
	completer := mock.NewMockCompleter()
	completer.CompleteFunc = func(ctx context.Context, system, user string) (string, error) {
		return "", errors.New("rate limited")
	}

	e := NewCoreExtractor(completer)
	_, err := e.Extract(context.Background(), "text", "policy")
	require.Error(t, err)
}

func TestCoreExtractMalformedResponse(t *testing.T) {
	completer := mock.NewMockCompleter()
	completer.CompleteFunc = func(ctx context.Context, system, user string) (string, error) {
		return "I cannot extract anything from this.", nil
	}

	e := NewCoreExtractor(completer)
	_, err := e.Extract(context.Background(), "text", "policy")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrMalformedResponse)
}
