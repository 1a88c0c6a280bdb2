package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tac_codec/internal/codec"
	"tac_codec/internal/conversion"
	"tac_codec/internal/model"
	"tac_codec/internal/observability"
	"tac_codec/internal/storage"
)

type memStore struct {
	records []storage.Record
	err     error
}

func (m *memStore) Save(_ context.Context, rec storage.Record) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *memStore) Close() error { return nil }

type memSink struct {
	payloads [][]byte
	results  []*Result
	err      error
	closed   bool
}

func (m *memSink) Publish(_ context.Context, res *Result, payload []byte) error {
	m.results = append(m.results, res)
	m.payloads = append(m.payloads, payload)
	return m.err
}

func (m *memSink) Close() error {
	m.closed = true
	return nil
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

var received = time.Date(2024, 3, 12, 12, 52, 0, 0, time.UTC)

func TestHandle(t *testing.T) {
	store := &memStore{}
	sink := &memSink{}
	svc := NewService(codec.New(), conversion.Hints{}, discard(),
		WithStore(store),
		WithSink(sink),
		WithClock(clockwork.NewFakeClockAt(received)),
	)

	payload, err := svc.Handle(context.Background(), []byte("METAR EFHK 121250Z 24005KT 9999 FEW030 12/08 Q1013="))
	require.NoError(t, err)

	var res Result
	require.NoError(t, json.Unmarshal(payload, &res))
	assert.Equal(t, received, res.ReceivedAt)
	assert.Equal(t, "EFHK", res.Aerodrome)
	require.NotNil(t, res.Report)
	assert.Equal(t, model.KindMETAR, res.Report.Kind)
	assert.Equal(t, conversion.StatusSuccess, res.Report.Status)
	assert.Empty(t, res.Error)

	require.Len(t, store.records, 1)
	assert.Equal(t, "EFHK", store.records[0].Aerodrome)
	assert.Equal(t, received, store.records[0].ReceivedAt)

	require.Len(t, sink.payloads, 1)
	assert.Equal(t, payload, sink.payloads[0])
}

func TestHandleKeepsGoingOnFailures(t *testing.T) {
	store := &memStore{err: errors.New("disk full")}
	sink := &memSink{err: errors.New("broker down")}
	m := observability.NewMetrics(prometheus.NewRegistry())
	svc := NewService(codec.New(), conversion.Hints{}, discard(),
		WithStore(store), WithSink(sink), WithMetrics(m))

	payload, err := svc.Handle(context.Background(), []byte("TAF EFHK 121130Z 1212/1312 24005KT CAVOK="))
	require.NoError(t, err)
	assert.NotEmpty(t, payload)
	assert.Len(t, sink.results, 1)
	assert.Equal(t, model.KindTAF, sink.results[0].Report.Kind)
}

func TestHandleGarbage(t *testing.T) {
	sink := &memSink{}
	svc := NewService(codec.New(), conversion.Hints{}, nil, WithSink(sink), WithSink(nil))

	_, err := svc.Handle(context.Background(), []byte("   "))
	require.NoError(t, err)
	require.Len(t, sink.results, 1)
	assert.Equal(t, conversion.StatusFail, sink.results[0].Report.Status)
	assert.Empty(t, sink.results[0].Aerodrome)

	require.NoError(t, svc.Close())
	assert.True(t, sink.closed)
}

func TestResultSinkIsReplaced(t *testing.T) {
	sink := &memSink{}
	first, second := &memSink{}, &memSink{}
	svc := NewService(codec.New(), conversion.Hints{}, discard(), WithSink(sink))

	svc.setResultSink(first)
	svc.setResultSink(second)
	_, err := svc.Handle(context.Background(), []byte("METAR EFHK 121250Z 24005KT CAVOK 12/08 Q1013="))
	require.NoError(t, err)
	assert.Len(t, sink.results, 1)
	assert.Empty(t, first.results)
	assert.Len(t, second.results, 1)

	svc.setResultSink(nil)
	_, err = svc.Handle(context.Background(), []byte("METAR EFHK 121320Z 24005KT CAVOK 12/08 Q1013="))
	require.NoError(t, err)
	assert.Len(t, sink.results, 2)
	assert.Len(t, second.results, 1)
}

func TestRunWithoutConnection(t *testing.T) {
	svc := NewService(codec.New(), conversion.Hints{}, discard())
	assert.Error(t, svc.Run(context.Background(), nil, "tac.raw", "q", "tac.parsed"))
}

func TestToMessage(t *testing.T) {
	res := &Result{
		ReceivedAt: received,
		Aerodrome:  "EFHK",
		Report:     &codec.Report{Kind: model.KindSPECI, Status: conversion.StatusWithIssues},
	}
	msg := toMessage(res, []byte(`{}`))

	assert.Equal(t, []byte("EFHK"), msg.Key)
	assert.Equal(t, received, msg.Time)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "kind", msg.Headers[0].Key)
	assert.Equal(t, []byte("SPECI"), msg.Headers[0].Value)
	assert.Equal(t, []byte("WITH_ISSUES"), msg.Headers[1].Value)

	bare := toMessage(&Result{Error: "boom"}, []byte(`{}`))
	assert.Empty(t, bare.Headers)
}
