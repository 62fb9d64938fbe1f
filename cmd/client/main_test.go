package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pefman/cardstats/internal/api"
	"github.com/pefman/cardstats/internal/dataset"
	"github.com/pefman/cardstats/internal/logging"
	"github.com/pefman/cardstats/internal/server"
)

func TestExerciseFullSequence(t *testing.T) {
	store := dataset.New(dataset.DefaultConfig(),
		dataset.WithLogger(logging.Discard()),
		dataset.WithRecords(dataset.Fields{"Card": dataset.String("Knight")}),
	)
	ts := httptest.NewServer(server.New(store, server.WithLogger(logging.Discard())))
	defer ts.Close()

	var out bytes.Buffer
	require.NoError(t, exercise(context.Background(), api.NewClient(ts.URL), 3, &out))

	text := out.String()
	assert.Contains(t, text, "[POST - NEW RECORD - Status: 201]")
	assert.Contains(t, text, "[OK] test record id: 1")
	assert.Contains(t, text, "[GET - TOP 3 - Status: 200]")
	assert.Contains(t, text, "[PUT - ID 1 - Status: 200]")
	assert.Contains(t, text, "[POST - FILTER - Status: 200]")
	assert.Contains(t, text, "[DELETE - ID 1 - Status: 200]")
	assert.Contains(t, text, "[DONE]")
	assert.Equal(t, 1, store.Len())
}

func TestExerciseAbortsWhenInsertFails(t *testing.T) {
	ts := httptest.NewServer(server.New(dataset.New(dataset.DefaultConfig()), server.WithLogger(logging.Discard())))
	url := ts.URL
	ts.Close()

	var out bytes.Buffer
	err := exercise(context.Background(), api.NewClient(url), 3, &out)
	require.Error(t, err)
	assert.NotContains(t, out.String(), "LIST")
}

func TestNewRecordShape(t *testing.T) {
	rec, err := newRecord()
	require.NoError(t, err)
	assert.Len(t, rec, 21)
	assert.Equal(t, "5.0", rec["Cost"].Stringify())
	assert.Equal(t, "0.0", rec["Death Damage"].Stringify())
	assert.Equal(t, "7.0", rec["Level"].Stringify())
	assert.Equal(t, "211", rec["Damage"].Text())
	assert.True(t, rec["Radius"].IsNull())
}

func TestExerciseFilterFindsInsertedRecord(t *testing.T) {
	store := dataset.New(dataset.DefaultConfig(), dataset.WithLogger(logging.Discard()))
	ts := httptest.NewServer(server.New(store, server.WithLogger(logging.Discard())))
	defer ts.Close()

	var out bytes.Buffer
	require.NoError(t, exercise(context.Background(), api.NewClient(ts.URL), 3, &out))
	assert.Contains(t, out.String(), "[POST - FILTER - Status: 200]")
	assert.Contains(t, out.String(), `"Cost": 5.0`)
}
