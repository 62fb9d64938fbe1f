package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pefman/cardstats/internal/dataset"
	"github.com/pefman/cardstats/internal/logging"
	"github.com/pefman/cardstats/internal/server"
)

func newTestClient(t *testing.T) (*Client, *dataset.Store) {
	t.Helper()
	store := dataset.New(dataset.DefaultConfig(),
		dataset.WithLogger(logging.Discard()),
		dataset.WithRecords(
			dataset.Fields{"Card": dataset.String("Knight"), "Type": dataset.String("Troop")},
			dataset.Fields{"Card": dataset.String("Hog Rider"), "Type": dataset.String("Troop")},
		),
	)
	ts := httptest.NewServer(server.New(store, server.WithLogger(logging.Discard())))
	t.Cleanup(ts.Close)
	return NewClient(ts.URL + "/").WithHTTPClient(ts.Client()), store
}

func TestClientLifecycle(t *testing.T) {
	c, store := newTestClient(t)
	ctx := context.Background()

	cost, err := dataset.Number("5.0")
	require.NoError(t, err)
	resp, id, err := c.Insert(ctx, dataset.Fields{"Card": dataset.String("Poste Teste"), "Cost": cost})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 2, id)

	resp, err = c.List(ctx)
	require.NoError(t, err)
	var all []dataset.Record
	require.NoError(t, resp.Decode(&all))
	assert.Len(t, all, 3)

	resp, err = c.Top(ctx, 1)
	require.NoError(t, err)
	var top []dataset.Record
	require.NoError(t, resp.Decode(&top))
	require.Len(t, top, 1)
	assert.Equal(t, 0, top[0].ID)

	resp, err = c.Update(ctx, id, dataset.Fields{"Card": dataset.String("Poste Teste - ATUALIZADO")})
	require.NoError(t, err)
	assert.True(t, resp.OK())

	resp, err = c.Filter(ctx, dataset.Fields{"Card": dataset.String("poste teste - atualizado"), "Cost": cost})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = c.Delete(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Pretty(), "Poste Teste - ATUALIZADO")
	assert.Equal(t, 2, store.Len())

	resp, err = c.Delete(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.False(t, resp.OK())
}

func TestClientSearchEscapesValue(t *testing.T) {
	c, _ := newTestClient(t)
	resp, err := c.Search(context.Background(), "hog rider")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var found []dataset.Record
	require.NoError(t, resp.Decode(&found))
	require.Len(t, found, 1)
	assert.Equal(t, 1, found[0].ID)
}

func TestClientInsertFailure(t *testing.T) {
	c, _ := newTestClient(t)
	resp, id, err := c.Insert(context.Background(), dataset.Fields{})
	require.Error(t, err)
	assert.Zero(t, id)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestClientUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, _, err := NewClient(url).Insert(context.Background(), dataset.Fields{"Card": dataset.String("x")})
	assert.Error(t, err)
}

func TestResponsePretty(t *testing.T) {
	r := &Response{StatusCode: 200, Body: []byte(`{"a":1}`)}
	assert.Equal(t, "{\n    \"a\": 1\n}", r.Pretty())

	r = &Response{StatusCode: 404, Body: []byte("not json\n")}
	assert.Equal(t, "not json", r.Pretty())
}
