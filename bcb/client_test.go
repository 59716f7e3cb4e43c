package bcb_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/goal-planner/bcb"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *bcb.Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return bcb.NewClient(srv.URL, time.Second, zerolog.Nop())
}

func TestLatest_ParsesObservation(t *testing.T) {
	var gotPath, gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"data":"17/09/2025","valor":"10.50"}]`))
	})

	obs, err := client.Latest(context.Background(), bcb.SeriesSelic)
	require.NoError(t, err)

	assert.Equal(t, "/dados/serie/bcdata.sgs.432/dados/ultimos/1", gotPath)
	assert.Equal(t, "formato=json", gotQuery)
	assert.Equal(t, bcb.SeriesSelic, obs.Series)
	assert.Equal(t, "10.5", obs.Value.String())
	assert.Equal(t, time.Date(2025, time.September, 17, 0, 0, 0, 0, time.UTC), obs.Date)
}

func TestLatest_UsesLastElement(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"data":"01/08/2025","valor":"5.23"},{"data":"01/09/2025","valor":"4.68"}]`))
	})

	obs, err := client.Latest(context.Background(), bcb.SeriesIPCA12M)
	require.NoError(t, err)
	assert.Equal(t, "4.68", obs.Value.String())
	assert.Equal(t, time.September, obs.Date.Month())
}

func TestLatest_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{"server error", http.StatusInternalServerError, "boom", func(t *testing.T, err error) {
			var statusErr *bcb.StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
			assert.Equal(t, "boom", statusErr.Body)
		}},
		{"empty array", http.StatusOK, `[]`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, bcb.ErrNoObservations)
		}},
		{"not json", http.StatusOK, `<html>maintenance</html>`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, bcb.ErrMalformedResponse)
		}},
		{"bad value", http.StatusOK, `[{"data":"01/09/2025","valor":"n/a"}]`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, bcb.ErrMalformedResponse)
		}},
		{"bad date", http.StatusOK, `[{"data":"2025-09-01","valor":"4.68"}]`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, bcb.ErrMalformedResponse)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			obs, err := client.Latest(context.Background(), bcb.SeriesSelic)
			assert.Nil(t, obs)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestLatest_ContextCancelled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"data":"01/09/2025","valor":"4.68"}]`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Latest(ctx, bcb.SeriesSelic)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSeriesCode_String(t *testing.T) {
	assert.Equal(t, "selic", bcb.SeriesSelic.String())
	assert.Equal(t, "ipca_12m", bcb.SeriesIPCA12M.String())
	assert.Equal(t, "sgs_11", bcb.SeriesCode(11).String())
}
