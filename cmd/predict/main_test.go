package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPredict/internal/domain/models"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp(strings.NewReader(stdin), &out)
	err := app.Run(append([]string{"predict"}, args...))
	return out.String(), err
}

func TestPredictFromStdin(t *testing.T) {
	cases := []struct {
		name, in, want string
	}{
		{"empty payload", `{}`, `{"predictedPrice":null,"confidence":0.0}`},
		{"constant series", `{"historicalData":[{"close":50},{"close":50},{"close":50}],"daysAhead":3}`, `{"predictedPrice":50.00,"confidence":10.0}`},
		{"null closes", `{"historicalData":[{"close":null}],"daysAhead":1}`, `{"predictedPrice":null,"confidence":0.0}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := run(t, tc.in, "--seed", "42")
			require.NoError(t, err)
			assert.Equal(t, tc.want+"\n", out)
		})
	}
}

func TestPredictSeedIsReproducible(t *testing.T) {
	in := `{"historicalData":[{"close":10},{"close":11},{"close":10.5},{"close":12},{"close":12.4},{"close":12.1},{"close":13}],"daysAhead":4}`
	a, err := run(t, in, "--seed", "9")
	require.NoError(t, err)
	b, err := run(t, in, "--seed", "9")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestPredictMalformedPayload(t *testing.T) {
	out, err := run(t, `not json`)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidPayload)
	assert.Empty(t, out)
}

func TestPredictMissingConfig(t *testing.T) {
	_, err := run(t, `{}`, "--config", "/does/not/exist.yaml")
	require.Error(t, err)
}

func TestPredictRemote(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/predict", r.URL.Path)
		b, _ := io.ReadAll(r.Body)
		got = string(b)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"predictedPrice":101.25,"confidence":12.5}`))
	}))
	defer srv.Close()

	out, err := run(t, `{"daysAhead":2}`, "--remote", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, `{"daysAhead":2}`, got)
	assert.Equal(t, `{"predictedPrice":101.25,"confidence":12.5}`+"\n", out)
}

func TestPredictRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := run(t, `x`, "--remote", srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}
