package geocode

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForwardSearchParsesCandidates(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		fmt.Fprint(w, `{"features":[
			{"id":"place.1","place_name":"Park Avenue, Vienna","center":[16.37,48.21]},
			{"id":"place.2","place_name":"Park Street, Graz","center":[15.44,47.07]},
			{"id":"place.3","place_name":"Broken","center":[1.0]}
		]}`)
	}))
	defer server.Close()

	client := NewClient("test-key").WithBaseURL(server.URL)
	candidates, err := client.ForwardSearch(context.Background(), "park")
	require.NoError(t, err)

	require.Len(t, candidates, 2, "feature without both coordinates is skipped")
	assert.Equal(t, "/park.json", gotPath)
	assert.Equal(t, "place.1", candidates[0].PlaceID)
	assert.Equal(t, "Park Avenue, Vienna", candidates[0].DisplayName)
	assert.Equal(t, 16.37, candidates[0].Longitude)
	assert.Equal(t, 48.21, candidates[0].Latitude)
}

func TestForwardSearchCapsAtFiveCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"features":[`)
		for i := 0; i < 7; i++ {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"id":"place.%d","place_name":"Place %d","center":[16.0,48.0]}`, i, i)
		}
		fmt.Fprint(w, `]}`)
	}))
	defer server.Close()

	client := NewClient("test-key").WithBaseURL(server.URL)
	candidates, err := client.ForwardSearch(context.Background(), "place")
	require.NoError(t, err)
	assert.Len(t, candidates, 5)
}

func TestForwardSearchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient("test-key").WithBaseURL(server.URL)
	_, err := client.ForwardSearch(context.Background(), "park")
	assert.Error(t, err)
}

func TestReverseReturnsNearestPlace(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		fmt.Fprint(w, `{"features":[{"id":"place.9","place_name":"Stephansplatz, Vienna","center":[16.3725,48.2084]}]}`)
	}))
	defer server.Close()

	client := NewClient("test-key").WithBaseURL(server.URL)
	place, err := client.Reverse(context.Background(), 16.3725, 48.2084)
	require.NoError(t, err)
	assert.Equal(t, "Stephansplatz, Vienna", place)
}

func TestReverseNoResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"features":[]}`)
	}))
	defer server.Close()

	client := NewClient("test-key").WithBaseURL(server.URL)
	_, err := client.Reverse(context.Background(), 0, 0)
	assert.Error(t, err)
}
