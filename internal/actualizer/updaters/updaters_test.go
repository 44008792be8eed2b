package updaters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearxUpdater_ParsesYAML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("https://searx.be/:\n  comments: ok\nhttps://searx.tiekoetter.com/:\n  comments: ok\n"))
	}))
	defer srv.Close()

	u := &SearxUpdater{InstancesURL: srv.URL}
	urls, err := u.Update(context.Background(), srv.Client())
	require.NoError(t, err)
	assert.Len(t, urls, 2)
}

func TestSearxngUpdater_ParsesJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"instances": {"https://searx.space/": {}, "https://paulgo.io/": {}}}`))
	}))
	defer srv.Close()

	u := &SearxngUpdater{InstancesURL: srv.URL}
	urls, err := u.Update(context.Background(), srv.Client())
	require.NoError(t, err)
	assert.Len(t, urls, 2)
}

func TestInvidiousUpdater_DefaultsScheme(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[["yewtu.be", {"flag": "us"}], ["invidious.xyz.onion", {}]]`))
	}))
	defer srv.Close()

	u := &InvidiousUpdater{InstancesURL: srv.URL}
	urls, err := u.Update(context.Background(), srv.Client())
	require.NoError(t, err)
	assert.Contains(t, urls, "https://yewtu.be")
	assert.Contains(t, urls, "http://invidious.xyz.onion")
}

func TestLibredditUpdater_ParsesInstances(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"instances": [{"url": "https://redlib.example/"}, {"url": "https://redlib2.example/"}]}`))
	}))
	defer srv.Close()

	u := &LibredditUpdater{InstancesURL: srv.URL}
	urls, err := u.Update(context.Background(), srv.Client())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"https://redlib.example/", "https://redlib2.example/"}, urls)
}

func TestLibredirectUpdater_UnionsNetworksCaseInsensitive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"SearXNG": {"clearnet": ["https://a.example/"], "tor": ["http://a.onion/"]}}`))
	}))
	defer srv.Close()

	u := NewLibredirectUpdater("searxng")
	u.InstancesURL = srv.URL
	urls, err := u.Update(context.Background(), srv.Client())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"https://a.example/", "http://a.onion/"}, urls)
}

func TestLibredirectUpdater_MissingServiceYieldsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"other": {"clearnet": ["https://a.example/"]}}`))
	}))
	defer srv.Close()

	u := NewLibredirectUpdater("searxng")
	u.InstancesURL = srv.URL
	urls, err := u.Update(context.Background(), srv.Client())
	require.NoError(t, err)
	assert.Empty(t, urls)
}

func TestNewRegistry_HasEntriesForKnownServices(t *testing.T) {
	r := NewRegistry()
	assert.NotNil(t, r.Lookup("searx"))
	assert.NotNil(t, r.Lookup("invidious"))
	assert.NotNil(t, r.Lookup("piped")) // from the libredirect closed list
	assert.Nil(t, r.Lookup("not-a-real-service"))
}
