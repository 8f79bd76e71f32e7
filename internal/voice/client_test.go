package voice

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSayDeliversInOrder(t *testing.T) {
	var mu sync.Mutex
	var got []Utterance
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var u Utterance
		require.NoError(t, json.Unmarshal(body, &u))
		mu.Lock()
		got = append(got, u)
		mu.Unlock()
	}))
	defer srv.Close()

	c := NewClient(srv.URL, true, nil)
	c.Say("Moderator", "Welcome to the panel.")
	c.Say("Alpha", "I am confident in YES.")
	c.Say("Beta", "The base rate disagrees.")
	c.Close()

	require.Len(t, got, 3)
	assert.Equal(t, "Moderator", got[0].Speaker)
	assert.Equal(t, "Alpha", got[1].Speaker)
	assert.Equal(t, "Beta", got[2].Speaker)
}

func TestSayDisabled(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	c := NewClient(srv.URL, false, nil)
	c.Say("Alpha", "should not be sent")
	c.Close()

	assert.Zero(t, calls)
	assert.False(t, c.Enabled())
}

func TestSaySilentWhenDaemonDown(t *testing.T) {
	c := NewClient("http://127.0.0.1:1/speak", true, nil)
	c.Say("Alpha", "nobody is listening")
	c.Close()
}

func TestSayIgnoresEmptyText(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	c := NewClient(srv.URL, true, nil)
	c.Say("Alpha", "")
	c.Close()

	assert.Zero(t, calls)
}
