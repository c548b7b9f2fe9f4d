package verify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

type explorer struct {
	submit   explorerResponse
	statuses []string
	polls    int32
	form     chan map[string]string
}

func (e *explorer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method == http.MethodPost {
		_ = r.ParseForm()
		if e.form != nil {
			e.form <- map[string]string{
				"apikey":                r.PostForm.Get("apikey"),
				"action":                r.PostForm.Get("action"),
				"contractaddress":       r.PostForm.Get("contractaddress"),
				"contractname":          r.PostForm.Get("contractname"),
				"constructorArguements": r.PostForm.Get("constructorArguements"),
			}
		}
		_ = json.NewEncoder(w).Encode(e.submit)
		return
	}

	if r.URL.Query().Get("action") != "checkverifystatus" || r.URL.Query().Get("guid") != "guid-1" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	idx := int(atomic.AddInt32(&e.polls, 1)) - 1
	if idx >= len(e.statuses) {
		idx = len(e.statuses) - 1
	}
	status := "1"
	if e.statuses[idx] != "Pass - Verified" {
		status = "0"
	}
	_ = json.NewEncoder(w).Encode(explorerResponse{Status: status, Message: "OK", Result: e.statuses[idx]})
}

func newService(t *testing.T, url string) Service {
	s, err := NewService(Options{
		Url:          url,
		ApiKey:       "key",
		Timeout:      5,
		PollInterval: time.Millisecond,
		PollAttempts: 3,
	})
	require.NoError(t, err)
	return s
}

func TestNewService_RequiresApiKey(t *testing.T) {
	_, err := NewService(Options{Url: "http://localhost"})
	require.ErrorIs(t, err, ErrMissingApiKey)
}

func TestService_Verify(t *testing.T) {
	addr := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

	t.Run("passes after pending", func(t *testing.T) {
		e := &explorer{
			submit:   explorerResponse{Status: "1", Message: "OK", Result: "guid-1"},
			statuses: []string{"Pending in queue", "Pass - Verified"},
			form:     make(chan map[string]string, 1),
		}
		srv := httptest.NewServer(e)
		defer srv.Close()

		require.NoError(t, newService(t, srv.URL).Verify(context.Background(), addr, "BasicNft", []string{"0x01", "02"}))
		require.Equal(t, int32(2), atomic.LoadInt32(&e.polls))

		form := <-e.form
		require.Equal(t, "key", form["apikey"])
		require.Equal(t, "verifysourcecode", form["action"])
		require.Equal(t, addr.Hex(), form["contractaddress"])
		require.Equal(t, "BasicNft", form["contractname"])
		require.Equal(t, "0102", form["constructorArguements"])
	})
	t.Run("already verified on submit", func(t *testing.T) {
		e := &explorer{submit: explorerResponse{Status: "0", Message: "NOTOK", Result: "Contract source code already verified"}}
		srv := httptest.NewServer(e)
		defer srv.Close()

		require.NoError(t, newService(t, srv.URL).Verify(context.Background(), addr, "BasicNft", nil))
		require.Zero(t, atomic.LoadInt32(&e.polls))
	})
	t.Run("already verified on poll", func(t *testing.T) {
		e := &explorer{
			submit:   explorerResponse{Status: "1", Result: "guid-1"},
			statuses: []string{"Already Verified"},
		}
		srv := httptest.NewServer(e)
		defer srv.Close()

		require.NoError(t, newService(t, srv.URL).Verify(context.Background(), addr, "BasicNft", nil))
	})
	t.Run("rejected submission", func(t *testing.T) {
		e := &explorer{submit: explorerResponse{Status: "0", Message: "NOTOK", Result: "Invalid API Key"}}
		srv := httptest.NewServer(e)
		defer srv.Close()

		err := newService(t, srv.URL).Verify(context.Background(), addr, "BasicNft", nil)
		require.ErrorIs(t, err, ErrVerificationFailed)
	})
	t.Run("failed verification", func(t *testing.T) {
		e := &explorer{
			submit:   explorerResponse{Status: "1", Result: "guid-1"},
			statuses: []string{"Fail - Unable to verify"},
		}
		srv := httptest.NewServer(e)
		defer srv.Close()

		err := newService(t, srv.URL).Verify(context.Background(), addr, "BasicNft", nil)
		require.ErrorIs(t, err, ErrVerificationFailed)
	})
	t.Run("still pending", func(t *testing.T) {
		e := &explorer{
			submit:   explorerResponse{Status: "1", Result: "guid-1"},
			statuses: []string{"Pending in queue"},
		}
		srv := httptest.NewServer(e)
		defer srv.Close()

		err := newService(t, srv.URL).Verify(context.Background(), addr, "BasicNft", nil)
		require.ErrorIs(t, err, ErrPollTimeout)
		require.Equal(t, int32(3), atomic.LoadInt32(&e.polls))
	})
}

func TestLoadSources(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "BasicNft.sol"), []byte("contract BasicNft {}"), 0644))

	sources := LoadSources(dir, "BasicNft", "NftMarketplace")
	require.Equal(t, map[string]string{"BasicNft": "contract BasicNft {}"}, sources)
}
