package tonapi_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonpocket/tonpocket/internal/chain/ton/tonapi"
	tperr "github.com/tonpocket/tonpocket/pkg/errors"
)

const owner = "EQDk2VTvn04SUKJrW7rXahzdF8_Qi6utb0wj43InCu9vdjrR"

func TestGetJettonBalances(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/v2/accounts/")
		assert.Contains(t, r.URL.Path, "/jettons")
		fmt.Fprint(w, `{"balances":[
			{"balance":"1500000000","jetton":{"address":"0:aaa","name":"Proxy TON","symbol":"pTON","decimals":9}},
			{"balance":"0","jetton":{"address":"0:bbb","name":"Dust","symbol":"DST","decimals":6}},
			{"balance":"2500000","jetton":{"address":"0:ccc","name":"Tether USD","symbol":"USDT","decimals":6}}
		]}`)
	}))
	defer srv.Close()

	client := tonapi.NewClient(srv.URL, nil)
	balances, err := client.GetJettonBalances(context.Background(), owner)
	require.NoError(t, err)

	// Zero balances are filtered out
	require.Len(t, balances, 2)
	assert.Equal(t, "pTON", balances[0].Symbol)
	assert.Equal(t, "1500000000", balances[0].Balance.String())
	assert.Equal(t, 9, balances[0].Decimals)
	assert.Equal(t, "USDT", balances[1].Symbol)
	assert.Equal(t, "2500000", balances[1].Balance.String())
}

func TestGetJettonBalancesServerError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := tonapi.NewClient(srv.URL, nil)
	_, err := client.GetJettonBalances(context.Background(), owner)
	require.Error(t, err)
	assert.True(t, tperr.IsTransient(err))
}

func TestGetJettonBalancesClientError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := tonapi.NewClient(srv.URL, nil)
	_, err := client.GetJettonBalances(context.Background(), owner)
	require.ErrorIs(t, err, tonapi.ErrAPIError)
	assert.False(t, tperr.IsTransient(err))
}
