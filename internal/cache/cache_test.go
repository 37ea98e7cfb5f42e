package cache

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAddr = "EQDk2VTvn04SUKJrW7rXahzdF8_Qi6utb0wj43InCu9vdjrR"

func TestAccountCacheSetGet(t *testing.T) {
	t.Parallel()
	c := NewAccountCache()

	c.Set(AccountView{
		Address: testAddr,
		Balance: big.NewInt(50000000),
		State:   "active",
	})

	view, exists, age := c.Get(testAddr)
	require.True(t, exists)
	assert.Equal(t, "active", view.State)
	assert.Equal(t, int64(50000000), view.Balance.Int64())
	assert.Less(t, age, time.Second)
}

func TestAccountCacheMiss(t *testing.T) {
	t.Parallel()
	c := NewAccountCache()

	_, exists, _ := c.Get(testAddr)
	assert.False(t, exists)
	assert.True(t, c.IsStale(testAddr))
}

func TestAccountCacheInvalidate(t *testing.T) {
	t.Parallel()
	c := NewAccountCache()

	c.Set(AccountView{Address: testAddr, Balance: big.NewInt(1), State: "uninitialized"})
	c.Invalidate(testAddr)

	_, exists, _ := c.Get(testAddr)
	assert.False(t, exists)
}

func TestAccountCacheStaleness(t *testing.T) {
	t.Parallel()
	c := NewAccountCache()

	c.Set(AccountView{Address: testAddr, Balance: big.NewInt(1), State: "active"})
	assert.False(t, c.IsStaleWithDuration(testAddr, time.Minute))
	assert.True(t, c.IsStaleWithDuration(testAddr, 0))
}
