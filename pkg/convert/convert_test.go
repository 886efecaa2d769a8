package convert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrTo(t *testing.T) {
	assert.Equal(t, 12, StrTo(" 12 ").MustInt())
	assert.Equal(t, 0, StrTo("x").MustInt())
	id, err := StrTo("9007199254740993").Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(9007199254740993), id)
	_, err = StrTo("1e3").Int64()
	assert.Error(t, err)
}

type srcFolder struct {
	ID        int64
	Name      string
	CreatedAt time.Time
	Internal  string
}

type dstFolder struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

func TestStructAssign(t *testing.T) {
	now := time.Now()
	dst := &dstFolder{}
	require.NoError(t, StructAssign(&srcFolder{ID: 3, Name: "work", CreatedAt: now, Internal: "x"}, dst))
	assert.Equal(t, int64(3), dst.ID)
	assert.Equal(t, "work", dst.Name)
	assert.True(t, now.Equal(dst.CreatedAt))
}
