package datasource

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoerceParam(t *testing.T) {
	assert.Equal(t, int64(5), coerceParam(int(5)))
	assert.Equal(t, int64(5), coerceParam(int32(5)))
	assert.Equal(t, int64(5), coerceParam(int64(5)))
	assert.Equal(t, 1.5, coerceParam(1.5))
	assert.Equal(t, true, coerceParam(true))
	assert.Nil(t, coerceParam(nil))
	assert.Equal(t, "hello", coerceParam("hello"))
}

func TestStripColonPrefix(t *testing.T) {
	assert.Equal(t, "StartDate", stripColonPrefix(":StartDate"))
	assert.Equal(t, "StartDate", stripColonPrefix("StartDate"))
}

func TestFactory_UnknownKind(t *testing.T) {
	f := NewFactory()
	_, err := f.Create("relC")
	assert.Error(t, err)
}

func TestFactory_KnownKinds(t *testing.T) {
	f := NewFactory()
	for _, kind := range []string{"relA", "relB"} {
		_, err := f.Create(kind)
		assert.NoError(t, err)
	}
}
