package feature

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance_SameValueIsZero(t *testing.T) {
	for _, v := range []Value{LoadStep(0), LoadStep(100), LoadStep(-42.5)} {
		assert.Equal(t, 0.0, v.Distance(v), "value %s", v)
	}
}

func TestDistance_LoadStep(t *testing.T) {
	a := LoadStep(100)
	b := LoadStep(-50)
	assert.Equal(t, 150.0, a.Distance(b))
	assert.Equal(t, a.Distance(b), b.Distance(a))
}

func TestDistance_KindMismatchIsInfinite(t *testing.T) {
	a := LoadStep(100)
	b := Value{Kind: KindUnknown, Delta: 100}
	assert.True(t, math.IsInf(a.Distance(b), 1))
	assert.True(t, math.IsInf(b.Distance(a), 1))
	assert.True(t, math.IsInf(b.Distance(b), 1), "kinds without metric never match")
}

func TestValue_String(t *testing.T) {
	assert.Equal(t, "Step (dp=100 W)", LoadStep(100).String())
	assert.Equal(t, "Step (dp=-12.5 W)", LoadStep(-12.5).String())
}

func TestKind_JSON(t *testing.T) {
	data, err := json.Marshal(LoadStep(-300))
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"load_step","delta":-300}`, string(data))

	var v Value
	require.NoError(t, json.Unmarshal(data, &v))
	assert.Equal(t, LoadStep(-300), v)

	assert.Error(t, json.Unmarshal([]byte(`{"kind":"spike"}`), &v))
}
