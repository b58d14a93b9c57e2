package zigzag

import (
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pair has two required fields and one trailing optional field
type pair struct {
	ChainID uint32
	Market  string
	Expires *uint64
}

func (p *pair) columns() []column {
	return []column{
		field("chain_id", &p.ChainID),
		field("market", &p.Market),
		optional("expires", &p.Expires),
	}
}

func u64(v uint64) *uint64 { return &v }
func f64(v float64) *float64 { return &v }
func str(v string) *string { return &v }
func ptrHash(h TxHash) *TxHash { return &h }

func TestTuple_TrailingOptional(t *testing.T) {
	absent := pair{ChainID: 1000, Market: "ETH-USDT"}
	b, err := encodeTuple("pair", absent.columns())
	require.NoError(t, err)
	assert.JSONEq(t, `[1000,"ETH-USDT"]`, string(b))

	present := pair{ChainID: 1000, Market: "ETH-USDT", Expires: u64(1642677967)}
	b, err = encodeTuple("pair", present.columns())
	require.NoError(t, err)
	assert.JSONEq(t, `[1000,"ETH-USDT",1642677967]`, string(b))

	var got pair
	require.NoError(t, decodeTuple("pair", []byte(`[1000,"ETH-USDT"]`), got.columns()))
	assert.Equal(t, absent, got)
	assert.Nil(t, got.Expires)

	got = pair{}
	require.NoError(t, decodeTuple("pair", []byte(`[1000,"ETH-USDT",null]`), got.columns()))
	assert.Nil(t, got.Expires)
}

func TestTuple_ArityMismatch(t *testing.T) {
	var p pair
	for _, raw := range []string{`[1000]`, `[]`, `[1000,"ETH-USDT",1,2]`} {
		err := decodeTuple("pair", []byte(raw), p.columns())
		require.Error(t, err, raw)
		assert.True(t, errors.Is(err, ErrArityMismatch), raw)

		var de *DecodeError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, "pair", de.Schema)
		assert.Contains(t, de.Detail, "2..3")
	}
}

func TestTuple_TypeMismatch(t *testing.T) {
	var p pair
	err := decodeTuple("pair", []byte(`{"chain_id":1}`), p.columns())
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	err = decodeTuple("pair", []byte(`["1000","ETH-USDT"]`), p.columns())
	require.True(t, errors.Is(err, ErrTypeMismatch))
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "chain_id", de.Field)

	err = decodeTuple("pair", []byte(`[null,"ETH-USDT"]`), p.columns())
	assert.True(t, errors.Is(err, ErrTypeMismatch))
}

func TestLiquidity_Encode(t *testing.T) {
	l := Liquidity{Side: Buy, Price: FloatPrice(3100), BaseQuantity: 1.2322, Expires: u64(1642677967)}
	b, err := json.Marshal(l)
	require.NoError(t, err)
	assert.JSONEq(t, `["b",3100,1.2322,1642677967]`, string(b))

	l.Expires = nil
	b, err = json.Marshal(l)
	require.NoError(t, err)
	assert.JSONEq(t, `["b",3100,1.2322]`, string(b))
}

func TestLiquidity_Decode(t *testing.T) {
	var l Liquidity
	require.NoError(t, json.Unmarshal([]byte(`["s", 3300, 0.2822, 1642677969]`), &l))
	assert.Equal(t, Liquidity{Side: Sell, Price: FloatPrice(3300), BaseQuantity: 0.2822, Expires: u64(1642677969)}, l)

	var l2 Liquidity
	require.NoError(t, json.Unmarshal([]byte(`["s", "3300", 0.2822]`), &l2))
	assert.Equal(t, Liquidity{Side: Sell, Price: StringPrice("3300"), BaseQuantity: 0.2822}, l2)
}

func TestFill_NullTxHashInMiddle(t *testing.T) {
	f := Fill{
		ChainID:      1000,
		ID:           7,
		Market:       "ETH-USDT",
		Side:         Buy,
		Price:        FloatPrice(3300),
		BaseQuantity: 0.5,
		Status:       Matched,
		TakerUserID:  "23",
		MakerUserID:  "24",
		FeeAmount:    f64(0.001),
	}
	b, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `[1000,7,"ETH-USDT","b",3300,0.5,"m",null,"23","24",0.001]`, string(b))

	var got Fill
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, f, got)

	// the taker and maker ids are required even though tx_hash is optional
	err = json.Unmarshal([]byte(`[1000,7,"ETH-USDT","b",3300,0.5,"m"]`), &got)
	assert.True(t, errors.Is(err, ErrArityMismatch))
}

func TestOrder_NestedErrorContext(t *testing.T) {
	var o Orders
	err := decodeTuple("Orders", []byte(`[[[1000,40,"ETH-USDT","x",1,1,1,1,"23","f"]]]`), o.columns())
	require.True(t, errors.Is(err, ErrUnknownCode), "%v", err)

	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "Orders", de.Schema)
	assert.Equal(t, "orders.side", de.Field)
}
