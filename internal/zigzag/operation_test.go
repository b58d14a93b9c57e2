package zigzag

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleZkOrder() ZksyncOrder {
	return ZksyncOrder{
		AccountID:  27334,
		Recipient:  "0x19ebaa7f212b09de2aee2a32d40338553c70e2e3",
		Nonce:      12,
		TokenBuy:   1,
		TokenSell:  65,
		Ratio:      [2]decimal.Decimal{decimal.RequireFromString("1000000000000000000"), decimal.RequireFromString("3370930000")},
		Amount:     decimal.RequireFromString("100000000000000000"),
		Signature:  TxSignature{PubKey: "a1b2", Signature: "c3d4"},
		ValidFrom:  1,
		ValidUntil: 4294967295,
	}
}

func sampleOrder() Order {
	rem := Remaining(0)
	h, _ := ParseTxHash("0x600ad64c7a931753bbd3ad24cc21efb8513de1dab67daf25b934db8d01f91ed9")
	return Order{
		ChainID:       1000,
		ID:            40,
		Market:        "ETH-USDT",
		Side:          Sell,
		Price:         FloatPrice(3370.93),
		BaseQuantity:  0.1,
		QuoteQuantity: 337.093,
		Expires:       4294967295,
		UserID:        "23",
		Status:        Filled,
		Remaining:     &rem,
		TxHash:        &h,
	}
}

func sampleFill() Fill {
	h, _ := ParseTxHash("0x51c23f8bcb7aa2cc64c8da28827df6906b8bdc53818eaf398f5198a6850310f0")
	return Fill{
		ChainID:      1000,
		ID:           890013,
		Market:       "ETH-USDT",
		Side:         Buy,
		Price:        StringPrice("3300.5"),
		BaseQuantity: 0.2822,
		Status:       Filled,
		TxHash:       &h,
		TakerUserID:  "23",
		MakerUserID:  "27334",
		FeeAmount:    f64(0.0003),
		FeeToken:     str("ETH"),
		Timestamp:    str("2022-01-20T11:26:07.000Z"),
	}
}

func sampleMarketInfo() MarketInfo {
	return MarketInfo{
		BaseAssetID:           65,
		QuoteAssetID:          1,
		BaseFee:               FloatPrice(1),
		QuoteFee:              StringPrice("1.5"),
		ZigzagChainID:         1,
		PricePrecisionDecimal: 6,
		BaseAsset:             Asset{ID: 65, Address: "0x19ebaa7f212b09de2aee2a32d40338553c70e2e3", Symbol: "ARTM", Decimals: 18},
		QuoteAsset:            Asset{ID: 1, Address: "0x6b175474e89094c44da98b954eedeac495271d0f", Symbol: "DAI", Decimals: 18, EnabledForFees: true},
		Alias:                 "ARTM-DAI",
	}
}

func sampleOperations() []Operation {
	remErr := RemainingError("Not enough balance")
	partial := sampleOrder()
	partial.Remaining, partial.TxHash = nil, nil
	partial.Status = Open

	return []Operation{
		&Login{ChainID: 1000, UserID: "27334"},
		&Submitorder3{ChainID: 1000, Market: "ETH-USDT", ZkOrder: sampleZkOrder()},
		&Indicateliq2{ChainID: 1000, Market: "ETH-USDT", Liquidity: []Liquidity{
			{Side: Buy, Price: FloatPrice(3100), BaseQuantity: 1.2322, Expires: u64(1642677967)},
			{Side: Sell, Price: StringPrice("3300"), BaseQuantity: 0.2822},
		}},
		&Fillrequest{ChainID: 1000, OrderID: 40, FillOrder: sampleZkOrder()},
		&Userordermatch{ChainID: 1000, TakerOrder: sampleZkOrder(), MakerOrder: sampleZkOrder()},
		&Orderreceiptreq{ChainID: 1000, OrderID: 40},
		&Orderreceipt{Order: sampleOrder()},
		&Fillreceiptreq{ChainID: 1000, OrderID: 40},
		&Fillreceipt{Fill: sampleFill()},
		&Orders{Orders: []Order{sampleOrder(), partial}},
		&Fills{Fills: []Fill{sampleFill()}},
		&Fillstatus{Statuses: []FillStatus{
			{ChainID: 1000, FillID: 5, Status: Matched, TxHash: ptrHash(TxHash{1}), Remaining: Remaining(1), FeeAmount: f64(0.01), FeeToken: str("USDT"), Timestamp: u64(1642677969)},
			{ChainID: 1000, FillID: 6, Status: Rejected, Remaining: remErr},
		}},
		&Liquidity2{ChainID: 1000, Market: "ETH-USDT", Liquidity: []Liquidity{{Side: Sell, Price: FloatPrice(3305.5), BaseQuantity: 2}}},
		&Refreshliquidity{ChainID: 1000, Market: "ETH-USDT"},
		&Lastprice{Updates: []PriceUpdate{
			{Market: "ETH-USDT", Price: FloatPrice(3370.93), PriceChange: FloatPrice(-12.5), QuoteVolume: f64(1234.5), BaseVolume: f64(0.37)},
			{Market: "WBTC-USDT", Price: StringPrice("42000"), PriceChange: StringPrice("100")},
		}},
		&Marketsummary{Market: "ETH-USDT", Price: FloatPrice(3370.93), High24: FloatPrice(3400), Low24: StringPrice("3200"), PriceChange: FloatPrice(12), BaseVolume: 10.5, QuoteVolume: 35000},
		&Subscribemarket{ChainID: 1000, Market: "ETH-USDT"},
		&Unsubscribemarket{ChainID: 1000, Market: "ETH-USDT"},
		&Userorderack{Order: partial},
		&Cancelall{ChainID: 1000, UserID: "27334"},
		&Requestquote{ChainID: 1000, Market: "ETH-USDT", Side: Buy, BaseQuantity: 1, QuoteQuantity: 3370},
		&Quote{ChainID: 1000, Market: "ETH-USDT", Side: Buy, BaseQuantity: 1, Price: FloatPrice(3370.93), QuoteQuantity: 3370.93},
		&Marketinfo{MarketInfo: sampleMarketInfo()},
		&Marketinfo2{MarketInfos: []MarketInfo{sampleMarketInfo()}},
		&Marketreq{ChainID: 1000, Detailed: true},
		&Dailyvolumereq{ChainID: 1000},
		&Dailyvolume{Volumes: []Volume{{ChainID: 1000, Market: "ETH-USDT", Date: "2022-01-20", BaseVolume: 10, QuoteVolume: 33000}}},
		&Error{Operation: "submitorder3", Message: "Order is expired"},
	}
}

func TestOperation_RoundTrip(t *testing.T) {
	ops := sampleOperations()
	require.Len(t, ops, len(Tags()), "every registered operation needs a sample")

	seen := make(map[string]bool)
	for _, op := range ops {
		tag := Tag(op)
		require.NotEmpty(t, tag, "%T", op)
		seen[tag] = true

		frame, err := Encode(op)
		require.NoError(t, err, tag)

		got, err := Decode(frame)
		require.NoError(t, err, "%s: %s", tag, frame)
		assert.Equal(t, op, got, tag)
		assert.Equal(t, tag, Tag(got))
	}
	assert.Len(t, seen, len(Tags()))
}

func TestOperation_TagIsLowercaseTypeName(t *testing.T) {
	assert.Equal(t, "login", Tag(&Login{}))
	assert.Equal(t, "submitorder3", Tag(&Submitorder3{}))
	assert.Equal(t, "marketinfo2", Tag(&Marketinfo2{}))
	assert.Equal(t, "error", Tag(&Error{}))
	assert.Equal(t, "", Tag(&Order{}))
	for _, tag := range Tags() {
		assert.Equal(t, strings.ToLower(tag), tag)
	}
	assert.Len(t, Tags(), 28)
}

func TestEncode_Login(t *testing.T) {
	frame, err := Encode(&Login{ChainID: 1000, UserID: "27334"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"op":"login","args":[1000,"27334"]}`, string(frame))
}

func TestDecode_Login(t *testing.T) {
	op, err := Decode([]byte(`{ "op": "login", "args": [1000, "27334"] }`))
	require.NoError(t, err)
	assert.Equal(t, &Login{ChainID: 1000, UserID: "27334"}, op)
}

func TestDecode_UnknownTag(t *testing.T) {
	op, err := Decode([]byte(`{"op":"bogus","args":[]}`))
	require.Error(t, err)
	assert.Nil(t, op)
	assert.True(t, errors.Is(err, ErrUnknownOperationTag))
	assert.Contains(t, err.Error(), "bogus")

	// batched order status updates are not part of the catalog
	_, err = Decode([]byte(`{"op":"orderstatus","args":[[]]}`))
	assert.True(t, errors.Is(err, ErrUnknownOperationTag))
}

func TestDecode_BadEnvelope(t *testing.T) {
	for _, frame := range []string{
		`[1,2]`,
		`{"op":1,"args":[]}`,
		`{"args":[1000,"27334"]}`,
		`{"op":"login"}`,
		`{"op":"login","args":{"chainId":1000}}`,
	} {
		op, err := Decode([]byte(frame))
		assert.Nil(t, op, frame)
		assert.True(t, errors.Is(err, ErrTypeMismatch), "%s: %v", frame, err)
	}
}

func TestDecode_ArityMismatch(t *testing.T) {
	op, err := Decode([]byte(`{"op":"login","args":[1000]}`))
	assert.Nil(t, op)
	assert.True(t, errors.Is(err, ErrArityMismatch))

	_, err = Decode([]byte(`{"op":"login","args":[1000,"27334","extra"]}`))
	assert.True(t, errors.Is(err, ErrArityMismatch))
}

func TestDecode_PriceTypeMismatch(t *testing.T) {
	_, err := Decode([]byte(`{"op":"quote","args":[1000,"ETH-USDT","b",1,true,3370]}`))
	require.True(t, errors.Is(err, ErrTypeMismatch))
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "Quote", de.Schema)
	assert.Equal(t, "price", de.Field)
}

func TestDecode_OrderReceipt(t *testing.T) {
	frame := `
{
  "op": "orderreceipt",
  "args": [
    1000,
    40,
    "ETH-USDT",
    "s",
    3370.93,
    0.1,
    337.093,
    4294967295,
    "23",
    "f",
    0,
    "0x600ad64c7a931753bbd3ad24cc21efb8513de1dab67daf25b934db8d01f91ed9"
  ]
}`
	op, err := Decode([]byte(frame))
	require.NoError(t, err)

	receipt, ok := op.(*Orderreceipt)
	require.True(t, ok, "got %T", op)
	assert.Equal(t, "23", receipt.UserID)
	assert.InDelta(t, 3370.93, receipt.Price.Float(), 1e-9)
	assert.Equal(t, uint64(4294967295), receipt.Expires)
	assert.Equal(t, Filled, receipt.Status)
	require.NotNil(t, receipt.Remaining)
	assert.Equal(t, Remaining(0), *receipt.Remaining)
	require.NotNil(t, receipt.TxHash)
	assert.False(t, receipt.TxHash.IsZero())
}

func TestDecode_OrderReceiptWithoutOptionals(t *testing.T) {
	op, err := Decode([]byte(`{"op":"userorderack","args":[1000,41,"ETH-USDT","b","3300",0.1,330,1642677967,"23","o"]}`))
	require.NoError(t, err)
	ack := op.(*Userorderack)
	assert.Nil(t, ack.Remaining)
	assert.Nil(t, ack.TxHash)
	assert.True(t, ack.Price.IsString())
	assert.Equal(t, 3300.0, ack.Price.Float())
}

func TestDecode_MarketInfo2(t *testing.T) {
	frame := `
{
  "op": "marketinfo2",
  "args": [
    [
      {
        "baseAssetId": 65,
        "quoteAssetId": 1,
        "baseFee": 1,
        "quoteFee": 1,
        "minSize": 1,
        "maxSize": 100,
        "zigzagChainId": 1,
        "pricePrecisionDecimal": 6,
        "baseAsset": {
          "id": 65,
          "address": "0x19ebaa7f212b09de2aee2a32d40338553c70e2e3",
          "symbol": "ARTM",
          "decimals": 18,
          "enabledForFees": false
        },
        "quoteAsset": {
          "id": 1,
          "address": "0x6b175474e89094c44da98b954eedeac495271d0f",
          "symbol": "DAI",
          "decimals": 18,
          "enabledForFees": true
        },
        "id": "nORHCLNmmeS5Cp5or2Xt4gMMovgfVsbwYXA941zq0ks",
        "alias": "ARTM-DAI"
      }
    ]
  ]
}`
	op, err := Decode([]byte(frame))
	require.NoError(t, err)

	info, ok := op.(*Marketinfo2)
	require.True(t, ok, "got %T", op)
	require.Len(t, info.MarketInfos, 1)
	assert.Equal(t, "ARTM-DAI", info.MarketInfos[0].Alias)
	assert.Equal(t, uint32(18), info.MarketInfos[0].BaseAsset.Decimals)
	assert.True(t, info.MarketInfos[0].QuoteAsset.EnabledForFees)
	assert.Equal(t, 1.0, info.MarketInfos[0].BaseFee.Float())
}

func TestEncode_Rejects(t *testing.T) {
	_, err := Encode(nil)
	assert.Error(t, err)

	var login *Login
	_, err = Encode(login)
	assert.Error(t, err)

	_, err = Encode(&Order{})
	assert.True(t, errors.Is(err, ErrUnknownOperationTag))
}

func TestNew(t *testing.T) {
	op, err := New("cancelall")
	require.NoError(t, err)
	assert.IsType(t, &Cancelall{}, op)

	_, err = New("Cancelall")
	assert.True(t, errors.Is(err, ErrUnknownOperationTag))
}
