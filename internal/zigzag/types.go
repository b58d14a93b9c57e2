package zigzag

import (
	"github.com/shopspring/decimal"
)

// Liquidity is one side/price level of an indicated liquidity list
type Liquidity struct {
	Side         Side
	Price        Price
	BaseQuantity float64
	Expires      *uint64
}

func (l *Liquidity) columns() []column {
	return []column{
		field("side", &l.Side),
		field("price", &l.Price),
		field("base_quantity", &l.BaseQuantity),
		optional("expires", &l.Expires),
	}
}

func (l Liquidity) MarshalJSON() ([]byte, error) {
	return encodeTuple("Liquidity", l.columns())
}

func (l *Liquidity) UnmarshalJSON(data []byte) error {
	return decodeTuple("Liquidity", data, l.columns())
}

// Order is the exchange's view of a user order
type Order struct {
	ChainID       uint32
	ID            uint32
	Market        string
	Side          Side
	Price         Price
	BaseQuantity  float64
	QuoteQuantity float64
	Expires       uint64
	UserID        string
	Status        OrderStatus
	Remaining     *RemainingOrError
	TxHash        *TxHash
}

func (o *Order) columns() []column {
	return []column{
		field("chain_id", &o.ChainID),
		field("id", &o.ID),
		field("market", &o.Market),
		field("side", &o.Side),
		field("price", &o.Price),
		field("base_quantity", &o.BaseQuantity),
		field("quote_quantity", &o.QuoteQuantity),
		field("expires", &o.Expires),
		field("user_id", &o.UserID),
		field("status", &o.Status),
		optional("remaining", &o.Remaining),
		optional("tx_hash", &o.TxHash),
	}
}

func (o Order) MarshalJSON() ([]byte, error) {
	return encodeTuple("Order", o.columns())
}

func (o *Order) UnmarshalJSON(data []byte) error {
	return decodeTuple("Order", data, o.columns())
}

// Fill is a match between a taker and a maker order. TxHash is null on the
// wire until the fill is broadcast.
type Fill struct {
	ChainID      uint32
	ID           uint32
	Market       string
	Side         Side
	Price        Price
	BaseQuantity float64
	Status       OrderStatus
	TxHash       *TxHash
	TakerUserID  string
	MakerUserID  string
	FeeAmount    *float64
	FeeToken     *string
	Timestamp    *string
}

func (f *Fill) columns() []column {
	return []column{
		field("chain_id", &f.ChainID),
		field("id", &f.ID),
		field("market", &f.Market),
		field("side", &f.Side),
		field("price", &f.Price),
		field("base_quantity", &f.BaseQuantity),
		field("status", &f.Status),
		optional("tx_hash", &f.TxHash),
		field("taker_user_id", &f.TakerUserID),
		field("maker_user_id", &f.MakerUserID),
		optional("fee_amount", &f.FeeAmount),
		optional("fee_token", &f.FeeToken),
		optional("timestamp", &f.Timestamp),
	}
}

func (f Fill) MarshalJSON() ([]byte, error) {
	return encodeTuple("Fill", f.columns())
}

func (f *Fill) UnmarshalJSON(data []byte) error {
	return decodeTuple("Fill", data, f.columns())
}

// FillStatus is a status update for a single fill
type FillStatus struct {
	ChainID   uint32
	FillID    uint32
	Status    OrderStatus
	TxHash    *TxHash
	Remaining RemainingOrError
	FeeAmount *float64
	FeeToken  *string
	Timestamp *uint64
}

func (s *FillStatus) columns() []column {
	return []column{
		field("chain_id", &s.ChainID),
		field("fill_id", &s.FillID),
		field("status", &s.Status),
		optional("tx_hash", &s.TxHash),
		field("remaining", &s.Remaining),
		optional("fee_amount", &s.FeeAmount),
		optional("fee_token", &s.FeeToken),
		optional("timestamp", &s.Timestamp),
	}
}

func (s FillStatus) MarshalJSON() ([]byte, error) {
	return encodeTuple("FillStatus", s.columns())
}

func (s *FillStatus) UnmarshalJSON(data []byte) error {
	return decodeTuple("FillStatus", data, s.columns())
}

// PriceUpdate is a last-price tick for one market
type PriceUpdate struct {
	Market      string
	Price       Price
	PriceChange Price
	QuoteVolume *float64
	BaseVolume  *float64
}

func (u *PriceUpdate) columns() []column {
	return []column{
		field("market", &u.Market),
		field("price", &u.Price),
		field("price_change", &u.PriceChange),
		optional("quote_volume", &u.QuoteVolume),
		optional("base_volume", &u.BaseVolume),
	}
}

func (u PriceUpdate) MarshalJSON() ([]byte, error) {
	return encodeTuple("PriceUpdate", u.columns())
}

func (u *PriceUpdate) UnmarshalJSON(data []byte) error {
	return decodeTuple("PriceUpdate", data, u.columns())
}

// Volume is the traded volume of a market on one day
type Volume struct {
	ChainID     uint32
	Market      string
	Date        string
	BaseVolume  float64
	QuoteVolume float64
}

func (v *Volume) columns() []column {
	return []column{
		field("chain_id", &v.ChainID),
		field("market", &v.Market),
		field("date", &v.Date),
		field("base_volume", &v.BaseVolume),
		field("quote_volume", &v.QuoteVolume),
	}
}

func (v Volume) MarshalJSON() ([]byte, error) {
	return encodeTuple("Volume", v.columns())
}

func (v *Volume) UnmarshalJSON(data []byte) error {
	return decodeTuple("Volume", data, v.columns())
}

// Asset describes a token listed on the exchange
type Asset struct {
	ID             uint32 `json:"id"`
	Address        string `json:"address"`
	Symbol         string `json:"symbol"`
	Decimals       uint32 `json:"decimals"`
	EnabledForFees bool   `json:"enabledForFees"`
}

// MarketInfo describes a market. It is a keyed object on the wire; keys not
// listed here (minSize, maxSize, id) are ignored.
type MarketInfo struct {
	BaseAssetID           uint32 `json:"baseAssetId"`
	QuoteAssetID          uint32 `json:"quoteAssetId"`
	BaseFee               Price  `json:"baseFee"`
	QuoteFee              Price  `json:"quoteFee"`
	ZigzagChainID         uint32 `json:"zigzagChainId"`
	PricePrecisionDecimal uint32 `json:"pricePrecisionDecimal"`
	BaseAsset             Asset  `json:"baseAsset"`
	QuoteAsset            Asset  `json:"quoteAsset"`
	Alias                 string `json:"alias"`
}

// TxSignature is a zkSync signature over an order
type TxSignature struct {
	PubKey    string `json:"pubKey"`
	Signature string `json:"signature"`
}

// EthSignature is the optional Ethereum signature attached to a zkSync order
type EthSignature struct {
	Type      string `json:"type"`
	Signature string `json:"signature"`
}

// ZksyncOrder is a signed zkSync order. The codec carries it opaquely; big
// integers are radix-10 strings on the wire.
type ZksyncOrder struct {
	AccountID    uint32             `json:"accountId"`
	Recipient    string             `json:"recipient"`
	Nonce        uint32             `json:"nonce"`
	TokenBuy     uint32             `json:"tokenBuy"`
	TokenSell    uint32             `json:"tokenSell"`
	Ratio        [2]decimal.Decimal `json:"ratio"`
	Amount       decimal.Decimal    `json:"amount"`
	Signature    TxSignature        `json:"signature"`
	EthSignature *EthSignature      `json:"ethSignature,omitempty"`
	ValidFrom    uint64             `json:"validFrom"`
	ValidUntil   uint64             `json:"validUntil"`
}
