package zigzag

// Login authenticates the connection as a user on a chain
type Login struct {
	ChainID uint32
	UserID  string
}

func (o *Login) columns() []column {
	return []column{
		field("chain_id", &o.ChainID),
		field("user_id", &o.UserID),
	}
}

// Submitorder3 submits a signed zkSync order to a market
type Submitorder3 struct {
	ChainID uint32
	Market  string
	ZkOrder ZksyncOrder
}

func (o *Submitorder3) columns() []column {
	return []column{
		field("chain_id", &o.ChainID),
		field("market", &o.Market),
		field("zk_order", &o.ZkOrder),
	}
}

// Indicateliq2 indicates market maker liquidity
type Indicateliq2 struct {
	ChainID   uint32
	Market    string
	Liquidity []Liquidity
}

func (o *Indicateliq2) columns() []column {
	return []column{
		field("chain_id", &o.ChainID),
		field("market", &o.Market),
		field("liquidity", &o.Liquidity),
	}
}

// Fillrequest asks to fill an order with a counter order
type Fillrequest struct {
	ChainID   uint32
	OrderID   uint32
	FillOrder ZksyncOrder
}

func (o *Fillrequest) columns() []column {
	return []column{
		field("chain_id", &o.ChainID),
		field("order_id", &o.OrderID),
		field("fill_order", &o.FillOrder),
	}
}

// Userordermatch notifies a market maker of a matched taker order
type Userordermatch struct {
	ChainID    uint32
	TakerOrder ZksyncOrder
	MakerOrder ZksyncOrder
}

func (o *Userordermatch) columns() []column {
	return []column{
		field("chain_id", &o.ChainID),
		field("taker_order", &o.TakerOrder),
		field("maker_order", &o.MakerOrder),
	}
}

// Orderreceiptreq requests the receipt of an order
type Orderreceiptreq struct {
	ChainID uint32
	OrderID uint32
}

func (o *Orderreceiptreq) columns() []column {
	return []column{
		field("chain_id", &o.ChainID),
		field("order_id", &o.OrderID),
	}
}

// Orderreceipt is the receipt of an order
type Orderreceipt struct {
	Order
}

// Fillreceiptreq requests the receipt of a fill
type Fillreceiptreq struct {
	ChainID uint32
	OrderID uint32
}

func (o *Fillreceiptreq) columns() []column {
	return []column{
		field("chain_id", &o.ChainID),
		field("order_id", &o.OrderID),
	}
}

// Fillreceipt is the receipt of a fill
type Fillreceipt struct {
	Fill
}

// Orders lists a user's orders
type Orders struct {
	Orders []Order
}

func (o *Orders) columns() []column {
	return []column{field("orders", &o.Orders)}
}

// Fills lists fills
type Fills struct {
	Fills []Fill
}

func (o *Fills) columns() []column {
	return []column{field("fills", &o.Fills)}
}

// Fillstatus carries fill status updates
type Fillstatus struct {
	Statuses []FillStatus
}

func (o *Fillstatus) columns() []column {
	return []column{field("statuses", &o.Statuses)}
}

// Liquidity2 is the liquidity of a market
type Liquidity2 struct {
	ChainID   uint32
	Market    string
	Liquidity []Liquidity
}

func (o *Liquidity2) columns() []column {
	return []column{
		field("chain_id", &o.ChainID),
		field("market", &o.Market),
		field("liquidity", &o.Liquidity),
	}
}

// Refreshliquidity asks for a fresh liquidity snapshot
type Refreshliquidity struct {
	ChainID uint32
	Market  string
}

func (o *Refreshliquidity) columns() []column {
	return []column{
		field("chain_id", &o.ChainID),
		field("market", &o.Market),
	}
}

// Lastprice carries last price updates
type Lastprice struct {
	Updates []PriceUpdate
}

func (o *Lastprice) columns() []column {
	return []column{field("updates", &o.Updates)}
}

// Marketsummary is the 24h summary of a market
type Marketsummary struct {
	Market      string
	Price       Price
	High24      Price
	Low24       Price
	PriceChange Price
	BaseVolume  float64
	QuoteVolume float64
}

func (o *Marketsummary) columns() []column {
	return []column{
		field("market", &o.Market),
		field("price", &o.Price),
		field("high_24", &o.High24),
		field("low_24", &o.Low24),
		field("price_change", &o.PriceChange),
		field("base_volume", &o.BaseVolume),
		field("quote_volume", &o.QuoteVolume),
	}
}

// Subscribemarket subscribes to a market's feeds
type Subscribemarket struct {
	ChainID uint32
	Market  string
}

func (o *Subscribemarket) columns() []column {
	return []column{
		field("chain_id", &o.ChainID),
		field("market", &o.Market),
	}
}

// Unsubscribemarket drops a market subscription
type Unsubscribemarket struct {
	ChainID uint32
	Market  string
}

func (o *Unsubscribemarket) columns() []column {
	return []column{
		field("chain_id", &o.ChainID),
		field("market", &o.Market),
	}
}

// Userorderack acknowledges a submitted order
type Userorderack struct {
	Order
}

// Cancelall cancels every open order of a user
type Cancelall struct {
	ChainID uint32
	UserID  string
}

func (o *Cancelall) columns() []column {
	return []column{
		field("chain_id", &o.ChainID),
		field("user_id", &o.UserID),
	}
}

// Requestquote asks for a quote on a market
type Requestquote struct {
	ChainID       uint32
	Market        string
	Side          Side
	BaseQuantity  float64
	QuoteQuantity float64
}

func (o *Requestquote) columns() []column {
	return []column{
		field("chain_id", &o.ChainID),
		field("market", &o.Market),
		field("side", &o.Side),
		field("base_quantity", &o.BaseQuantity),
		field("quote_quantity", &o.QuoteQuantity),
	}
}

// Quote answers a Requestquote
type Quote struct {
	ChainID       uint32
	Market        string
	Side          Side
	BaseQuantity  float64
	Price         Price
	QuoteQuantity float64
}

func (o *Quote) columns() []column {
	return []column{
		field("chain_id", &o.ChainID),
		field("market", &o.Market),
		field("side", &o.Side),
		field("base_quantity", &o.BaseQuantity),
		field("price", &o.Price),
		field("quote_quantity", &o.QuoteQuantity),
	}
}

// Marketinfo describes one market
type Marketinfo struct {
	MarketInfo MarketInfo
}

func (o *Marketinfo) columns() []column {
	return []column{field("market_info", &o.MarketInfo)}
}

// Marketinfo2 describes several markets
type Marketinfo2 struct {
	MarketInfos []MarketInfo
}

func (o *Marketinfo2) columns() []column {
	return []column{field("market_infos", &o.MarketInfos)}
}

// Marketreq requests the market list of a chain
type Marketreq struct {
	ChainID  uint32
	Detailed bool
}

func (o *Marketreq) columns() []column {
	return []column{
		field("chain_id", &o.ChainID),
		field("detailed", &o.Detailed),
	}
}

// Dailyvolumereq requests daily volumes of a chain
type Dailyvolumereq struct {
	ChainID uint32
}

func (o *Dailyvolumereq) columns() []column {
	return []column{field("chain_id", &o.ChainID)}
}

// Dailyvolume carries daily volumes
type Dailyvolume struct {
	Volumes []Volume
}

func (o *Dailyvolume) columns() []column {
	return []column{field("volumes", &o.Volumes)}
}

// Error reports a failed operation
type Error struct {
	Operation string
	Message   string
}

func (o *Error) columns() []column {
	return []column{
		field("operation", &o.Operation),
		field("error", &o.Message),
	}
}
