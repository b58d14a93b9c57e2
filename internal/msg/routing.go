package msg

import (
	"strconv"

	"github.com/ismaiel54/zigzag-trading-bridge/internal/zigzag"
)

// TopicFor returns the topic an operation is published on. Operations a
// client sends to the exchange route to TopicCommands.
func TopicFor(op zigzag.Operation) string {
	switch op.(type) {
	case *zigzag.Orderreceipt, *zigzag.Userorderack, *zigzag.Orders:
		return TopicOrders
	case *zigzag.Fillreceipt, *zigzag.Fills, *zigzag.Fillstatus, *zigzag.Userordermatch:
		return TopicFills
	case *zigzag.Lastprice, *zigzag.Marketsummary, *zigzag.Liquidity2,
		*zigzag.Marketinfo, *zigzag.Marketinfo2, *zigzag.Dailyvolume, *zigzag.Quote:
		return TopicMarket
	case *zigzag.Error:
		return TopicErrors
	default:
		return TopicCommands
	}
}

// KeyFor returns the record key for op. Records for one market, order or
// user land on the same partition.
func KeyFor(op zigzag.Operation) string {
	switch v := op.(type) {
	case *zigzag.Orderreceipt:
		return OrderKey(v.ChainID, v.ID)
	case *zigzag.Userorderack:
		return OrderKey(v.ChainID, v.ID)
	case *zigzag.Fillreceipt:
		return FillKey(v.ChainID, v.ID)
	case *zigzag.Fillstatus:
		if len(v.Statuses) == 1 {
			return FillKey(v.Statuses[0].ChainID, v.Statuses[0].FillID)
		}
	case *zigzag.Submitorder3:
		return v.Market
	case *zigzag.Indicateliq2:
		return v.Market
	case *zigzag.Liquidity2:
		return v.Market
	case *zigzag.Refreshliquidity:
		return v.Market
	case *zigzag.Marketsummary:
		return v.Market
	case *zigzag.Subscribemarket:
		return v.Market
	case *zigzag.Unsubscribemarket:
		return v.Market
	case *zigzag.Requestquote:
		return v.Market
	case *zigzag.Quote:
		return v.Market
	case *zigzag.Marketinfo:
		return v.MarketInfo.Alias
	case *zigzag.Login:
		return v.UserID
	case *zigzag.Cancelall:
		return v.UserID
	case *zigzag.Error:
		return v.Operation
	}
	return zigzag.Tag(op)
}

// OrderKey is the record key for one order
func OrderKey(chainID, orderID uint32) string {
	return "order:" + strconv.FormatUint(uint64(chainID), 10) + ":" + strconv.FormatUint(uint64(orderID), 10)
}

// FillKey is the record key for one fill
func FillKey(chainID, fillID uint32) string {
	return "fill:" + strconv.FormatUint(uint64(chainID), 10) + ":" + strconv.FormatUint(uint64(fillID), 10)
}
