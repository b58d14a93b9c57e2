package main

import (
	"fmt"

	"github.com/ismaiel54/zigzag-trading-bridge/internal/zigzag"
)

// commandArgs are the flag values a command is built from
type commandArgs struct {
	ChainID       uint32
	Market        string
	UserID        string
	OrderID       uint32
	Side          string
	BaseQuantity  float64
	QuoteQuantity float64
	Detailed      bool
}

// commandTags lists the operations buildCommand can build
var commandTags = []string{
	"subscribemarket", "unsubscribemarket", "cancelall", "requestquote",
	"orderreceiptreq", "fillreceiptreq", "refreshliquidity", "marketreq", "dailyvolumereq",
}

func buildCommand(tag string, a commandArgs) (zigzag.Operation, error) {
	needMarket := func() error {
		if a.Market == "" {
			return fmt.Errorf("%s requires -market", tag)
		}
		return nil
	}

	switch tag {
	case "subscribemarket":
		if err := needMarket(); err != nil {
			return nil, err
		}
		return &zigzag.Subscribemarket{ChainID: a.ChainID, Market: a.Market}, nil
	case "unsubscribemarket":
		if err := needMarket(); err != nil {
			return nil, err
		}
		return &zigzag.Unsubscribemarket{ChainID: a.ChainID, Market: a.Market}, nil
	case "refreshliquidity":
		if err := needMarket(); err != nil {
			return nil, err
		}
		return &zigzag.Refreshliquidity{ChainID: a.ChainID, Market: a.Market}, nil
	case "cancelall":
		if a.UserID == "" {
			return nil, fmt.Errorf("cancelall requires -user")
		}
		return &zigzag.Cancelall{ChainID: a.ChainID, UserID: a.UserID}, nil
	case "requestquote":
		if err := needMarket(); err != nil {
			return nil, err
		}
		side, err := zigzag.ParseSide(a.Side)
		if err != nil {
			return nil, fmt.Errorf("requestquote requires -side b or s: %w", err)
		}
		if a.BaseQuantity <= 0 && a.QuoteQuantity <= 0 {
			return nil, fmt.Errorf("requestquote requires -base or -quote")
		}
		return &zigzag.Requestquote{
			ChainID:       a.ChainID,
			Market:        a.Market,
			Side:          side,
			BaseQuantity:  a.BaseQuantity,
			QuoteQuantity: a.QuoteQuantity,
		}, nil
	case "orderreceiptreq":
		return &zigzag.Orderreceiptreq{ChainID: a.ChainID, OrderID: a.OrderID}, nil
	case "fillreceiptreq":
		return &zigzag.Fillreceiptreq{ChainID: a.ChainID, OrderID: a.OrderID}, nil
	case "marketreq":
		return &zigzag.Marketreq{ChainID: a.ChainID, Detailed: a.Detailed}, nil
	case "dailyvolumereq":
		return &zigzag.Dailyvolumereq{ChainID: a.ChainID}, nil
	}
	return nil, fmt.Errorf("unsupported command %q, want one of %v", tag, commandTags)
}
