package main

import (
	"testing"

	"github.com/ismaiel54/zigzag-trading-bridge/internal/zigzag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDecode(t *testing.T, frame string) zigzag.Operation {
	t.Helper()
	op, err := zigzag.Decode([]byte(frame))
	require.NoError(t, err)
	return op
}

func TestTally_NoDuplicates(t *testing.T) {
	tl := newTally()
	assert.Equal(t, 1, tl.add(mustDecode(t, `{"op":"fillreceipt","args":[1000,7,"ETH-USDT","b",3300,0.5,"m",null,"23","24"]}`)))
	assert.Equal(t, 1, tl.add(mustDecode(t, `{"op":"fillstatus","args":[[[1000,7,"f",null,0]]]}`)))
	assert.Equal(t, 0, tl.add(mustDecode(t, `{"op":"lastprice","args":[[["ETH-USDT",3370.93,-12.5]]]}`)))

	assert.Empty(t, tl.duplicates())
	assert.Equal(t, 2, tl.events)
}

func TestTally_ReportsDuplicates(t *testing.T) {
	tl := newTally()
	frames := []string{
		`{"op":"fills","args":[[[1000,9,"ETH-USDT","s",3300,1,"m",null,"1","2"],[1000,8,"ETH-USDT","s",3300,1,"m",null,"1","2"]]]}`,
		`{"op":"fillreceipt","args":[1000,9,"ETH-USDT","s",3300,1,"m",null,"1","2"]}`,
		`{"op":"fillstatus","args":[[[1000,8,"m",null,1]]]}`,
	}
	for _, f := range frames {
		tl.add(mustDecode(t, f))
	}

	dups := tl.duplicates()
	require.Len(t, dups, 2)
	assert.Equal(t, transition{1000, 8, zigzag.Matched}, dups[0])
	assert.Equal(t, transition{1000, 9, zigzag.Matched}, dups[1])
	assert.Equal(t, "fill 1000:8 Matched", dups[0].String())
}
