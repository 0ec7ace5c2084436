package table

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payment struct {
	Reference string
	Payer     string
	Amount    int
}

func paymentColumns() []Column[payment] {
	return []Column[payment]{
		{Key: "reference", Header: "Reference", Cell: func(p payment) string { return p.Reference }},
		{Key: "payer", Header: "Payer", Cell: func(p payment) string { return p.Payer }},
		{Key: "amount", Header: "Amount", Cell: func(p payment) string { return strconv.Itoa(p.Amount) }},
	}
}

func TestRenderLoadingMasksEverything(t *testing.T) {
	snap := Snapshot[payment]{
		Loading: true,
		Err:     errors.New("boom"),
		Records: []payment{{Reference: "ref-1"}},
	}

	rows := Render(snap, paymentColumns())
	require.Len(t, rows, 1)
	assert.Equal(t, RowLoading, rows[0].Kind)
}

func TestRenderErrorMessageVerbatim(t *testing.T) {
	snap := Snapshot[payment]{Err: errors.New("connection refused")}

	rows := Render(snap, paymentColumns())
	require.Len(t, rows, 1)
	assert.Equal(t, RowError, rows[0].Kind)
	assert.Equal(t, []string{"connection refused"}, rows[0].Cells)
}

func TestRenderEmpty(t *testing.T) {
	rows := Render(Snapshot[payment]{}, paymentColumns())
	require.Len(t, rows, 1)
	assert.Equal(t, RowEmpty, rows[0].Kind)
}

func TestRenderPopulated(t *testing.T) {
	snap := Snapshot[payment]{Records: []payment{
		{Reference: "ref-1", Payer: "Ada", Amount: 5000},
		{Reference: "ref-2", Payer: "Femi", Amount: 12000},
	}}

	rows := Render(snap, paymentColumns())
	require.Len(t, rows, 2)
	assert.Equal(t, RowRecord, rows[0].Kind)
	assert.Equal(t, []string{"ref-1", "Ada", "5000"}, rows[0].Cells)
	assert.Equal(t, []string{"ref-2", "Femi", "12000"}, rows[1].Cells)
}

func TestDataset(t *testing.T) {
	records := []payment{{Reference: "ref-1", Payer: "Ada", Amount: 5000}}

	ds := Dataset(records, paymentColumns())
	assert.Equal(t, []string{"Reference", "Payer", "Amount"}, ds.Headers)
	require.Len(t, ds.Rows, 1)
	assert.Equal(t, "Ada", ds.Rows[0]["Payer"])
}
