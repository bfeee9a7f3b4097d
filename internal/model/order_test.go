package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestParseOrderStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    OrderStatus
		wantErr bool
	}{
		{in: "PROCESSING", want: OrderStatusProcessing},
		{in: "out_for_delivery", want: OrderStatusOutForDelivery},
		{in: " In Transit ", want: OrderStatusInTransit},
		{in: "rto", want: OrderStatusRTO},
		{in: "PAID", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOrderStatus(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOrderStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusPending, OrderStatusProcessing, true},
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusOutForDelivery, OrderStatusUndelivered, true},
		{OrderStatusRTO, OrderStatusReturned, true},
		{OrderStatusDelivered, OrderStatusDelivered, true},
		{OrderStatusPending, OrderStatusDelivered, false},
		{OrderStatusDelivered, OrderStatusInTransit, false},
		{OrderStatusCancelled, OrderStatusProcessing, false},
		{OrderStatusInTransit, OrderStatusCancelled, false},
		{OrderStatus("BOGUS"), OrderStatus("BOGUS"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestOrderStatus_Terminal(t *testing.T) {
	assert.True(t, OrderStatusDelivered.Terminal())
	assert.True(t, OrderStatusReturned.Terminal())
	assert.True(t, OrderStatusCancelled.Terminal())
	assert.False(t, OrderStatusShipped.Terminal())
	assert.False(t, OrderStatus("BOGUS").Terminal())
}

func TestDecodeTrackingEvents_CoercesNonArray(t *testing.T) {
	assert.Empty(t, DecodeTrackingEvents(nil))
	assert.Empty(t, DecodeTrackingEvents(datatypes.JSON(`{"status":"SHIPPED"}`)))
	assert.Empty(t, DecodeTrackingEvents(datatypes.JSON(`null`)))
	assert.Empty(t, DecodeTrackingEvents(datatypes.JSON(`"garbage"`)))

	events := DecodeTrackingEvents(datatypes.JSON(`[{"key":"k1","status":"SHIPPED","source":"carrier"}]`))
	require.Len(t, events, 1)
	assert.Equal(t, "k1", events[0].Key)
}

func TestMergeTrackingEvents_Dedup(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	ev := TrackingEvent{Status: "IN_TRANSIT", Location: "Delhi Hub", Timestamp: at, Source: EventSourceCarrier}.WithKey("AWB123")

	events, added := MergeTrackingEvents(nil, ev)
	assert.Equal(t, 1, added)

	events, added = MergeTrackingEvents(events, ev)
	assert.Equal(t, 0, added)
	assert.Len(t, events, 1)

	other := TrackingEvent{Status: "DELIVERED", Timestamp: at.Add(time.Hour), Source: EventSourceCarrier}.WithKey("AWB123")
	events, added = MergeTrackingEvents(events, other, other)
	assert.Equal(t, 1, added)
	assert.Len(t, events, 2)
	assert.Equal(t, "DELIVERED", events[1].Status)
}

func TestEventKey_Stable(t *testing.T) {
	at := time.Date(2026, 3, 1, 16, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))

	k1 := EventKey("carrier", "AWB1", "in transit", at, " Delhi ")
	k2 := EventKey("carrier", "AWB1", "IN TRANSIT", at.UTC(), "delhi")

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, EventKey("courier", "AWB1", "IN TRANSIT", at, "delhi"))
}
