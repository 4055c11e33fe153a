package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeliveryStatus_CanTransitionTo(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		from DeliveryStatus
		to   DeliveryStatus
		want bool
	}{
		{DeliveryStatusScheduled, DeliveryStatusPending, true},
		{DeliveryStatusFailed, DeliveryStatusPending, true},
		{DeliveryStatusPending, DeliveryStatusSent, true},
		{DeliveryStatusPending, DeliveryStatusFailed, true},
		{DeliveryStatusSent, DeliveryStatusDelivered, true},
		{DeliveryStatusSent, DeliveryStatusRead, true},
		{DeliveryStatusDelivered, DeliveryStatusRead, true},
		{DeliveryStatusSent, DeliveryStatusCanceled, true},
		{DeliveryStatusScheduled, DeliveryStatusCanceled, true},

		{DeliveryStatusRead, DeliveryStatusDelivered, false},
		{DeliveryStatusDelivered, DeliveryStatusSent, false},
		{DeliveryStatusDelivered, DeliveryStatusCanceled, false},
		{DeliveryStatusRead, DeliveryStatusCanceled, false},
		{DeliveryStatusCanceled, DeliveryStatusCanceled, false},
		{DeliveryStatusSent, DeliveryStatusPending, false},
		{DeliveryStatusFailed, DeliveryStatusSent, false},
	}
	for _, tc := range testCases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func TestDeliveryStatus_Classes(t *testing.T) {
	t.Parallel()

	assert.True(t, DeliveryStatusFailed.IsRetryable())
	assert.True(t, DeliveryStatusScheduled.IsRetryable())
	assert.False(t, DeliveryStatusDelivered.IsRetryable())
	assert.False(t, DeliveryStatusPending.IsRetryable())

	for _, s := range []DeliveryStatus{DeliveryStatusDelivered, DeliveryStatusRead, DeliveryStatusCanceled} {
		assert.True(t, s.IsTerminal(), s)
	}
	for _, s := range []DeliveryStatus{DeliveryStatusSent, DeliveryStatusDelivered, DeliveryStatusRead} {
		assert.True(t, s.HasExternalID(), s)
	}
	assert.False(t, DeliveryStatusFailed.HasExternalID())
	assert.False(t, DeliveryStatusScheduled.HasExternalID())
}

func TestDeliveryRecord_ExternalIDFollowsStatus(t *testing.T) {
	t.Parallel()

	r := DeliveryRecord{}
	r.MarkSent("ext-1", r.CreatedAt)
	assert.Equal(t, "ext-1", r.ExternalID)
	assert.Equal(t, DeliveryStatusSent, r.Status)

	r.MarkFailed("HTTP_500", "boom")
	assert.Empty(t, r.ExternalID)
	assert.Equal(t, "HTTP_500", r.ErrorCode)

	r.MarkSent("ext-2", r.CreatedAt)
	assert.Empty(t, r.ErrorCode)
	assert.Empty(t, r.ErrorMessage)
}

func TestAggregate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		statuses []DeliveryStatus
		want     DispatchStatus
	}{
		{"全部成功", []DeliveryStatus{DeliveryStatusSent, DeliveryStatusSent}, DispatchStatusSuccess},
		{"部分成功", []DeliveryStatus{DeliveryStatusFailed, DeliveryStatusSent}, DispatchStatusPartial},
		{"全部失败", []DeliveryStatus{DeliveryStatusFailed, DeliveryStatusFailed}, DispatchStatusFailed},
		{"全部推迟", []DeliveryStatus{DeliveryStatusScheduled, DeliveryStatusScheduled}, DispatchStatusScheduled},
		{"推迟的不参与计算", []DeliveryStatus{DeliveryStatusScheduled, DeliveryStatusSent}, DispatchStatusSuccess},
		{"没有任何渠道", nil, DispatchStatusFailed},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			results := make([]ChannelResult, 0, len(tc.statuses))
			for _, s := range tc.statuses {
				results = append(results, ChannelResult{Status: s})
			}
			assert.Equal(t, tc.want, Aggregate(results))
		})
	}
}
