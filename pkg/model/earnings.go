package model

import "time"

type Earnings struct {
	HostID              string     `json:"host_id"`
	From                *time.Time `json:"from,omitempty"`
	To                  *time.Time `json:"to,omitempty"`
	TotalRevenue        int64      `json:"total_revenue"`
	TotalRefunds        int64      `json:"total_refunds"`
	NetEarnings         int64      `json:"net_earnings"`
	TotalBookings       int64      `json:"total_bookings"`
	AverageBookingValue float64    `json:"average_booking_value"`
}
