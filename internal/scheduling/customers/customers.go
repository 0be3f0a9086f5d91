// Package customers models units of service work: a priority tier, a
// required service duration, and a Waiting -> InService -> Served
// lifecycle driven by the dispatcher.
package customers

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidServiceTime = errors.New("service time must be positive")
	ErrInvalidTier        = errors.New("invalid priority tier")
	ErrUnknownCustomer    = errors.New("unknown customer id")
)

// Tier orders customers by importance: VIP > Corporate > Normal.
type Tier int

const (
	TierNormal    Tier = 1
	TierCorporate Tier = 2
	TierVIP       Tier = 3
)

func (t Tier) String() string {
	switch t {
	case TierVIP:
		return "VIP"
	case TierCorporate:
		return "Corporate"
	case TierNormal:
		return "Normal"
	}
	return "Unknown"
}

// ParseTier maps an external priority name onto a Tier.
func ParseTier(s string) (Tier, error) {
	switch s {
	case "VIP":
		return TierVIP, nil
	case "Corporate":
		return TierCorporate, nil
	case "Normal":
		return TierNormal, nil
	}
	return 0, ErrInvalidTier
}

func (t Tier) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Tier) UnmarshalText(b []byte) error {
	v, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusInService Status = "in_service"
	StatusServed    Status = "served"
)

// Customer is one unit of work. WaitTime is frozen at the moment the
// customer enters service and never recomputed afterwards.
type Customer struct {
	ID             string        `json:"customer_id"`
	Tier           Tier          `json:"priority"`
	ServiceTime    time.Duration `json:"-"`
	ArrivalAt      time.Time     `json:"arrival_time"`
	Status         Status        `json:"status"`
	AssignedAgent  string        `json:"assigned_agent,omitempty"`
	ServiceStartAt *time.Time    `json:"service_start_time,omitempty"`
	ServiceEndAt   *time.Time    `json:"service_end_time,omitempty"`
	WaitTime       time.Duration `json:"-"`
}

// New validates the boundary inputs and stamps the arrival time. A
// non-positive service time never enters scheduler state.
func New(tier Tier, serviceTime time.Duration, now time.Time) (*Customer, error) {
	if serviceTime <= 0 {
		return nil, ErrInvalidServiceTime
	}
	if tier < TierNormal || tier > TierVIP {
		return nil, ErrInvalidTier
	}
	return &Customer{
		ID:          uuid.NewString()[:8],
		Tier:        tier,
		ServiceTime: serviceTime,
		ArrivalAt:   now,
		Status:      StatusWaiting,
	}, nil
}
