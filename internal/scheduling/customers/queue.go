package customers

import "sort"

// Queue holds Waiting customers in arrival order. Ordering for a
// scheduling policy is computed on demand, never stored, so switching
// the active policy mid-run is lossless.
//
// The queue assumes the caller holds the scheduling mutex; it does no
// locking of its own.
type Queue struct {
	waiting []*Customer
}

func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends a customer with Waiting status. The service-time
// check mirrors New so a customer constructed elsewhere cannot smuggle
// a non-positive duration into the queue.
func (q *Queue) Enqueue(c *Customer) error {
	if c.ServiceTime <= 0 {
		return ErrInvalidServiceTime
	}
	c.Status = StatusWaiting
	q.waiting = append(q.waiting, c)
	return nil
}

// Len reports the number of waiting customers.
func (q *Queue) Len() int {
	return len(q.waiting)
}

// Get returns the waiting customer with the given id.
func (q *Queue) Get(id string) (*Customer, bool) {
	for _, c := range q.waiting {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

// Waiting returns the customers in arrival order.
func (q *Queue) Waiting() []*Customer {
	out := make([]*Customer, len(q.waiting))
	copy(out, q.waiting)
	return out
}

// PeekOrdered returns a copy of the waiting customers sorted by the
// given policy comparator. Queue order itself is untouched.
func (q *Queue) PeekOrdered(less func(a, b *Customer) bool) []*Customer {
	out := q.Waiting()
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// Remove takes a customer out of the waiting set, normally as part of
// an assignment commit.
func (q *Queue) Remove(id string) (*Customer, error) {
	for i, c := range q.waiting {
		if c.ID == id {
			q.waiting = append(q.waiting[:i], q.waiting[i+1:]...)
			return c, nil
		}
	}
	return nil, ErrUnknownCustomer
}
