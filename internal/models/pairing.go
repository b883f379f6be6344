package models

// Pair links a giver to the participant they buy a gift for.
type Pair struct {
	Giver    UserID `json:"giver"`
	Receiver UserID `json:"receiver"`
}

// Delivery is the outcome of a single notification attempt.
type Delivery struct {
	Recipient UserID
	Err       error
}

// Delivered reports whether the message reached the recipient.
func (d Delivery) Delivered() bool { return d.Err == nil }

// DeliveryReport aggregates the pairing notifications of one shuffle.
type DeliveryReport struct {
	ID         string
	RoomCode   string
	Deliveries []Delivery // participant order
	Successful int
	Total      int
}

// Failed returns the recipients whose delivery failed.
func (r DeliveryReport) Failed() []UserID {
	var failed []UserID
	for _, d := range r.Deliveries {
		if !d.Delivered() {
			failed = append(failed, d.Recipient)
		}
	}
	return failed
}
