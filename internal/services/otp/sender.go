package otp

import "context"

// discardSender is used when no Sender is configured.
type discardSender struct{}

func (discardSender) Send(context.Context, Delivery) error { return nil }
