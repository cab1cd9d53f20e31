package notifications

import (
	"context"

	"github.com/9ssi7/exponent"
)

// ExpoAdapter sends pushes through the Expo push service. It exists so
// handler code depends on PushSender, not on the SDK client directly.
type ExpoAdapter struct {
	client *exponent.Client
}

func NewExpoAdapter(c *exponent.Client) *ExpoAdapter {
	return &ExpoAdapter{client: c}
}

func (a *ExpoAdapter) Publish(ctx context.Context, msgs []*exponent.Message) ([]*exponent.MessageResponse, error) {
	return a.client.Publish(ctx, msgs)
}
