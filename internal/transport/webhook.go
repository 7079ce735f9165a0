// Package transport delivers the run notification and its artifacts to Slack.
package transport

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/slack-go/slack"
)

// DefaultTimeout bounds each request made to Slack.
const DefaultTimeout = 30 * time.Second

// NewHTTPClient returns the client shared by the webhook and the uploader.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}

// Webhook posts messages to an incoming-webhook URL.
type Webhook struct {
	url    string
	client *http.Client
}

// NewWebhook binds a webhook URL to an HTTP client.
func NewWebhook(url string, client *http.Client) *Webhook {
	if client == nil {
		client = NewHTTPClient()
	}
	return &Webhook{url: url, client: client}
}

// Post sends msg once. Non-2xx responses and network errors are logged and
// reported as false; there are no retries.
func (w *Webhook) Post(ctx context.Context, msg *slack.WebhookMessage) bool {
	if w.url == "" {
		logrus.Error("Slack webhook URL is empty")
		return false
	}

	if err := slack.PostWebhookCustomHTTPContext(ctx, w.url, w.client, msg); err != nil {
		logger := logrus.WithError(err)
		var statusErr slack.StatusCodeError
		if errors.As(err, &statusErr) {
			// slack-go only accepts 200; any other 2xx is a delivery too.
			if statusErr.Code >= http.StatusOK && statusErr.Code < http.StatusMultipleChoices {
				logrus.WithField("StatusCode", statusErr.Code).Info("Slack notification sent successfully")
				return true
			}
			logger = logger.WithField("StatusCode", statusErr.Code)
		}
		logger.Error("Failed to send Slack notification")
		return false
	}

	logrus.Info("Slack notification sent successfully")
	return true
}
