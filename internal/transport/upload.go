package transport

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/slack-go/slack"
)

// channelIDRegex matches public, private and direct conversation IDs.
var channelIDRegex = regexp.MustCompile(`^[CGD][A-Z0-9]{6,}$`)

// Uploader sends files to a channel with a bot token. A zero token turns
// every upload into a logged no-op.
type Uploader struct {
	api       *slack.Client
	token     string
	channel   string
	channelID string
}

// NewUploader creates an uploader. channel is a conversation ID or a
// channel name; apiURL may be empty to use Slack's public API.
func NewUploader(token, channel, apiURL string, client *http.Client) *Uploader {
	if client == nil {
		client = NewHTTPClient()
	}
	opts := []slack.Option{slack.OptionHTTPClient(client)}
	if apiURL != "" {
		opts = append(opts, slack.OptionAPIURL(apiURL))
	}
	return &Uploader{
		api:     slack.New(token, opts...),
		token:   token,
		channel: strings.TrimPrefix(channel, "#"),
	}
}

// Enabled reports whether a bot token is configured.
func (u *Uploader) Enabled() bool {
	return u.token != ""
}

// Upload sends the file at path under filename with an optional comment.
// It returns the file permalink (possibly empty) and whether Slack accepted
// the file. Failures are logged, never returned: uploads are best effort.
func (u *Uploader) Upload(ctx context.Context, path, filename, comment string) (string, bool) {
	logger := logrus.WithFields(logrus.Fields{
		"File":    path,
		"Channel": u.channel,
	})

	if !u.Enabled() {
		logger.Info("SLACK_BOT_TOKEN not set, skipping file upload")
		return "", false
	}
	info, err := os.Stat(path)
	if err != nil {
		logger.WithError(err).Info("File not found, skipping upload")
		return "", false
	}

	channelID, err := u.resolveChannel(ctx)
	if err != nil {
		logger.WithError(err).Error("Slack file upload failed")
		return "", false
	}

	logger.Infof("Uploading %s to Slack", filename)
	summary, err := u.api.UploadFileV2Context(ctx, slack.UploadFileV2Parameters{
		File:           path,
		FileSize:       int(info.Size()),
		Filename:       filename,
		Title:          filename,
		InitialComment: comment,
		Channel:        channelID,
	})
	if err != nil {
		logger.WithError(err).Error("Slack file upload failed")
		return "", false
	}

	logger = logger.WithField("FileID", summary.ID)
	file, _, _, err := u.api.GetFileInfoContext(ctx, summary.ID, 0, 0)
	if err != nil {
		logger.WithError(err).Warn("File uploaded to Slack, permalink unavailable")
		return "", true
	}

	logger.WithField("Permalink", file.Permalink).Info("File uploaded to Slack")
	return file.Permalink, true
}

// resolveChannel turns the configured channel into a conversation ID. The
// result is cached for the lifetime of the uploader.
func (u *Uploader) resolveChannel(ctx context.Context) (string, error) {
	if u.channelID != "" {
		return u.channelID, nil
	}
	if channelIDRegex.MatchString(u.channel) {
		u.channelID = u.channel
		return u.channelID, nil
	}

	params := &slack.GetConversationsParameters{
		ExcludeArchived: true,
		Limit:           200,
		Types:           []string{"public_channel", "private_channel"},
	}
	for {
		channels, cursor, err := u.api.GetConversationsContext(ctx, params)
		if err != nil {
			return "", fmt.Errorf("failed to list channels: %w", err)
		}
		for _, c := range channels {
			if c.Name == u.channel {
				u.channelID = c.ID
				return u.channelID, nil
			}
		}
		if cursor == "" {
			return "", fmt.Errorf("channel %q not found", u.channel)
		}
		params.Cursor = cursor
	}
}
