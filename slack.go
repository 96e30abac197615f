package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/slack-go/slack"
)

type SlackCollectorConfig struct {
	Token  string
	APIURL string

	PageLimit  int
	RetryLimit int
}

func NewSlackCollectorConfig(conf *Config) *SlackCollectorConfig {
	collectorConf := &SlackCollectorConfig{
		PageLimit:  100,
		RetryLimit: 3,
	}
	collectorConf.Token = firstString([]string{
		conf.SlackToken,
		os.Getenv("SLACK_BOT_TOKEN"),
	})
	collectorConf.APIURL = conf.apiURL
	return collectorConf
}

// Collector
type SlackCollector struct {
	config      *SlackCollectorConfig
	slackClient *slack.Client

	histOldest string
	histLatest string

	logger *slog.Logger
}

func NewSlackCollector(conf *Config, collectorConf *SlackCollectorConfig, logger *slog.Logger) *SlackCollector {
	opts := []slack.Option{}
	if collectorConf.APIURL != "" {
		opts = append(opts, slack.OptionAPIURL(collectorConf.APIURL))
	}

	return &SlackCollector{
		config:      collectorConf,
		slackClient: slack.New(collectorConf.Token, opts...),
		histOldest:  slackTimestamp(conf.Oldest),
		histLatest:  slackTimestamp(conf.Latest),
		logger:      logger,
	}
}

// ConversationsList downloads the full conversations.list response,
// public and private channels, archived included.
func (c *SlackCollector) ConversationsList(ctx context.Context) ([]slack.Channel, *EndpointResult) {
	res := &EndpointResult{Endpoint: EndpointConversationsList}

	// non-nil even for an empty workspace: nil means the list failed
	// and history has nothing to iterate
	channels := []slack.Channel{}
	var cur string
	for {
		var page []slack.Channel
		var nextCursor string
		err := c.withRetry(ctx, res.Endpoint, func() error {
			var err error
			page, nextCursor, err = c.slackClient.GetConversationsContext(ctx, &slack.GetConversationsParameters{
				Types:  []string{"public_channel", "private_channel"},
				Limit:  c.config.PageLimit,
				Cursor: cur,
			})
			return err
		})
		if err != nil {
			res.Err = err
			c.logger.Error("page fetch failed", "endpoint", res.Endpoint, "error", err.Error())
			return nil, res
		}

		channels = append(channels, page...)
		res.Pages++
		res.Items += len(page)
		c.logger.Info("page fetched", "endpoint", res.Endpoint, "page", res.Pages, "items", len(page))

		if nextCursor == "" {
			break
		}
		cur = nextCursor
	}

	return channels, res
}

// UsersList downloads the full users.list response.
func (c *SlackCollector) UsersList(ctx context.Context) ([]slack.User, *EndpointResult) {
	res := &EndpointResult{Endpoint: EndpointUsersList}

	var users []slack.User
	var err error
	var attempt int
	pagination := c.slackClient.GetUsersPaginated(slack.GetUsersOptionLimit(c.config.PageLimit))
	for {
		// keep the previous pagination state on error: a failed Next
		// mutates its cursor metadata, and advancing it would turn a
		// rate-limited first page into an empty complete pagination
		next, nextErr := pagination.Next(ctx)
		if nextErr == nil {
			pagination = next
			users = append(users, pagination.Users...)
			res.Pages++
			res.Items += len(pagination.Users)
			attempt = 0
			c.logger.Info("page fetched", "endpoint", res.Endpoint, "page", res.Pages, "items", len(pagination.Users))
			continue
		}
		err = nextErr

		var rateLimited *slack.RateLimitedError
		if errors.As(err, &rateLimited) && attempt < c.config.RetryLimit {
			attempt++
			c.logger.Warn("rate limited",
				"endpoint", res.Endpoint, "retry_after", rateLimited.RetryAfter, "attempt", attempt)
			select {
			case <-ctx.Done():
				res.Err = ctx.Err()
				return nil, res
			case <-time.After(rateLimited.RetryAfter):
			}
			continue
		}
		break
	}

	if failure := pagination.Failure(err); failure != nil {
		res.Err = failure
		c.logger.Error("page fetch failed", "endpoint", res.Endpoint, "error", failure.Error())
		return nil, res
	}

	return users, res
}

// ConversationsHistory downloads conversations.history for every
// non-archived channel in the given list, bounded by the configured
// oldest/latest window. Every message is annotated with its channel ID
// before the per-channel pages are concatenated.
func (c *SlackCollector) ConversationsHistory(ctx context.Context, channels []slack.Channel) ([]slack.Message, *EndpointResult) {
	res := &EndpointResult{Endpoint: EndpointConversationsHistory}

	if channels == nil {
		res.Err = fmt.Errorf("channel list unavailable, history not attempted")
		c.logger.Error("endpoint skipped", "endpoint", res.Endpoint, "error", res.Err.Error())
		return nil, res
	}

	var messages []slack.Message
	for _, channel := range channels {
		if channel.IsArchived {
			continue
		}
		c.logger.Info("download conversations", "endpoint", res.Endpoint, "channel_id", channel.ID, "channel_name", channel.Name)

		channelMessages, err := c.channelHistory(ctx, channel.ID, res)
		if err != nil {
			res.Err = fmt.Errorf("channel %s (%s): %w", channel.ID, channel.Name, err)
			c.logger.Error("page fetch failed", "endpoint", res.Endpoint, "channel_id", channel.ID, "error", err.Error())
			return nil, res
		}
		messages = append(messages, channelMessages...)
	}

	return messages, res
}

func (c *SlackCollector) channelHistory(ctx context.Context, channelID string, res *EndpointResult) ([]slack.Message, error) {
	var messages []slack.Message
	var cur string
	for {
		params := &slack.GetConversationHistoryParameters{
			ChannelID: channelID,
			Cursor:    cur,
			Limit:     c.config.PageLimit,
			Latest:    c.histLatest,
			Oldest:    c.histOldest,
		}

		var historyRes *slack.GetConversationHistoryResponse
		err := c.withRetry(ctx, res.Endpoint, func() error {
			var err error
			historyRes, err = c.slackClient.GetConversationHistoryContext(ctx, params)
			if err != nil {
				return err
			}
			if !historyRes.Ok {
				return fmt.Errorf("slack error: %w, %+v", historyRes.Err(), historyRes.ResponseMetadata)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}

		for i := range historyRes.Messages {
			historyRes.Messages[i].Channel = channelID
		}
		messages = append(messages, historyRes.Messages...)
		res.Pages++
		res.Items += len(historyRes.Messages)
		c.logger.Info("page fetched",
			"endpoint", res.Endpoint, "channel_id", channelID, "page", res.Pages, "items", len(historyRes.Messages))

		if !historyRes.HasMore {
			break
		}
		cur = historyRes.ResponseMetaData.NextCursor
	}
	return messages, nil
}

// withRetry runs call, waiting out Slack rate limits up to RetryLimit
// times. Other errors are returned as is.
func (c *SlackCollector) withRetry(ctx context.Context, endpoint string, call func() error) error {
	var err error
	for attempt := 0; attempt <= c.config.RetryLimit; attempt++ {
		err = call()
		if err == nil {
			return nil
		}

		var rateLimited *slack.RateLimitedError
		if !errors.As(err, &rateLimited) {
			return err
		}
		c.logger.Warn("rate limited",
			"endpoint", endpoint, "retry_after", rateLimited.RetryAfter, "attempt", attempt+1)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(rateLimited.RetryAfter):
		}
	}
	return err
}
