// Package notify announces profile activity in a Mattermost channel.
package notify

import (
	"context"
	"fmt"

	"github.com/mattermost/mattermost-server/v6/model"
	"go.uber.org/zap"
)

type Config struct {
	MmURL     string `yaml:"MM_URL"        env:"MM_URL"`
	BotToken  string `yaml:"BOT_TOKEN"     env:"BOT_TOKEN"`
	ChannelID string `yaml:"MM_CHANNEL_ID" env:"MM_CHANNEL_ID"`
}

func (c Config) Enabled() bool {
	return c.MmURL != "" && c.BotToken != "" && c.ChannelID != ""
}

type Notifier interface {
	Followed(ctx context.Context, followerName, followingName string)
	PollCreated(ctx context.Context, ownerName, pollID string)
}

// Nop drops every event.
type Nop struct{}

func (Nop) Followed(context.Context, string, string)    {}
func (Nop) PollCreated(context.Context, string, string) {}

// Mattermost posts events into one channel. Failures are logged and dropped.
type Mattermost struct {
	client    *model.Client4
	l         *zap.Logger
	channelID string
}

func NewMattermost(config Config, l *zap.Logger) *Mattermost {
	client := model.NewAPIv4Client(config.MmURL)
	client.SetToken(config.BotToken)
	return &Mattermost{
		client:    client,
		l:         l,
		channelID: config.ChannelID,
	}
}

func (m *Mattermost) Followed(_ context.Context, followerName, followingName string) {
	m.SendMsg(fmt.Sprintf("**@%s** started following **@%s**", followerName, followingName))
}

func (m *Mattermost) PollCreated(_ context.Context, ownerName, pollID string) {
	m.SendMsg(fmt.Sprintf("**@%s** created a new poll\n**Poll ID**: %s", ownerName, pollID))
}

func (m *Mattermost) SendMsg(message string) {
	post := &model.Post{
		ChannelId: m.channelID,
		Message:   message,
	}
	_, resp, err := m.client.CreatePost(post)
	if err != nil {
		m.l.Warn("failed to send activity message",
			zap.String("channel_id", m.channelID),
			zap.Error(err))
		return
	}
	m.l.Debug("send new message",
		zap.String("channel_id", m.channelID),
		zap.String("message", message),
		zap.Int("status_code", resp.StatusCode))
}
