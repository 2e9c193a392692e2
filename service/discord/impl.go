package discord

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/mintgate/goapi/base/ctx"
	"github.com/mintgate/goapi/base/log"
)

type impl struct {
	session   *discordgo.Session
	channelId string
}

func New(botKey, channelId string) Notifier {
	session, err := discordgo.New(fmt.Sprintf("Bot %s", botKey))
	if err != nil {
		panic("failed to connect to discord")
	}
	return &impl{session, channelId}
}

func (im *impl) NotifyRuleCreated(c ctx.Ctx, ruleId, creator, contentType string, requiredCollections []string) {
	msg := &discordgo.MessageEmbed{
		Title: "New access rule",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Rule", Value: ruleId},
			{Name: "Creator", Value: creator},
			{Name: "Content type", Value: contentType},
			{Name: "Collections", Value: strings.Join(requiredCollections, ", ")},
		},
	}
	if _, err := im.session.ChannelMessageSendEmbed(im.channelId, msg); err != nil {
		c.WithFields(log.Fields{
			"err":    err,
			"ruleId": ruleId,
		}).Warn("discord notify failed")
	}
}

func (im *impl) NotifyAccessChanged(c ctx.Ctx, ruleId, user string, granted bool) {
	title := "Access granted"
	if !granted {
		title = "Access revoked"
	}
	msg := &discordgo.MessageEmbed{
		Title: title,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Rule", Value: ruleId},
			{Name: "User", Value: user},
		},
	}
	if _, err := im.session.ChannelMessageSendEmbed(im.channelId, msg); err != nil {
		c.WithFields(log.Fields{
			"err":    err,
			"ruleId": ruleId,
			"user":   user,
		}).Warn("discord notify failed")
	}
}
