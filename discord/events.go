package discord

import "github.com/bwmarrin/discordgo"

func onReady(e chan interface{}) func(s *discordgo.Session, r *discordgo.Ready) {
	return func(s *discordgo.Session, r *discordgo.Ready) {
		e <- r
	}
}

func onDisconnect(e chan interface{}) func(s *discordgo.Session, d *discordgo.Disconnect) {
	return func(s *discordgo.Session, d *discordgo.Disconnect) {
		e <- d
	}
}

func onGuildCreate(e chan interface{}) func(s *discordgo.Session, g *discordgo.GuildCreate) {
	return func(s *discordgo.Session, g *discordgo.GuildCreate) {
		e <- g
	}
}

func onMessageCreate(e chan interface{}) func(s *discordgo.Session, m *discordgo.MessageCreate) {
	return func(s *discordgo.Session, m *discordgo.MessageCreate) {
		e <- m
	}
}

func onInteractionCreate(e chan interface{}) func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		e <- i
	}
}
