package events

import (
	"fmt"

	"github.com/PancyStudios/NucleoBotGo/pkg/discord"
	"github.com/PancyStudios/NucleoBotGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// RegisterShardEvents logs gateway disconnects and resumes
func RegisterShardEvents(client *discord.ExtendedClient) {
	client.EventHandler.OnDisconnect(onShardDisconnect)
	client.EventHandler.OnResumed(onShardResumed)
}

func onShardDisconnect(s *discordgo.Session, _ *discordgo.Disconnect) {
	logger.Warn(fmt.Sprintf("🔌 Shard %d desconectado.", s.ShardID), "Shard")
}

func onShardResumed(s *discordgo.Session, _ *discordgo.Resumed) {
	logger.Success(fmt.Sprintf("✅ Shard %d reanudado.", s.ShardID), "Shard")
}
