// Package app bootstraps the bot and blocks until shutdown.
package app

import (
	"fmt"
	"os"
	"time"

	"github.com/dwarflabs/dwarfbot/pkg/discord/audit"
	"github.com/dwarflabs/dwarfbot/pkg/discord/commands"
	"github.com/dwarflabs/dwarfbot/pkg/discord/platform"
	"github.com/dwarflabs/dwarfbot/pkg/discord/session"
	"github.com/dwarflabs/dwarfbot/pkg/gameroles"
	"github.com/dwarflabs/dwarfbot/pkg/log"
	"github.com/dwarflabs/dwarfbot/pkg/storage"
	"github.com/dwarflabs/dwarfbot/pkg/store"
	"github.com/dwarflabs/dwarfbot/pkg/util"
)

// Run bootstraps the bot with a unified flow and blocks until shutdown.
// appName affects config/data/log paths; tokenEnv is the environment
// variable containing the bot token. The tokenEnv is read from the
// process environment first; if empty, a fallback $HOME/.local/bin/.env
// file is loaded and the variable re-checked.
func Run(appName, tokenEnv string) error {
	started := time.Now()

	// App name first (affects paths)
	util.SetAppName(appName)

	// Load env (with $HOME/.local/bin fallback)
	token, loadErr := util.LoadEnvWithLocalBinFallback(tokenEnv)
	if loadErr != nil {
		log.ApplicationLogger().Warn(fmt.Sprintf("Warning: %v", loadErr))
	}

	// Logger first so subsequent steps can log meaningfully
	if err := log.SetupLogger(); err != nil {
		return fmt.Errorf("configure logger: %w", err)
	}
	defer log.Sync()

	log.ApplicationLogger().Info(fmt.Sprintf("🚀 Starting %s...", appName))

	if token == "" {
		return fmt.Errorf("%s not set in environment or .env file", tokenEnv)
	}

	if err := util.EnsureDataDirs(); err != nil {
		return fmt.Errorf("create data directories: %w", err)
	}

	// Flat-file stores
	channelStore := store.NewChannelStore(util.ChannelsFilePath())
	if err := channelStore.Load(); err != nil {
		return fmt.Errorf("load channel store: %w", err)
	}
	guildStore := store.NewGuildStore(util.GuildsFilePath())
	if err := guildStore.Load(); err != nil {
		return fmt.Errorf("load guild store: %w", err)
	}

	// SQLite audit store (support DWARFBOT_AUDIT_DB_PATH override)
	dbPath := util.AuditDBPath()
	if v := os.Getenv("DWARFBOT_AUDIT_DB_PATH"); v != "" {
		dbPath = v
	}
	auditStore := storage.NewAuditStore(dbPath)
	if err := auditStore.Init(); err != nil {
		return fmt.Errorf("initialize audit store: %w", err)
	}
	defer auditStore.Close()

	// Discord session
	log.DiscordLogger().Info("🔑 Attempting to authenticate with Discord API...")
	discordSession, err := session.NewDiscordSession(token)
	if err != nil {
		return fmt.Errorf("create discord session: %w", err)
	}
	defer discordSession.Close()
	if discordSession.State == nil || discordSession.State.User == nil {
		return fmt.Errorf("discord session state not properly initialized")
	}
	log.DiscordLogger().Info(fmt.Sprintf("✅ Authenticated as %s", discordSession.State.User.Username))

	// Engine
	service := gameroles.NewService(platform.New(discordSession), channelStore, guildStore)

	// One-time migration: stamp guild ids onto legacy records
	if migrated, unresolved, err := service.BackfillGuildIDs(os.Getenv("DWARFBOT_DEFAULT_GUILD_ID")); err != nil {
		log.ErrorLoggerRaw().Error(fmt.Sprintf("Guild id backfill failed: %v", err))
	} else if migrated > 0 || unresolved > 0 {
		log.ApplicationLogger().Info("Guild id backfill completed",
			"migrated", migrated, "unresolved", unresolved)
	}

	// Action audit fan-out
	actions := audit.NewActionLogger(
		discordSession,
		guildStore,
		auditStore,
		os.Getenv("DWARFBOT_MASTER_LOG_WEBHOOK_URL"),
		os.Getenv("DWARFBOT_MASTER_LOG_CHANNEL_ID"),
	)

	// Commands
	commandHandler := commands.NewCommandHandler(discordSession, service, actions, auditStore)
	if err := commandHandler.SetupCommands(); err != nil {
		return fmt.Errorf("configure slash commands: %w", err)
	}
	log.ApplicationLogger().Info("🔗 Slash commands sync completed")

	// Bring every guild's published menu back in step with the stores
	for _, guild := range discordSession.State.Guilds {
		outcome, err := service.SyncMenu(guild.ID)
		if err != nil {
			log.DiscordLogger().Warn("Startup menu sync failed",
				"guildID", guild.ID, "outcome", outcome.String(), "error", err)
			continue
		}
		if outcome != gameroles.SyncNotApplicable {
			log.DiscordLogger().Info("Startup menu sync",
				"guildID", guild.ID, "outcome", outcome.String())
		}
	}

	log.ApplicationLogger().Info(fmt.Sprintf("🎯 %s initialized successfully in %s", appName, time.Since(started).Round(time.Millisecond)))
	log.ApplicationLogger().Info(fmt.Sprintf("🤖 %s running. Press Ctrl+C to stop...", appName))

	// Wait for shutdown signal
	util.WaitForInterrupt()
	log.ApplicationLogger().Info(fmt.Sprintf("🛑 Stopping %s...", appName))
	log.Sync()

	return nil
}
