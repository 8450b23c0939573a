package main

import (
	"os"

	"github.com/dwarflabs/dwarfbot/pkg/app"
	"github.com/dwarflabs/dwarfbot/pkg/log"
)

// main is the entry point of the Discord bot.
func main() {
	if err := app.Run("dwarfbot", "DWARFBOT_TOKEN"); err != nil {
		log.ErrorLoggerRaw().Error("Fatal", "error", err)
		os.Exit(1)
	}
}
