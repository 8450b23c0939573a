// Package theme holds the embed colors used by the bot's replies and
// audit logs.
package theme

// Color is a Discord embed color.
type Color = int

const (
	colorInfo    Color = 0x3498DB
	colorSuccess Color = 0x2ECC71
	colorWarning Color = 0xFFA500
	colorError   Color = 0xFF0000
	colorMuted   Color = 0x95A5A6
)

func Info() Color    { return colorInfo }
func Success() Color { return colorSuccess }
func Warning() Color { return colorWarning }
func Error() Color   { return colorError }
func Muted() Color   { return colorMuted }
