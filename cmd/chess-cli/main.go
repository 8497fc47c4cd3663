package main

import (
	"context"

	"chessbridge-backend/cmd/chess-cli/commands"
	"chessbridge-backend/lib/telemetry"
)

func main() {
	telemetry.InitSlog(false)
	commands.ExecuteContext(context.Background())
}
