package main

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/RedHatInsights/mockbdd/cmd/mockbdd/commands"
)

func main() {
	if err := commands.Execute(context.Background()); err != nil {
		log.Error().Err(err).Msg("mockbdd failed")
		os.Exit(1)
	}
}
