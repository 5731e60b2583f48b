package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/possync/internal/terminal"
	"github.com/dmitrijs2005/possync/internal/terminal/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := terminal.NewApp(cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
