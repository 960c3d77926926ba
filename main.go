// @title CityWatch Alert Media
// @version 0.1
// @description Media intake service for citizen safety alerts.

// @host localhost:8080
// @BasePath /
// @query.collection.format multi
// @schemes http

package main

import (
	"log"

	_ "citywatch/alertmedia/docs"
	"citywatch/alertmedia/internal/app"
	"citywatch/alertmedia/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	app.Run(cfg)
}
