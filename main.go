package main

import (
	"github.com/waassist/connector/app/cmd"
)

// @title WhatsApp Connector API
// @version 1.0
// @description Connects organizations to their WhatsApp gateway, keeps connection state reconciled and dispatches outreach campaigns.

// @host  localhost:8000
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cmd.StartApp()
}
