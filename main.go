package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/manimoeinpourofficial-hub/maze-race-server/game"
	"github.com/manimoeinpourofficial-hub/maze-race-server/http_utils"
	"github.com/manimoeinpourofficial-hub/maze-race-server/util"
	"github.com/manimoeinpourofficial-hub/maze-race-server/ws"
	"github.com/rs/cors"
)

func main() {
	util.InitValidator()

	config, err := util.LoadConfig()

	if err != nil {
		log.Fatal(err)
	}

	registry := game.NewRegistry(config.InactivityTimeout)
	manager := ws.NewManager(registry)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go registry.RunReaper(ctx, config.CleanupInterval)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", manager.ServeWS)
	mux.HandleFunc("/healthz", healthHandler)

	handler := cors.Default().Handler(mux)

	log.Printf("maze race server listening on :%v", config.Port)
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%v", config.Port), handler))
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	http_utils.SendResponse(w, http.StatusOK, http_utils.DataResponse{
		BaseResponse: http_utils.NewBaseResponse(true, "ok"),
		Data:         map[string]string{"status": "up"},
	})
}
