// wgnld serves read-only WireGuard device state over HTTP and websockets.
//
//	GET /devices        names of watched devices
//	GET /device/<name>  last polled snapshot of one device
//	GET /watch          websocket; pushes a snapshot whenever one changes
//
// Private and preshared keys are never exposed on this surface.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/Global19/wgnlpy"
	"github.com/Global19/wgnlpy/internal/config"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

func main() {
	if len(os.Args) >= 2 {
		config.ConfigFileOverride = os.Args[1]
	}
	if err := config.ReadConfigFile(); err != nil {
		log.Fatalf("failed to read config file: %v", err)
	}

	client, err := wgnlpy.New()
	if err != nil {
		log.Fatalf("failed to connect to wireguard netlink: %v", err)
	}
	defer client.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	w := newWatcher(client)
	go w.run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/devices", func(rw http.ResponseWriter, r *http.Request) {
		writeJSON(rw, w.names())
	})
	mux.HandleFunc("/device/", func(rw http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/device/")
		st, ok := w.state(name)
		if !ok {
			http.Error(rw, "unknown device", http.StatusNotFound)
			return
		}
		writeJSON(rw, st)
	})
	mux.HandleFunc("/watch", func(rw http.ResponseWriter, r *http.Request) {
		watch(w, rw, r)
	})

	srv := &http.Server{
		Addr:    config.Cfg.Bind,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()

		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		srv.Shutdown(sctx)
	}()

	log.Printf("listening on %s", config.Cfg.Bind)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server failed: %v", err)
	}
}

func writeJSON(rw http.ResponseWriter, data any) {
	rw.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(rw).Encode(data); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}

// watch upgrades to a websocket and forwards device state changes until the
// client goes away.
func watch(w *watcher, rw http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(rw, r, nil)
	if err != nil {
		log.Printf("failed to accept websocket: %v", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ch, cancel := w.subscribe()
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case st := <-ch:
			if err := wsjson.Write(r.Context(), conn, st); err != nil {
				return
			}
		}
	}
}
