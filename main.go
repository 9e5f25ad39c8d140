package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"

	"LocalCanvas/internal/board"
	"LocalCanvas/internal/config"
	"LocalCanvas/internal/export"
	"LocalCanvas/internal/geom"
	lcnet "LocalCanvas/internal/net"
	"LocalCanvas/internal/storage"
	"LocalCanvas/internal/textfit"
	"LocalCanvas/internal/ui"
)

const AppID = "io.localcanvas.board"

func main() {
	configPath := flag.String("config", "", "settings file")
	boardPath := flag.String("board", "", "board file, overrides the settings file")
	mirror := flag.Bool("mirror", false, "share a read-only view on the local network")
	browse := flag.Bool("browse", false, "list boards shared on the local network and exit")
	dev := flag.Bool("dev", false, "also read "+config.FileName+" from the working directory")
	exportPath := flag.String("export", "", "write the saved board to this PDF file and exit")
	flag.Parse()

	if *browse {
		runBrowse()
		return
	}

	cfg, err := config.NewLoader(*dev, *configPath).Load()
	if err != nil {
		log.Fatalf("[MAIN] %v", err)
	}
	if *boardPath != "" {
		cfg.Storage.Backend = config.BackendFile
		cfg.Storage.Path = *boardPath
	}
	if *mirror {
		cfg.Mirror.Enabled = true
	}
	run(cfg, *exportPath)
}

func runBrowse() {
	found := 0
	err := lcnet.Browse(3*time.Second, func(addr string) {
		found++
		fmt.Printf("http://%s/snapshot\n", addr)
	})
	if err != nil {
		log.Fatalf("[MAIN] %v", err)
	}
	if found == 0 {
		fmt.Fprintln(os.Stderr, "no boards found")
	}
}

func run(cfg *config.Config, exportPath string) {
	a := app.NewWithID(AppID)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	measurer, err := textfit.NewMeasurer()
	if err != nil {
		log.Printf("[MAIN] Text fitting disabled: %v", err)
	}
	capture := ui.NewPointerCapture()

	opts := []board.Option{
		board.WithViewportSize(geom.Size{Width: cfg.Board.ViewportWidth, Height: cfg.Board.ViewportHeight}),
		board.WithDragBounds(cfg.Board.DragBounds),
		board.WithCapturer(capture),
	}
	if measurer != nil {
		opts = append(opts, board.WithMeasurer(measurer))
	}
	b := board.New(opts...)
	defer b.Close()

	store, reload := openStore(ctx, cfg, a, b)
	if err := b.Load(ctx, store); err != nil {
		log.Printf("[MAIN] Starting from a fresh board: %v", err)
	}
	if exportPath != "" {
		if err := export.PDFFile(exportPath, b.Elements()); err != nil {
			log.Fatalf("[MAIN] %v", err)
		}
		log.Printf("[MAIN] Exported %d elements to %s", len(b.Elements()), exportPath)
		return
	}
	stopSave := storage.AutoSave(ctx, b, store, cfg.Storage.SaveDebounce.Duration)

	status := "Ready"
	if cfg.Mirror.Enabled {
		status = startMirror(ctx, cfg.Mirror, b)
	}

	ui.RunApp(a, ui.Options{
		Title:    "LocalCanvas",
		Board:    b,
		Capture:  capture,
		Measurer: measurer,
		Reload:   reload,
		Status:   status,
		OnClose:  stopSave,
	})
	stopSave()
}

// openStore picks the storage backend. The reload func is nil when the
// backend cannot change behind our back.
func openStore(ctx context.Context, cfg *config.Config, a fyne.App, b *board.Board) (storage.Store, func()) {
	if cfg.Storage.Backend == config.BackendPreferences {
		log.Println("[MAIN] Keeping the board in app preferences")
		return storage.NewPrefsStore(a.Preferences()), nil
	}

	fs := storage.NewFileStore(cfg.BoardPath())
	log.Printf("[MAIN] Keeping the board in %s", fs.Path())
	reload := func() {
		if err := b.Reload(ctx, fs); err != nil {
			log.Printf("[MAIN] Reload failed: %v", err)
		}
	}
	if cfg.Storage.Watch {
		if err := fs.Watch(ctx, reload); err != nil {
			log.Printf("[MAIN] Not watching board file: %v", err)
		}
	}
	return fs, reload
}

func startMirror(ctx context.Context, mc config.MirrorConfig, b *board.Board) string {
	hub := lcnet.NewHub(b)
	stop := hub.Start(mc.Debounce.Duration)
	go func() {
		<-ctx.Done()
		stop()
		hub.Close()
	}()
	go func() {
		if err := lcnet.Serve(ctx, mc.Port, hub); err != nil {
			log.Printf("[MAIN] %v", err)
		}
	}()

	if mc.Advertise {
		server, err := lcnet.Advertise(mc.Port)
		if err != nil {
			log.Printf("[MAIN] Not advertising: %v", err)
		} else {
			go func() {
				<-ctx.Done()
				server.Shutdown()
			}()
		}
	}

	url := lcnet.MirrorURL(mc.Port)
	log.Printf("[MAIN] Mirroring at %s", url)
	return "Sharing at " + strings.TrimSuffix(url, "/snapshot")
}
