package main

import (
	"embed"
	"log"
	"net/http"

	"github.com/wailsapp/wails/v3/pkg/application"

	"lyra/internal/catalog"
	"lyra/internal/config"
	"lyra/internal/db"
	"lyra/internal/library"
	"lyra/internal/scanner"
)

//go:embed all:frontend/dist
var assets embed.FS

func init() {
	application.RegisterEvent[scanner.Progress](scanner.EventProgress)
	application.RegisterEvent[catalog.ChangeSet](scanner.EventCatalogPublished)
}

func main() {
	paths, err := config.ResolvePaths("lyra")
	if err != nil {
		log.Fatal(err)
	}

	sqliteDB, err := db.Bootstrap(paths.DBPath)
	if err != nil {
		log.Fatal(err)
	}
	defer sqliteDB.Close()

	store := catalog.NewStore()
	query := catalog.NewQueryService(store)
	rootFolders := library.NewRootFolderRepository(sqliteDB)
	playlistRepo := library.NewPlaylistRepository(sqliteDB)
	ignoredRepo := library.NewIgnoredFileRepository(sqliteDB)
	scannerDomain := scanner.NewService(store, rootFolders, playlistRepo, ignoredRepo, scanner.Config{})

	settingsService := NewSettingsService(rootFolders)
	libraryService := NewLibraryService(query)
	playlistService := NewPlaylistService(playlistRepo, query)
	scannerService := NewScannerService(scannerDomain)
	bootstrapService := NewBootstrapService(query, rootFolders, playlistService, scannerDomain)
	coverService := NewCoverService(query)

	mux := http.NewServeMux()
	mux.Handle("/covers", coverService)
	mux.Handle("/", application.AssetFileServerFS(assets))

	app := application.New(application.Options{
		Name:        "Lyra",
		Description: "Local music library manager",
		Services: []application.Service{
			application.NewService(settingsService),
			application.NewService(libraryService),
			application.NewService(playlistService),
			application.NewService(scannerService),
			application.NewService(bootstrapService),
		},
		Assets: application.AssetOptions{
			Handler: mux,
		},
		Mac: application.MacOptions{
			ApplicationShouldTerminateAfterLastWindowClosed: true,
		},
	})

	scannerDomain.SetEmitter(func(eventName string, payload any) {
		app.Event.Emit(eventName, payload)
	})

	if err := scannerDomain.StartWatching(); err != nil {
		log.Printf("library watcher disabled: %v", err)
	}
	defer scannerDomain.StopWatching()

	if err := scannerDomain.TriggerScan(); err != nil {
		log.Printf("startup scan not started: %v", err)
	}

	app.Window.NewWithOptions(application.WebviewWindowOptions{
		Title: "Lyra",
		Mac: application.MacWindow{
			InvisibleTitleBarHeight: 50,
			Backdrop:                application.MacBackdropTranslucent,
			TitleBar:                application.MacTitleBarHiddenInset,
		},
		BackgroundColour: application.NewRGB(16, 16, 22),
		URL:              "/",
	})

	err = app.Run()
	if err != nil {
		log.Fatal(err)
	}
}
