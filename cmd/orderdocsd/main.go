package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/zeptools/orderdocs/conf"
	"github.com/zeptools/orderdocs/routing"
	"github.com/zeptools/orderdocs/web"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
}

func run() error {
	execPath, err := os.Executable()
	if err != nil {
		return err
	}
	appRoot := filepath.Dir(execPath)

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	core := &conf.Core{}
	if err = core.BaseInit(appRoot, rootCtx, rootCancel); err != nil {
		return err
	}
	defer core.ResourceCleanUp()

	core.PrepareJobScheduler()
	if err = core.PrepareOrderStore(); err != nil {
		return err
	}
	if err = core.PrepareDocCache(); err != nil {
		return err
	}
	core.PrepareCacheSweep()
	if err = core.PrepareMailer(); err != nil {
		return err
	}
	if err = core.PrepareComposer(); err != nil {
		return err
	}
	if err = core.PrepareTextTemplateStore(); err != nil {
		log.Printf("[INFO] no mail templates loaded: %v", err)
	}
	if err = core.PrepareDebouncer(); err != nil {
		return err
	}
	if err = core.PrepareDownloadCipher(); err != nil {
		return err
	}

	handlers := &web.Handlers{
		Composer:       core.Composer,
		Debouncer:      core.Debouncer,
		Cache:          docCacheOrNil(core),
		DownloadCipher: core.DownloadCipher,
		APISecret:      []byte(core.APISecret),
		DownloadTTL:    downloadTTL(core),
	}
	router := &routing.BaseRouter{ServeMux: http.NewServeMux()}
	handlers.RegisterRoutes(router)
	core.PrepareWebService(router)

	if err = core.StartServices(); err != nil {
		return err
	}
	go func() {
		<-rootCtx.Done()
		core.StopServices()
	}()
	return core.WaitServicesDone()
}

// docCacheOrNil keeps the typed-nil pitfall out of the handler's
// interface field
func docCacheOrNil(core *conf.Core) web.DocCache {
	if core.DocCache == nil {
		return nil
	}
	return core.DocCache
}

func downloadTTL(core *conf.Core) time.Duration {
	if core.DownloadTTLMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(core.DownloadTTLMinutes) * time.Minute
}
