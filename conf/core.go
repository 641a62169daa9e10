package conf

import (
	"context"
	"encoding/json/v2"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/zeptools/orderdocs/documents"
	"github.com/zeptools/orderdocs/documents/cache"
	"github.com/zeptools/orderdocs/orders"
	"github.com/zeptools/orderdocs/orders/impls/mysql"
	"github.com/zeptools/orderdocs/orders/impls/pgsql"
	"github.com/zeptools/orderdocs/schedjobs"
	"github.com/zeptools/orderdocs/sec"
	"github.com/zeptools/orderdocs/shortdelivery"
	"github.com/zeptools/orderdocs/svc"
	"github.com/zeptools/orderdocs/tpl"
	"github.com/zeptools/orderdocs/web"
)

// Core - common config
type Core struct {
	AppName               string   `json:"app_name"`
	Listen                string   `json:"listen"` // HTTP Server Listen IP:PORT Address
	Issuer                []string `json:"issuer"` // letterhead lines of the issuing company
	APISecret             string   `json:"api_secret"`
	DownloadKey           string   `json:"download_key"` // 32 bytes for the sealed download links
	DownloadTTLMinutes    int      `json:"download_ttl_minutes"`
	DebounceDelayMinutes  int      `json:"debounce_delay_minutes"`
	ShortDeliveryMailTo   []string `json:"shortdelivery_mail_to"`
	SchedTickSeconds      int      `json:"sched_tick_seconds"`

	AppRoot    string             `json:"-"` // Filled from compiled paths
	RootCtx    context.Context    `json:"-"` // Global Context with RootCancel
	RootCancel context.CancelFunc `json:"-"` // CancelFunc for RootCtx

	JobScheduler      *schedjobs.Scheduler    `json:"-"` // PrepareJobScheduler
	OrderStore        orders.Store            `json:"-"` // PrepareOrderStore
	OrderStoreConf    orders.Conf             `json:"-"` // loadOrderStoreConf
	DocCache          *cache.Cache            `json:"-"` // PrepareDocCache, nil when not configured
	Mailer            shortdelivery.Mailer    `json:"-"` // PrepareMailer
	SMTPConf          shortdelivery.SMTPConf  `json:"-"` // loadSMTPConf
	Composer          *documents.Composer     `json:"-"` // PrepareComposer
	Debouncer         *shortdelivery.Debouncer `json:"-"` // PrepareDebouncer
	TextTemplateStore *tpl.TextTemplateStore  `json:"-"` // PrepareTextTemplateStore
	DownloadCipher    *sec.XChaCha20Poly1305Cipher `json:"-"` // PrepareDownloadCipher
	WebService        *web.Service            `json:"-"` // PrepareWebService

	orderStoreClose func() error

	services []svc.Service // Services to Manage
	done     chan error
}

// BaseInit - 1st step for initialization
// 1. set AppRoot
// 2. load config/.core.json file
// 3. Start ShutdownSignalListener
func (c *Core) BaseInit(appRoot string, rootCtx context.Context, rootCancel context.CancelFunc) error {
	c.AppRoot = appRoot
	envFilePath := filepath.Join(appRoot, "config", ".core.json")
	envBytes, err := os.ReadFile(envFilePath) // ([]byte, error)
	if err != nil {
		return err
	}
	if err = json.Unmarshal(envBytes, c); err != nil {
		return err
	}
	c.RootCtx = rootCtx
	c.RootCancel = rootCancel
	c.startShutdownSignalListener()
	return nil
}

func (c *Core) AddService(s svc.Service) {
	log.Printf("[INFO] adding service: %s", s.Name())
	c.services = append(c.services, s)
	log.Printf("[INFO] total services: %d", len(c.services))
}

func (c *Core) StartServices() error {
	c.done = make(chan error, len(c.services))
	for _, s := range c.services {
		err := s.Start()
		if err != nil {
			return err
		}
		go func(s svc.Service) {
			err := <-s.Done()
			c.done <- err
		}(s) // pass the loop var to the param. otherwise, they are captured inside goroutine lazily
	}
	return nil
}

func (c *Core) WaitServicesDone() error {
	for i := 0; i < len(c.services); i++ {
		if err := <-c.done; err != nil {
			return err
		}
	}
	return nil
}

func (c *Core) StopServices() {
	for _, s := range c.services {
		s.Stop()
	}
}

var once sync.Once

func (c *Core) startShutdownSignalListener() {
	once.Do(func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			sig := <-sigs
			log.Printf("[INFO] got signal [%s]. shutting down app [%s] ...", sig, c.AppName)
			c.RootCancel() // broadcast to all child services via Context.Done()
		}()
	})
	log.Printf("[INFO][CORE] shutdown signal listener started")
}

// schedulerService adapts the job scheduler to the managed-service shape
type schedulerService struct {
	sched *schedjobs.Scheduler
	done  chan error
}

func (s *schedulerService) Name() string { return "schedjobs" }

func (s *schedulerService) Start() error {
	s.sched.Start()
	return nil
}

func (s *schedulerService) Stop() {
	s.sched.Stop()
	s.done <- nil
}

func (s *schedulerService) Done() <-chan error { return s.done }

func (c *Core) PrepareJobScheduler() {
	tick := time.Duration(c.SchedTickSeconds) * time.Second
	c.JobScheduler = schedjobs.NewScheduler(tick)
	c.AddService(&schedulerService{sched: c.JobScheduler, done: make(chan error, 1)})
}

func (c *Core) loadOrderStoreConf() error {
	confFilePath := filepath.Join(c.AppRoot, "config", ".order-db.json")
	confBytes, err := os.ReadFile(confFilePath) // ([]byte, error)
	if err != nil {
		return err
	}
	return json.Unmarshal(confBytes, &c.OrderStoreConf)
}

// PrepareOrderStore builds & inits the SQL-backed order store
func (c *Core) PrepareOrderStore() error {
	if err := c.loadOrderStoreConf(); err != nil {
		return err
	}
	switch c.OrderStoreConf.Type {
	case "pgsql":
		st := &pgsql.Store{Conf: &c.OrderStoreConf}
		if err := st.Init(); err != nil {
			return err
		}
		c.OrderStore = st
		c.orderStoreClose = st.Close
	case "mysql":
		st := &mysql.Store{Conf: &c.OrderStoreConf}
		if err := st.Init(); err != nil {
			return err
		}
		c.OrderStore = st
		c.orderStoreClose = st.Close
	default:
		return errors.New("unsupported order database type")
	}
	return nil
}

// PrepareDocCache inits the redis document cache.
// A missing config file disables caching instead of failing the boot.
func (c *Core) PrepareDocCache() error {
	confFilePath := filepath.Join(c.AppRoot, "config", ".doc-cache.json")
	confBytes, err := os.ReadFile(confFilePath) // ([]byte, error)
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("[INFO] no document cache config. caching disabled")
		return nil
	}
	if err != nil {
		return err
	}
	conf := &cache.Conf{}
	if err = json.Unmarshal(confBytes, conf); err != nil {
		return err
	}
	c.DocCache = &cache.Cache{Conf: conf}
	return c.DocCache.Init()
}

// PrepareCacheSweep schedules the nightly full sweep of the document
// cache. A disabled cache means nothing to sweep.
// Prerequisite: JobScheduler, PrepareDocCache
func (c *Core) PrepareCacheSweep() {
	if c.DocCache == nil || c.JobScheduler == nil {
		return
	}
	job := schedjobs.NewEveryMinEmptyCronJob("doc-cache-sweep")
	job.Hours = schedjobs.BitsFromHours([]int{3})
	job.Minutes = schedjobs.BitsFromMinutes([]int{30})
	job.Task = func() error {
		n, err := c.DocCache.Sweep(c.RootCtx)
		if err != nil {
			return err
		}
		log.Printf("[INFO] document cache sweep removed %d entries", n)
		return nil
	}
	c.JobScheduler.AddCronJob(job)
}

func (c *Core) loadSMTPConf() error {
	confFilePath := filepath.Join(c.AppRoot, "config", ".smtp.json")
	confBytes, err := os.ReadFile(confFilePath) // ([]byte, error)
	if err != nil {
		return err
	}
	return json.Unmarshal(confBytes, &c.SMTPConf)
}

func (c *Core) PrepareMailer() error {
	if err := c.loadSMTPConf(); err != nil {
		return err
	}
	c.Mailer = &shortdelivery.SMTPMailer{Conf: &c.SMTPConf}
	return nil
}

// PrepareComposer builds the document composer
// Prerequisite: OrderStore
func (c *Core) PrepareComposer() error {
	if c.OrderStore == nil {
		return errors.New("order store not ready")
	}
	c.Composer = documents.NewComposer(c.OrderStore, c.Issuer)
	return nil
}

func (c *Core) PrepareTextTemplateStore() error {
	c.TextTemplateStore = tpl.NewTextTemplateStore()
	return c.TextTemplateStore.LoadBaseTemplates(
		filepath.Join(c.AppRoot, "templates", "text"),
	)
}

// PrepareDebouncer wires the short-delivery notifier
// Prerequisite: JobScheduler, Composer, Mailer
func (c *Core) PrepareDebouncer() error {
	if c.JobScheduler == nil || c.Composer == nil || c.Mailer == nil {
		return errors.New("scheduler, composer and mailer must be ready first")
	}
	delay := time.Duration(c.DebounceDelayMinutes) * time.Minute
	c.Debouncer = shortdelivery.NewDebouncer(c.JobScheduler, c.Composer, c.Mailer, delay)
	c.Debouncer.Recipients = c.ShortDeliveryMailTo
	if c.TextTemplateStore != nil {
		if t, ok := c.TextTemplateStore.Lookup("shortdelivery_mail"); ok {
			c.Debouncer.BodyTpl = t
		}
	}
	return nil
}

func (c *Core) PrepareDownloadCipher() error {
	cipher, err := sec.NewXChaCha20Poly1305CipherBase64([]byte(c.DownloadKey))
	if err != nil {
		return err
	}
	c.DownloadCipher = cipher
	return nil
}

func (c *Core) PrepareWebService(router http.Handler) {
	c.WebService = web.NewService(c.Listen, router)
	c.AddService(c.WebService)
}

func (c *Core) ResourceCleanUp() {
	log.Println("[INFO] App Resource Cleaning Up...")
	if c.DocCache != nil {
		if err := c.DocCache.Close(); err != nil {
			log.Println("[ERROR] Failed to close document cache client")
		}
	}
	if c.orderStoreClose != nil {
		if err := c.orderStoreClose(); err != nil {
			log.Printf("[ERROR][%s] Failed to close order database client", c.OrderStoreConf.Type)
		} else {
			log.Printf("[INFO][%s] order database client closed", c.OrderStoreConf.Type)
		}
	}
	log.Println("[INFO] App Resource Cleanup Complete")
}
