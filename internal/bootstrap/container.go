package bootstrap

import (
	"context"
	"fmt"
	"io"

	"shabdsetu-client/internal/config"
	"shabdsetu-client/internal/constant"
	"shabdsetu-client/internal/controller"
	"shabdsetu-client/internal/events"
	"shabdsetu-client/internal/pkg/apiclient"
	"shabdsetu-client/internal/pkg/logger"
	"shabdsetu-client/internal/repository/contract"
	"shabdsetu-client/internal/repository/implementation"
	"shabdsetu-client/internal/repository/memory"
	"shabdsetu-client/internal/view"
	"shabdsetu-client/pkg/checkout"
	"shabdsetu-client/pkg/checkout/razorpay"
	"shabdsetu-client/pkg/docinfo"
	"shabdsetu-client/pkg/store"

	"github.com/redis/go-redis/v9"
	"k8s.io/utils/clock"
)

// Options are the pieces the caller owns rather than config.
type Options struct {
	Out      io.Writer
	OpenURL  func(url string) error
	Clock    clock.WithTicker  // defaults to the real clock
	Logger   logger.ILogger    // defaults to a file-only logger at cfg.App.LogFilePath
	Checkout checkout.Checkout // defaults to the Razorpay loopback page
}

// Container is the single page controller: one session shared by every
// flow, one event bus feeding one renderer.
type Container struct {
	// Controllers
	ThemeController   controller.IThemeController
	LoginController   controller.ILoginController
	UploadController  controller.IUploadController
	JobController     controller.IJobController
	PaymentController controller.IPaymentController

	Session  *store.Session
	Logger   logger.ILogger
	Terminal *view.Terminal

	bus      *events.Bus
	rendered <-chan struct{}
	rdb      *redis.Client
}

func NewContainer(ctx context.Context, cfg *config.Config, opts Options) (*Container, error) {
	// 1. Core Facades
	sysLogger := opts.Logger
	if sysLogger == nil {
		sysLogger = logger.NewIsolatedLogger(cfg.App.LogFilePath)
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}

	prefs, rdb := newPreferenceRepository(ctx, cfg, sysLogger)

	// 2. Event Bus + renderer
	theme := constant.ThemeLight
	if stored, found, err := prefs.Get(ctx, constant.PrefKeyTheme); err == nil && found {
		theme = stored
	}
	terminal := view.NewTerminal(opts.Out, theme)

	bus := events.NewBus(sysLogger)
	rendered, err := bus.Consume(ctx, terminal.Handle)
	if err != nil {
		return nil, fmt.Errorf("failed to start renderer: %w", err)
	}
	busView := view.NewBusView(ctx, bus, sysLogger)

	// 3. Gateways
	backend, err := apiclient.NewClient(cfg.App.BaseURL, cfg.App.HTTPTimeout, prefs, sysLogger)
	if err != nil {
		bus.Close()
		return nil, err
	}

	co := opts.Checkout
	if co == nil {
		co = razorpay.New(razorpay.Config{
			ListenAddr: cfg.Checkout.ListenAddr,
			Timeout:    cfg.Checkout.Timeout,
			OpenURL:    opts.OpenURL,
		})
	}

	inspector := docinfo.NewInspector(docinfo.PdftoppmThumbnailer{})

	// 4. Controllers
	session := &store.Session{}
	jobController := controller.NewJobController(backend, busView, session, sysLogger, clk, cfg.Poll)

	return &Container{
		ThemeController:   controller.NewThemeController(prefs, busView, sysLogger),
		LoginController:   controller.NewLoginController(backend, busView, session, sysLogger, clk, cfg.Login),
		UploadController:  controller.NewUploadController(inspector, busView, session, sysLogger, cfg.Upload.MaxBytes),
		JobController:     jobController,
		PaymentController: controller.NewPaymentController(backend, co, jobController, busView, session, sysLogger, cfg.Checkout),

		Session:  session,
		Logger:   sysLogger,
		Terminal: terminal,

		bus:      bus,
		rendered: rendered,
		rdb:      rdb,
	}, nil
}

// newPreferenceRepository falls back to the file store when Redis is
// configured but unreachable.
func newPreferenceRepository(ctx context.Context, cfg *config.Config, log logger.ILogger) (contract.PreferenceRepository, *redis.Client) {
	if cfg.Prefs.Backend == "redis" {
		opt, err := redis.ParseURL(cfg.Prefs.RedisURL)
		if err != nil {
			log.Warn("BOOTSTRAP", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
			opt = &redis.Options{Addr: cfg.Prefs.RedisURL}
		}
		rdb := redis.NewClient(opt)
		err = rdb.Ping(ctx).Err()
		if err == nil {
			return implementation.NewRedisPreferenceRepository(rdb, ""), rdb
		}
		log.Warn("BOOTSTRAP", "Redis unavailable, falling back to file preferences", map[string]interface{}{"error": err.Error()})
		rdb.Close()
	}

	prefs, err := memory.NewPreferenceRepository(cfg.Prefs.FilePath)
	if err != nil {
		log.Warn("BOOTSTRAP", "Preferences unreadable, starting fresh", map[string]interface{}{"error": err.Error()})
		prefs, _ = memory.NewPreferenceRepository("")
	}
	return prefs, nil
}

// Close flushes pending view events and releases connections.
func (c *Container) Close() error {
	err := c.bus.Close()
	<-c.rendered
	if c.rdb != nil {
		c.rdb.Close()
	}
	c.Logger.Sync()
	return err
}
