// Package razorpay hosts the Razorpay checkout widget on a loopback page
// and relays its callbacks back to the caller.
package razorpay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"shabdsetu-client/pkg/checkout"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const DefaultScriptURL = "https://checkout.razorpay.com/v1/checkout.js"

type Config struct {
	ListenAddr string        // loopback address, port 0 picks a free one
	Timeout    time.Duration // how long the page may stay open
	ScriptURL  string
	// OpenURL shows the checkout page to the user, typically by launching
	// a browser or printing the link.
	OpenURL func(url string) error
}

type razorpayCheckout struct {
	cfg Config
}

var _ checkout.Checkout = (*razorpayCheckout)(nil)

func New(cfg Config) checkout.Checkout {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = "127.0.0.1:0"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Minute
	}
	if cfg.ScriptURL == "" {
		cfg.ScriptURL = DefaultScriptURL
	}
	return &razorpayCheckout{cfg: cfg}
}

type callbackBody struct {
	PaymentID string `json:"razorpay_payment_id"`
	OrderID   string `json:"razorpay_order_id"`
	Signature string `json:"razorpay_signature"`
	Reason    string `json:"reason"`
}

func (c *razorpayCheckout) Open(ctx context.Context, req checkout.Request) (checkout.Result, error) {
	if c.cfg.OpenURL == nil {
		return checkout.Result{}, errors.New("razorpay checkout has no way to open the page")
	}

	ln, err := net.Listen("tcp", c.cfg.ListenAddr)
	if err != nil {
		return checkout.Result{}, fmt.Errorf("failed to start checkout page: %w", err)
	}

	// The nonce keeps other local processes from posting outcomes.
	nonce := uuid.NewString()
	prefix := "/checkout/" + nonce
	results := make(chan checkout.Result, 1)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(otelfiber.Middleware())

	app.Get(prefix, func(ctx *fiber.Ctx) error {
		var buf bytes.Buffer
		err := pageTemplate.Execute(&buf, pageData{
			ScriptURL:    c.cfg.ScriptURL,
			CallbackBase: prefix + "/callback/",
			KeyID:        req.KeyID,
			AmountPaise:  req.AmountPaise,
			Currency:     req.Currency,
			OrderID:      req.OrderID,
			Name:         req.Name,
			Description:  req.Description,
			Email:        req.PrefillEmail,
		})
		if err != nil {
			return err
		}
		ctx.Type("html", "utf-8")
		return ctx.Send(buf.Bytes())
	})

	app.Post(prefix+"/callback/:outcome", func(ctx *fiber.Ctx) error {
		var body callbackBody
		if err := ctx.BodyParser(&body); err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid body"})
		}

		var result checkout.Result
		switch ctx.Params("outcome") {
		case "success":
			if body.PaymentID == "" || body.Signature == "" {
				return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Missing payment fields"})
			}
			result = checkout.Result{Status: checkout.StatusSuccess, PaymentID: body.PaymentID, OrderID: body.OrderID, Signature: body.Signature}
		case "dismiss":
			result = checkout.Result{Status: checkout.StatusDismissed, Reason: "dismissed"}
		case "failure":
			result = checkout.Result{Status: checkout.StatusFailed, Reason: body.Reason}
		default:
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Unknown outcome"})
		}

		// first outcome wins
		select {
		case results <- result:
		default:
		}
		return ctx.JSON(fiber.Map{"success": true})
	})

	go func() { _ = app.Listener(ln) }()
	defer func() { _ = app.ShutdownWithTimeout(2 * time.Second) }()

	if err := c.cfg.OpenURL("http://" + ln.Addr().String() + prefix); err != nil {
		return checkout.Result{}, fmt.Errorf("failed to open checkout page: %w", err)
	}

	timer := time.NewTimer(c.cfg.Timeout)
	defer timer.Stop()

	select {
	case res := <-results:
		return res, nil
	case <-timer.C:
		return checkout.Result{Status: checkout.StatusDismissed, Reason: "checkout timed out"}, nil
	case <-ctx.Done():
		return checkout.Result{}, ctx.Err()
	}
}
