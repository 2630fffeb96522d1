package recognizer

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"murmur/internal/language"
	"murmur/internal/logging"
	"murmur/internal/services"
)

const segmentBuffer = 16

// ErrNotInitialized is returned by Process when no engine has been loaded.
var ErrNotInitialized = errors.New("recognizer not initialized")

// Consumer loads an engine and relays its segments to a handler in order.
type Consumer struct {
	factory Factory
	logger  *slog.Logger

	mu     sync.Mutex
	engine Engine
}

// NewConsumer constructs a consumer that builds engines with factory.
func NewConsumer(factory Factory, logger *slog.Logger) *Consumer {
	return &Consumer{
		factory: factory,
		logger:  logging.NewComponentLogger(logger, "recognizer"),
	}
}

// Initialize builds a fresh engine and loads the model into it. A previously
// loaded engine that was never processed is released first.
func (c *Consumer) Initialize(modelPath string, lang language.Selector) error {
	if c == nil || c.factory == nil {
		return services.Wrap(services.ErrInitialization, "recognizer", "initialize", "no engine factory configured", nil)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.engine != nil {
		c.closeEngine(c.engine)
		c.engine = nil
	}

	engine, err := c.factory()
	if err != nil {
		return services.Wrap(services.ErrInitialization, "recognizer", "create engine", "", err)
	}
	if err := engine.Load(modelPath, lang); err != nil {
		c.closeEngine(engine)
		return services.Wrap(services.ErrInitialization, "recognizer", "load model", modelPath, err)
	}
	c.engine = engine
	c.logger.Debug("engine initialized",
		logging.String(logging.FieldModel, modelPath),
		logging.String(logging.FieldLanguage, lang.Code),
	)
	return nil
}

// Release closes a loaded engine that will not be processed and returns the
// consumer to the uninitialized state. It is a no-op when nothing is loaded.
func (c *Consumer) Release() {
	c.mu.Lock()
	engine := c.engine
	c.engine = nil
	c.mu.Unlock()
	if engine != nil {
		c.closeEngine(engine)
	}
}

// Process runs recognition on audioPath and calls handle for every segment in
// emission order on the calling goroutine. The engine is released when
// Process returns and the consumer goes back to the uninitialized state.
// Cancellation stops delivery and returns ctx.Err(); a handler error stops
// the engine and is returned unchanged.
func (c *Consumer) Process(ctx context.Context, audioPath string, handle func(Segment) error) error {
	c.mu.Lock()
	engine := c.engine
	c.engine = nil
	c.mu.Unlock()
	if engine == nil {
		return ErrNotInitialized
	}
	defer c.closeEngine(engine)

	if handle == nil {
		return services.Wrap(services.ErrValidation, "recognizer", "process", "segment handler is required", nil)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	segments := make(chan Segment, segmentBuffer)
	done := make(chan error, 1)
	go func() {
		defer close(segments)
		done <- engine.Transcribe(runCtx, audioPath, func(seg Segment) error {
			select {
			case segments <- seg:
				return nil
			case <-runCtx.Done():
				return runCtx.Err()
			}
		})
	}()

	stop := func() {
		cancel()
		for range segments {
		}
		<-done
	}

	for {
		select {
		case <-ctx.Done():
			stop()
			return ctx.Err()
		case seg, ok := <-segments:
			if !ok {
				err := <-done
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				if err != nil {
					return services.Wrap(services.ErrRecognition, "recognizer", "transcribe", audioPath, err)
				}
				return nil
			}
			if ctx.Err() != nil {
				stop()
				return ctx.Err()
			}
			if err := handle(seg); err != nil {
				stop()
				return err
			}
		}
	}
}

func (c *Consumer) closeEngine(engine Engine) {
	if err := engine.Close(); err != nil {
		logging.WarnWithContext(c.logger, "engine close failed", "engine_close_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check for leftover whisper processes or temp files"),
		)
	}
}
