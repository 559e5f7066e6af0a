package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/decred/slog"

	"github.com/vctt94/holdem/pkg/broadcast"
	"github.com/vctt94/holdem/pkg/config"
	"github.com/vctt94/holdem/pkg/logging"
	"github.com/vctt94/holdem/pkg/poker"
	"github.com/vctt94/holdem/pkg/ratelimit"
	"github.com/vctt94/holdem/pkg/server"
	"github.com/vctt94/holdem/pkg/utils"
	"github.com/vctt94/holdem/pkg/validator"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "holdemsim: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return err
	}
	if err := utils.EnsureDataDirExists(cfg.DataDir); err != nil {
		return err
	}

	logBackend, err := logging.NewLogBackend(logging.LogConfig{
		LogFile:    cfg.LogFile,
		DebugLevel: cfg.DebugLevel,
	})
	if err != nil {
		return err
	}
	defer logBackend.Close()
	log := logBackend.Logger(logging.SubsysSim)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := server.OpenStore(ctx, server.StoreConfig{
		Driver:      cfg.DBDriver,
		Path:        cfg.DBPath,
		PostgresDSN: cfg.PostgresDSN,
		Log:         logBackend.Logger(logging.SubsysStore),
	})
	if err != nil {
		return err
	}
	defer store.Close()

	publisher, closePublishers, err := openPublishers(ctx, cfg, logBackend.Logger(logging.SubsysBroadcast))
	if err != nil {
		return err
	}
	defer closePublishers()

	limiter := ratelimit.New(ratelimit.Config{
		Limit:  cfg.RateLimit,
		Window: cfg.RateWindow,
		Log:    logBackend.Logger(logging.SubsysLimiter),
	})
	go limiter.Run(ctx, cfg.SweepInterval)

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	log.Infof("Seed %d, %d rooms x %d hands, %d seats, blinds %d/%d, store %s",
		seed, cfg.Rooms, cfg.Hands, cfg.Seats, cfg.SmallBlind, cfg.BigBlind, cfg.DBDriver)

	mgr, err := server.NewManager(server.ManagerConfig{
		Store:          store,
		Publisher:      publisher,
		Engine:         poker.NewEngine(logBackend.Logger(logging.SubsysEngine), rand.New(rand.NewSource(seed))),
		Validator:      validator.New(limiter, logBackend.Logger(logging.SubsysValidator)),
		Log:            logBackend.Logger(logging.SubsysServer),
		TurnTimeout:    cfg.TurnTimeout,
		EventQueueSize: cfg.EventQueueSize,
		EventWorkers:   cfg.EventWorkers,
	})
	if err != nil {
		return err
	}
	defer mgr.Close()

	sim := &simulator{
		log: log,
		mgr: mgr,
		cfg: simConfig{
			RoomPrefix:    fmt.Sprintf("sim%d", time.Now().Unix()),
			Seats:         cfg.Seats,
			Hands:         cfg.Hands,
			SmallBlind:    cfg.SmallBlind,
			BigBlind:      cfg.BigBlind,
			StartingStack: cfg.StartingStack,
			RetryDelay:    cfg.RateWindow / time.Duration(cfg.RateLimit),
		},
	}
	start := time.Now()
	stats, err := sim.run(ctx, cfg.Rooms, seed)
	var total roomStats
	for _, st := range stats {
		log.Infof("Room %s: %d hands, %d actions, %d throttled, %d rebuys",
			st.RoomID, st.Hands, st.Actions, st.Throttled, st.Rebuys)
		total.Hands += st.Hands
		total.Actions += st.Actions
		total.Throttled += st.Throttled
	}
	log.Infof("Played %d hands (%d actions, %d throttled) in %v",
		total.Hands, total.Actions, total.Throttled, time.Since(start).Round(time.Millisecond))
	if errors.Is(err, errChipsNotConserved) {
		log.Criticalf("%v", err)
	}
	return err
}

// run plays every room concurrently and returns the stats of each room with
// the first error encountered.
func (s *simulator) run(ctx context.Context, rooms int, seed int64) ([]roomStats, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	stats := make([]roomStats, rooms)
	for i := 0; i < rooms; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			st, err := s.runRoom(ctx, i, rand.New(rand.NewSource(seed+int64(i))))
			stats[i] = st
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
					cancel()
				}
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	return stats, firstErr
}

// openPublishers builds the event fan-out for the configured transports.
// Events are always logged.
func openPublishers(ctx context.Context, cfg *config.Config, log slog.Logger) (server.Publisher, func(), error) {
	pubs := broadcast.Multi{broadcast.LogPublisher{Log: log}}
	var closers []func() error
	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Warnf("close publisher: %v", err)
			}
		}
	}

	if cfg.RedisURL != "" {
		p, err := broadcast.NewRedisPublisher(ctx, cfg.RedisURL, cfg.RedisChannelPrefix)
		if err != nil {
			return nil, nil, err
		}
		pubs = append(pubs, p)
		closers = append(closers, p.Close)
		log.Infof("Publishing room events to redis channels %s:<room>", cfg.RedisChannelPrefix)
	}
	if cfg.AMQPURL != "" {
		p, err := broadcast.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		pubs = append(pubs, p)
		closers = append(closers, p.Close)
		log.Infof("Publishing chip updates to exchange %s", cfg.AMQPExchange)
	}
	return pubs, closeAll, nil
}
