package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"hoteldesk/internal/config"
	"hoteldesk/internal/models"
	"hoteldesk/internal/store"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Bookings []seedBooking `yaml:"bookings"`
}

type seedBooking struct {
	Name          string  `yaml:"name"`
	BookingType   string  `yaml:"booking_type"`
	Mobile        string  `yaml:"mobile"`
	CheckInDate   string  `yaml:"check_in_date"`
	CheckOutDate  string  `yaml:"check_out_date"`
	Double        int     `yaml:"double"`
	Triple        int     `yaml:"triple"`
	Four          int     `yaml:"four"`
	TotalAmount   float64 `yaml:"total_amount"`
	AdvanceAmount float64 `yaml:"advance_amount"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		seedPath   = flag.String("seed", "configs/seed.yaml", "path to seed yaml")
		driver     = flag.String("driver", config.DriverSQLite, "store driver (redis or sqlite)")
		dbPath     = flag.String("db", "./data/hoteldesk.db", "path to sqlite db")
		redisAddr  = flag.String("redis", "localhost:6379", "redis address")
		collection = flag.String("collection", "bookings", "target collection")
	)
	flag.Parse()

	data, err := os.ReadFile(*seedPath)
	if err != nil {
		return fmt.Errorf("read seed: %w", err)
	}
	var seed seedFile
	if err = yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse seed: %w", err)
	}
	if len(seed.Bookings) == 0 {
		return fmt.Errorf("no bookings in yaml")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, cleanup, err := openStore(ctx, *driver, *dbPath, *redisAddr)
	if err != nil {
		return err
	}
	defer cleanup()

	created := 0
	skipped := 0
	for _, sb := range seed.Bookings {
		booking := models.Booking{
			Name:          sb.Name,
			BookingType:   sb.BookingType,
			Mobile:        sb.Mobile,
			CheckInDate:   sb.CheckInDate,
			CheckOutDate:  sb.CheckOutDate,
			Rooms:         models.RoomCounts{Double: sb.Double, Triple: sb.Triple, Four: sb.Four},
			TotalAmount:   sb.TotalAmount,
			AdvanceAmount: sb.AdvanceAmount,
			SubmittedAt:   time.Now(),
		}
		if err := booking.Validate(); err != nil {
			logger.Warn().Err(err).Str("guest", sb.Name).Msg("skipping invalid seed booking")
			skipped++
			continue
		}
		booking.Normalize()

		if _, err := st.Create(ctx, *collection, &booking); err != nil {
			return fmt.Errorf("create %s: %w", sb.Name, err)
		}
		created++
	}

	fmt.Printf("done: created=%d skipped=%d\n", created, skipped)
	return nil
}

func openStore(ctx context.Context, driver, dbPath, redisAddr string) (store.Store, func(), error) {
	switch driver {
	case config.DriverRedis:
		client := store.NewRedisClient(config.RedisConfig{Address: redisAddr})
		if err := store.Ping(ctx, client); err != nil {
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		return store.NewRedisStore(client, nil), func() { _ = store.Close(client) }, nil

	case config.DriverSQLite:
		st, err := store.NewSQLiteStore(dbPath, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		return st, func() { _ = st.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unsupported driver %q", driver)
}
