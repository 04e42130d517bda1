// SPDX-License-Identifier: EPL-2.0

package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ik5/multitrack"
	"github.com/ik5/multitrack/engine"
	"github.com/ik5/multitrack/loader"
	"github.com/ik5/multitrack/storage"
	"github.com/ik5/multitrack/store"
)

// backends holds the optional adapters enabled by the configuration.
type backends struct {
	db       *gorm.DB
	tracks   *store.TrackRepository
	redis    *redis.Client
	waveform *store.WaveformCache
	uploader *storage.MinioUploader
}

func (b *backends) Close() error {
	var errs []error
	if b.redis != nil {
		errs = append(errs, b.redis.Close())
	}
	if b.db != nil {
		errs = append(errs, store.CloseDB(b.db))
	}
	return errors.Join(errs...)
}

func (a *app) newLoader() *loader.Loader {
	e := a.cfg.Engine
	fetcher := loader.SchemeFetcher{
		HTTP: loader.HTTPFetcher{Client: &http.Client{Timeout: e.FetchTimeout}},
	}
	return loader.New(multitrack.NewRegistry(), fetcher,
		loader.WithSampleRate(e.SampleRate),
		loader.WithAssumedBitrate(e.AssumedBitrate),
		loader.WithLogger(a.log.Named("loader")),
	)
}

// openBackends connects every adapter that has configuration. On error
// the ones already opened are closed.
func (a *app) openBackends(ctx context.Context) (*backends, error) {
	b := &backends{}

	if dsn := a.cfg.Database.DSN; dsn != "" {
		db, err := store.OpenMySQL(dsn)
		if err != nil {
			return nil, err
		}
		b.db = db
		b.tracks = store.NewTrackRepository(db)
		if a.cfg.Database.Migrate {
			if err := b.tracks.Migrate(ctx); err != nil {
				b.Close()
				return nil, err
			}
		}
		a.log.Info("track store connected")
	}

	if r := a.cfg.Redis; r.Addr != "" {
		client, err := store.ConnectRedis(ctx, r.Addr, r.Password, r.DB)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.redis = client
		b.waveform = store.NewWaveformCache(client, r.TTL)
		a.log.Info("waveform cache connected", zap.String("addr", r.Addr))
	}

	if m := a.cfg.Minio; m.Endpoint != "" {
		up, err := storage.NewMinioUploader(storage.Config{
			Endpoint:  m.Endpoint,
			AccessKey: m.AccessKey,
			SecretKey: m.SecretKey,
			Bucket:    m.Bucket,
			Region:    m.Region,
			UseSSL:    m.UseSSL,
			PublicURL: m.PublicURL,
		}, a.log.Named("storage"))
		if err != nil {
			b.Close()
			return nil, err
		}
		if err := up.EnsureBucket(ctx); err != nil {
			b.Close()
			return nil, err
		}
		b.uploader = up
		a.log.Info("object storage connected", zap.String("endpoint", m.Endpoint))
	}

	return b, nil
}

// openSession builds a session and loads the project, from the track store
// when there is one and from the inline track list otherwise.
func (a *app) openSession(ctx context.Context, b *backends) (*engine.Session, error) {
	e := a.cfg.Engine
	opts := []engine.SessionOption{
		engine.WithLogger(a.log.Named("engine")),
		engine.WithPollInterval(e.PollInterval),
		engine.WithLoadConcurrency(e.LoadConcurrency),
		engine.WithProjectID(a.cfg.Project.ID),
	}
	if b.tracks != nil {
		opts = append(opts, engine.WithStore(b.tracks))
	}
	if b.uploader != nil {
		opts = append(opts, engine.WithUploader(b.uploader))
	}

	sess := engine.NewSession(a.newLoader(), opts...)

	var err error
	if b.tracks != nil {
		err = sess.Open(ctx, a.cfg.Project.ID)
	} else {
		err = sess.LoadTracks(ctx, a.cfg.Project.Records())
	}
	if err != nil {
		sess.Close()
		return nil, fmt.Errorf("opening project %s: %w", a.cfg.Project.ID, err)
	}

	for _, n := range sess.Tracks() {
		if n.Status() == engine.StatusError {
			a.log.Warn("track failed to load", zap.String("track", n.ID()), zap.Error(n.Err()))
		}
	}
	return sess, nil
}
