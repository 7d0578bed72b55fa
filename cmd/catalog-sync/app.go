package main

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/slabworks/catalog-sync/audit"
	"github.com/slabworks/catalog-sync/kafka"
	"github.com/slabworks/catalog-sync/kafka/msk"
	"github.com/slabworks/catalog-sync/search"
	"github.com/slabworks/catalog-sync/secrets"
	"github.com/slabworks/catalog-sync/shopify"
	"github.com/slabworks/catalog-sync/sql"
	"github.com/slabworks/catalog-sync/sync"
)

// app the wired service components
type app struct {
	db        *sql.Connection
	processor *sync.Processor
	runner    *sync.Runner
	resolver  *sync.Resolver
	index     *search.Index
	kafkaConn *kafka.Connection
	kafkaSink *audit.KafkaSink
}

// newApp connects and wires everything the commands need
func newApp(ctx context.Context) (a *app, err error) {
	a = &app{}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.db, err = sql.NewPostgresConn(ctx, sql.GetConnParamFromENV())
	if err != nil {
		return nil, err
	}

	creds, err := secrets.NewManager(ctx, cfg.Secrets.SecretID,
		cfg.Secrets.Region)
	if err != nil {
		return nil, err
	}

	registry := shopify.NewRegistry(creds)
	if cfg.Shopify.APIVersion != "" {
		registry.SetVersion(cfg.Shopify.APIVersion)
	}

	catalog := sync.NewCatalogClient(registry)

	a.processor = sync.NewProcessor(a.db, catalog)
	a.processor.SetMaxItems(cfg.Sync.BatchSize)
	a.processor.SetPacing(cfg.Sync.Pacing())
	a.processor.SetCooldown(cfg.Sync.Cooldown())

	auditor, err := a.auditor(ctx)
	if err != nil {
		return nil, err
	}
	a.processor.SetAudit(auditor)

	if cfg.Search.Enabled() {
		a.index, err = search.New(&search.Config{
			App:   cfg.Search.App,
			Key:   cfg.Search.Key,
			Index: cfg.Search.Index,
		})
		if err != nil {
			return nil, err
		}
		a.processor.SetSearcher(a.index)
	}

	a.runner, err = sync.NewRunner(ctx, a.db, a.processor)
	if err != nil {
		return nil, err
	}

	a.resolver = sync.NewResolver(a.db, catalog)
	a.resolver.SetAudit(auditor)

	return a, nil
}

// auditor builds the audit sink, fanning out to kafka when brokers
// are configured
func (a *app) auditor(ctx context.Context) (s audit.Sink, err error) {
	sqlSink := audit.NewSQLSink(a.db)
	if !cfg.Kafka.Enabled() {
		return sqlSink, nil
	}

	conf := kafka.ConnectionConfig{
		AddressList: cfg.Kafka.Brokers,
		Context:     ctx,
	}

	if cfg.Kafka.Region != "" {
		// MSK brokers authenticated with the instance's ec2 role
		conf.SASLMechanism, err = msk.NewSASLMechanism(cfg.Kafka.Region)
		if err != nil {
			return nil, err
		}
	} else {
		conf.NoTLS = true
	}

	a.kafkaConn, err = kafka.NewConn(conf)
	if err != nil {
		return nil, err
	}

	a.kafkaSink, err = audit.NewKafkaSink(a.kafkaConn, cfg.Kafka.Topic)
	if err != nil {
		return nil, err
	}

	return audit.NewMultiSink(sqlSink, a.kafkaSink), nil
}

// Close releases everything in reverse of how it was wired
func (a *app) Close() {
	if a.kafkaSink != nil {
		if err := a.kafkaSink.Close(); err != nil {
			log.Warn().Err(err).Msg("kafka sink not closed")
		}
	}

	if a.kafkaConn != nil {
		if err := a.kafkaConn.Close(); err != nil {
			log.Warn().Err(err).Msg("kafka connection not closed")
		}
	}

	if a.db != nil {
		a.db.Close()
	}
}
