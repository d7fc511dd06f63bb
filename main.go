package main

import (
	"fmt"
	"os"
	"time"

	"gohan/allelecounts/contexts"
	"gohan/allelecounts/models"
	"gohan/allelecounts/repositories"
	esRepo "gohan/allelecounts/repositories/elasticsearch"
	"gohan/allelecounts/repositories/memory"
	"gohan/allelecounts/repositories/metadata"
	"gohan/allelecounts/server"
	"gohan/allelecounts/services"
	"gohan/allelecounts/services/compaction"
	"gohan/allelecounts/services/export"
	"gohan/allelecounts/utils"

	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

func main() {
	// Gather environment variables
	var cfg models.Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	log.SetFormatter(&log.JSONFormatter{})
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	log.WithFields(log.Fields{
		"debug":                     cfg.Debug,
		"storeBackend":              cfg.Store.Backend,
		"elasticsearchUrl":          cfg.Elasticsearch.Url,
		"elasticsearchUsername":     cfg.Elasticsearch.Username,
		"indexPrefix":               cfg.Elasticsearch.IndexPrefix,
		"bulkWorkers":               cfg.Elasticsearch.BulkWorkers,
		"metadataSqlitePath":        cfg.Metadata.SqlitePath,
		"ingestionConcurrencyLevel": cfg.Api.IngestionConcurrencyLevel,
		"maxScanBuckets":            cfg.Api.MaxScanBuckets,
		"compactionEnabled":         cfg.Compaction.Enabled,
		"compactionAt":              cfg.Compaction.At,
		"port":                      cfg.Api.Port,
	}).Info("using configuration")
	// --

	// Service Connections:
	// -- Row store
	var store repositories.Store
	switch cfg.Store.Backend {
	case "memory":
		store = memory.NewStore()
	case "elasticsearch":
		es, err := utils.CreateEsConnection(&cfg)
		if err != nil {
			log.WithError(err).Fatal("unable to create the elasticsearch client")
		}
		if err := utils.WaitForEs(es, 2*time.Minute); err != nil {
			log.WithError(err).Fatal("elasticsearch unreachable")
		}
		store = esRepo.NewStore(es, &cfg)
	default:
		log.Fatalf("unknown store backend %q", cfg.Store.Backend)
	}

	// -- Sample metadata
	meta, err := metadata.Open(cfg.Metadata.SqlitePath)
	if err != nil {
		log.WithError(err).Fatal("unable to open the metadata database")
	}
	defer meta.Close()

	// Service Singletons
	iz := services.NewIngestionService(store, &cfg)
	qz := services.NewQueryService(store, meta, &cfg)
	ez := export.NewExportService(qz)
	cz := compaction.NewCompactionService(store, &cfg, iz.IsBusy)
	defer cz.Stop()

	// Instantiate Server
	e := server.New(contexts.GohanContext{
		Config:           &cfg,
		Store:            store,
		Metadata:         meta,
		IngestionService: iz,
		QueryService:     qz,
		ExportService:    ez,
	})

	// Run
	e.Logger.Fatal(e.Start(":" + cfg.Api.Port))
}
