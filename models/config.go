package models

type Config struct {
	Debug bool `yaml:"debug" envconfig:"GOHAN_DEBUG"`

	Api struct {
		Url  string `yaml:"url" envconfig:"GOHAN_PUBLIC_URL"`
		Port string `yaml:"port" envconfig:"GOHAN_API_INTERNAL_PORT" default:"5000"`

		// number of chromosomes ingested in parallel
		IngestionConcurrencyLevel int `yaml:"ingestionConcurrencyLevel" envconfig:"GOHAN_API_INGESTION_CONCURRENCY_LEVEL" default:"4"`
		// upper bound on the number of buckets one /counts call may scan
		MaxScanBuckets int64 `yaml:"maxScanBuckets" envconfig:"GOHAN_API_MAX_SCAN_BUCKETS" default:"100000"`
	} `yaml:"api"`

	Store struct {
		// "elasticsearch" or "memory"
		Backend string `yaml:"backend" envconfig:"GOHAN_STORE_BACKEND" default:"elasticsearch"`
	} `yaml:"store"`

	Elasticsearch struct {
		Url         string `yaml:"url" envconfig:"GOHAN_ES_URL"`
		Username    string `yaml:"username" envconfig:"GOHAN_ES_USERNAME"`
		Password    string `yaml:"password" envconfig:"GOHAN_ES_PASSWORD"`
		IndexPrefix string `yaml:"indexPrefix" envconfig:"GOHAN_ES_INDEX_PREFIX" default:"allele-counts"`
		BulkWorkers int    `yaml:"bulkWorkers" envconfig:"GOHAN_ES_BULK_WORKERS" default:"4"`
	} `yaml:"elasticsearch"`

	Metadata struct {
		SqlitePath string `yaml:"sqlitePath" envconfig:"GOHAN_METADATA_SQLITE_PATH" default:"/data/metadata.db"`
	} `yaml:"metadata"`

	Compaction struct {
		Enabled bool `yaml:"enabled" envconfig:"GOHAN_COMPACTION_ENABLED" default:"true"`
		// time of day (UTC) the daily compaction runs at
		At string `yaml:"at" envconfig:"GOHAN_COMPACTION_AT" default:"04:00"`
	} `yaml:"compaction"`
}
