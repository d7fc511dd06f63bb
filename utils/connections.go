package utils

import (
	"net/http"
	"time"

	"gohan/allelecounts/models"

	"github.com/cenkalti/backoff"
	"github.com/elastic/go-elasticsearch/v7"
	log "github.com/sirupsen/logrus"
)

func CreateEsConnection(cfg *models.Config) (*elasticsearch.Client, error) {
	var (
		clusterURLs  = []string{cfg.Elasticsearch.Url}
		retryBackoff = backoff.NewExponentialBackOff()
	)

	esCfg := elasticsearch.Config{
		Addresses: clusterURLs,
		Username:  cfg.Elasticsearch.Username,
		Password:  cfg.Elasticsearch.Password,

		RetryOnStatus: []int{http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout, http.StatusTooManyRequests},

		// Configure the backoff function
		RetryBackoff: func(i int) time.Duration {
			if i == 1 {
				retryBackoff.Reset()
			}
			return retryBackoff.NextBackOff()
		},

		// Retry up to 5 attempts
		MaxRetries: 5,
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"version": elasticsearch.Version,
		"url":     cfg.Elasticsearch.Url,
	}).Info("using elasticsearch client")

	return es, nil
}

// WaitForEs pings the cluster until it answers or the backoff gives up.
func WaitForEs(es *elasticsearch.Client, maxElapsed time.Duration) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = maxElapsed

	return backoff.RetryNotify(func() error {
		res, err := es.Ping()
		if err != nil {
			return err
		}
		defer res.Body.Close()
		if res.IsError() {
			return &esStatusError{status: res.Status()}
		}
		return nil
	}, b, func(err error, next time.Duration) {
		log.WithError(err).WithField("retryIn", next).Warn("elasticsearch not reachable yet")
	})
}

type esStatusError struct {
	status string
}

func (e *esStatusError) Error() string {
	return "elasticsearch ping: " + e.status
}
