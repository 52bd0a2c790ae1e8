package helpers

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
)

// ESOptions configures the search mirror client.
type ESOptions struct {
	Addrs      []string
	Username   string
	Password   string
	Timeout    time.Duration // dial and response-header timeout; 5s when zero
	MaxRetries int
}

// NewESClient builds an Elasticsearch client for the party search mirror.
func NewESClient(opts ESOptions) (*elasticsearch.Client, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return elasticsearch.NewClient(elasticsearch.Config{
		Addresses:  opts.Addrs,
		Username:   opts.Username,
		Password:   opts.Password,
		MaxRetries: opts.MaxRetries,
		Transport: &http.Transport{
			MaxIdleConnsPerHost:   10,
			ResponseHeaderTimeout: timeout,
			TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
			DialContext:           (&net.Dialer{Timeout: timeout}).DialContext,
		},
	})
}

// PingES asks the cluster for its info and fails on a transport error or a
// non-2xx answer.
func PingES(ctx context.Context, es *elasticsearch.Client) error {
	res, err := es.Info(es.Info.WithContext(ctx))
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("elasticsearch info: %s", res.Status())
	}
	return nil
}
