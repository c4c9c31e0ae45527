// Package history indexes finished builds for later search.
package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"template-builder/internal/common/logger"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
)

// Entry is one indexed build outcome.
type Entry struct {
	BuildID                string    `json:"buildId"`
	TemplateID             string    `json:"templateId"`
	TenantID               string    `json:"tenantId,omitempty"`
	Optimization           string    `json:"optimization"`
	Success                bool      `json:"success"`
	ErrorKind              string    `json:"errorKind,omitempty"`
	Errors                 []string  `json:"errors,omitempty"`
	ComponentsGenerated    int       `json:"componentsGenerated"`
	ComponentsSkipped      int       `json:"componentsSkipped"`
	PerformanceImprovement string    `json:"performanceImprovement,omitempty"`
	BuildTimeMs            int64     `json:"buildTimeMs"`
	TotalSize              int       `json:"totalSize"`
	Timestamp              time.Time `json:"@timestamp"`
}

type Sink interface {
	Record(ctx context.Context, e Entry) error
}

// NopSink drops every entry.
type NopSink struct{}

func (NopSink) Record(context.Context, Entry) error { return nil }

// ElasticSink writes entries into one index, keyed by build id.
type ElasticSink struct {
	client *elasticsearch.Client
	index  string
	log    logger.Logger
}

func NewElasticSink(client *elasticsearch.Client, index string, log logger.Logger) *ElasticSink {
	return &ElasticSink{client: client, index: index, log: logger.ForComponent(log, "build-history")}
}

func (s *ElasticSink) Record(ctx context.Context, e Entry) error {
	docID := e.BuildID
	if docID == "" {
		// rejected before a build id was assigned
		docID = "rejected-" + uuid.NewString()
	}
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      s.index,
		DocumentID: docID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("index request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index failed: %s", res.String())
	}
	s.log.Debug("Build indexed", map[string]interface{}{"index": s.index, "documentId": docID})
	return nil
}
