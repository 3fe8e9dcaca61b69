package history

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/lucinametrics/lucina-service-api/v5/pkg/elasticsearch"
	"go.uber.org/zap"
)

// ElasticExporter indexes service status records into daily elasticsearch indices,
// used by external dashboards and long term analytics
type ElasticExporter struct {
	IndexPrefix string
}

// NewElasticExporter returns a new instance of ElasticExporter writing under the input index prefix
func NewElasticExporter(indexPrefix string) *ElasticExporter {
	return &ElasticExporter{IndexPrefix: indexPrefix}
}

// IndexName returns the daily index receiving the records of the input date
func (e *ElasticExporter) IndexName(t time.Time) string {
	return fmt.Sprintf("%s-%s", e.IndexPrefix, t.UTC().Format("2006-01-02"))
}

// Export indexes a single status record
func (e *ElasticExporter) Export(record Record) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := elasticsearch.C().Index(e.IndexName(record.OccurredAt)).Document(record).Do(ctx)
	if err != nil {
		zap.L().Error("Index status record", zap.String("service", record.ServiceName), zap.Error(err))
		return err
	}
	return nil
}

// GetAllIndices returns the sorted names of every live index under the exporter prefix
func (e *ElasticExporter) GetAllIndices() []string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()
	response, err := elasticsearch.C().Cat.Indices().Index(fmt.Sprintf("%s-*", e.IndexPrefix)).Do(ctx)
	if err != nil {
		zap.L().Error("elasticsearch CatIndices", zap.Error(err))
		return make([]string, 0)
	}

	indices := make([]string, 0)
	for _, index := range response {
		if index.Index != nil {
			indices = append(indices, *index.Index)
		}
	}
	sort.Strings(indices)
	return indices
}

// PurgeOlderThan deletes the daily indices entirely older than the input age
func (e *ElasticExporter) PurgeOlderThan(maxAge time.Duration) {
	tsStart := time.Now().UTC().Add(-maxAge)
	indexStart := e.IndexName(tsStart)

	allIndices := e.GetAllIndices()
	indices := make([]string, 0)
	for _, index := range allIndices {
		if index < indexStart { // purge selection condition
			indices = append(indices, index)
		}
	}

	zap.L().Info("Purging indices older than", zap.String("indexStart", indexStart), zap.Strings("indices", indices))

	for _, index := range indices {
		e.deleteIndex(index)
	}
}

func (e *ElasticExporter) deleteIndex(index string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	success, err := elasticsearch.C().Indices.Delete(index).IsSuccess(ctx)
	if err != nil {
		zap.L().Warn("Delete index failed", zap.Error(err))
	}
	if !success {
		zap.L().Warn("Delete index failed", zap.String("index", index))
	}
}
