package app

import (
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	pkgelasticsearch "github.com/lucinametrics/lucina-service-api/v5/pkg/elasticsearch"
)

func initElasticsearch() {
	if !viper.GetBool("ELASTICSEARCH_ENABLED") {
		zap.L().Info("Elasticsearch history export is disabled")
		return
	}

	urls := viper.GetStringSlice("ELASTICSEARCH_URLS")
	err := pkgelasticsearch.ReplaceGlobals(elasticsearch.Config{
		Addresses: urls,
	})
	if err != nil {
		zap.L().Error("Could not init elasticsearch, history export stays disabled",
			zap.Strings("urls", urls), zap.Error(err))
		return
	}

	zap.L().Info("Elasticsearch connection initialized", zap.Strings("urls", urls))
}
