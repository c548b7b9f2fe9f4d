package elastic_search

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"github.com/ZilDuck/nft-marketplace/internal/config"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/ZilDuck/nft-marketplace/internal/log"
	"github.com/aws/aws-sdk-go/aws/credentials"
	v4 "github.com/aws/aws-sdk-go/aws/signer/v4"
	"github.com/olivere/elastic/v7"
	"github.com/patrickmn/go-cache"
	"github.com/sha1sum/aws_signing_client"
	"go.uber.org/zap"
	"path"
	"strings"
	"time"
)

//go:embed mappings/*.json
var mappings embed.FS

var ErrNoHosts = errors.New("no elastic search hosts configured")

type Index interface {
	GetClient() *elastic.Client
	Name(indices Indices) string

	InstallMappings(ctx context.Context) error

	AddIndexRequest(index string, entity entity.Entity)
	HasRequest(entity entity.Entity) bool
	GetRequests() []Request
	GetRequest(id string) *Request
	ClearRequests()

	Save(ctx context.Context, index string, entity entity.Entity) error
	BatchPersist(ctx context.Context) (bool, error)
	Persist(ctx context.Context) (int, error)
}

type index struct {
	client           *elastic.Client
	cache            *cache.Cache
	network          string
	prefix           string
	refresh          string
	reindex          bool
	bulkPersistCount int
	retryDelay       time.Duration
}

// Request is an index request buffered until the next Persist.
type Request struct {
	Index  string
	Entity entity.Entity
}

func New(cfg *config.Config) (Index, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}

	bulkPersistCount := cfg.ElasticSearch.BulkPersistCount
	if bulkPersistCount <= 0 {
		bulkPersistCount = 300
	}

	return index{
		client:           client,
		cache:            cache.New(5*time.Minute, 10*time.Minute),
		network:          cfg.Network,
		prefix:           cfg.Index,
		refresh:          cfg.ElasticSearch.Refresh,
		reindex:          cfg.ElasticSearch.Reindex,
		bulkPersistCount: bulkPersistCount,
		retryDelay:       time.Duration(cfg.ElasticSearch.RetryDelayMs) * time.Millisecond,
	}, nil
}

func newClient(cfg *config.Config) (*elastic.Client, error) {
	if len(cfg.ElasticSearch.Hosts) == 0 {
		return nil, ErrNoHosts
	}

	opts := []elastic.ClientOptionFunc{
		elastic.SetURL(cfg.ElasticSearch.Hosts...),
		elastic.SetSniff(cfg.ElasticSearch.Sniff),
		elastic.SetHealthcheck(cfg.ElasticSearch.HealthCheck),
	}

	if cfg.ElasticSearch.Debug {
		opts = append(opts, elastic.SetTraceLog(log.ElasticLogger{}))
	}

	if cfg.ElasticSearch.Aws {
		creds := credentials.NewStaticCredentials(cfg.Aws.AccessKey, cfg.Aws.SecretKey, cfg.Aws.Token)
		awsClient, err := aws_signing_client.New(v4.NewSigner(creds), nil, "es", cfg.Aws.Region)
		if err != nil {
			return nil, err
		}

		opts = append(opts, elastic.SetHttpClient(awsClient))
		opts = append(opts, elastic.SetScheme("https"))
		return elastic.NewClient(opts...)
	}

	if cfg.ElasticSearch.Username != "" {
		opts = append(opts, elastic.SetBasicAuth(
			cfg.ElasticSearch.Username,
			cfg.ElasticSearch.Password,
		))
	}

	return elastic.NewClient(opts...)
}

func (i index) GetClient() *elastic.Client {
	return i.client
}

func (i index) Name(indices Indices) string {
	return indices.Get(i.network, i.prefix)
}

// InstallMappings creates every index that has a mapping file. With reindex
// set, existing indices are dropped first.
func (i index) InstallMappings(ctx context.Context) error {
	zap.L().Info("ElasticSearch: Install Mappings")

	files, err := mappings.ReadDir("mappings")
	if err != nil {
		return err
	}

	for _, f := range files {
		if f.IsDir() {
			continue
		}

		b, err := mappings.ReadFile(path.Join("mappings", f.Name()))
		if err != nil {
			return fmt.Errorf("mapping %s: %w", f.Name(), err)
		}

		name := i.Name(Indices(strings.TrimSuffix(f.Name(), path.Ext(f.Name()))))
		if err = i.createIndex(ctx, name, b); err != nil {
			return fmt.Errorf("create index %s: %w", name, err)
		}
	}

	return nil
}

func (i index) createIndex(ctx context.Context, index string, mapping []byte) error {
	exists, err := i.client.IndexExists(index).Do(ctx)
	if err != nil {
		return err
	}

	if exists && i.reindex {
		zap.S().Infof("ElasticSearch: Deleting index %s", index)
		if _, err = i.client.DeleteIndex(index).Do(ctx); err != nil {
			return err
		}
		exists = false
	}

	if !exists {
		createIndex, err := i.client.CreateIndex(index).BodyString(string(mapping)).Do(ctx)
		if err != nil {
			return err
		}

		if createIndex.Acknowledged {
			zap.S().Infof("ElasticSearch: Created index %s", index)
		}
	}

	return nil
}

func (i index) AddIndexRequest(index string, entity entity.Entity) {
	zap.L().With(
		zap.String("index", index),
		zap.String("slug", entity.Slug()),
	).Debug("ElasticSearch: AddIndexRequest")

	i.cache.Set(entity.Slug(), Request{index, entity}, cache.DefaultExpiration)
}

func (i index) HasRequest(entity entity.Entity) bool {
	_, found := i.cache.Get(entity.Slug())

	return found
}

func (i index) GetRequests() []Request {
	requests := make([]Request, 0)

	for _, item := range i.cache.Items() {
		requests = append(requests, item.Object.(Request))
	}

	return requests
}

func (i index) GetRequest(id string) *Request {
	item, found := i.cache.Get(id)
	if !found {
		return nil
	}

	req := item.(Request)
	return &req
}

func (i index) ClearRequests() {
	i.cache.Flush()
}

func (i index) Save(ctx context.Context, index string, entity entity.Entity) error {
	err := Retry(ctx, i.retryDelay, func() error {
		_, err := i.client.Index().
			Index(index).
			Id(entity.Slug()).
			BodyJson(entity).
			Refresh(i.refresh).
			Do(ctx)
		return err
	})
	if err != nil {
		zap.L().With(zap.Error(err), zap.String("index", index), zap.String("slug", entity.Slug())).
			Error("ElasticSearch: Failed to save entity")
	}

	return err
}

// BatchPersist only persists once a full bulk of requests is buffered.
func (i index) BatchPersist(ctx context.Context) (bool, error) {
	actions := len(i.GetRequests())
	if actions < i.bulkPersistCount {
		return false, nil
	}

	start := time.Now()
	if _, err := i.Persist(ctx); err != nil {
		return false, err
	}

	zap.L().With(
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("actions", actions),
	).Info("ElasticSearch: Persisting data")

	return true, nil
}

func (i index) Persist(ctx context.Context) (int, error) {
	persisted := 0
	bulk := i.client.Bulk()
	ids := make([]string, 0)

	for _, r := range i.GetRequests() {
		bulk.Add(elastic.NewBulkIndexRequest().Index(r.Index).Id(r.Entity.Slug()).Doc(r.Entity))
		ids = append(ids, r.Entity.Slug())

		if bulk.NumberOfActions() >= i.bulkPersistCount {
			if err := i.persist(ctx, bulk, ids); err != nil {
				return persisted, err
			}
			persisted += len(ids)
			bulk = i.client.Bulk()
			ids = make([]string, 0)
		}
	}

	if bulk.NumberOfActions() != 0 {
		if err := i.persist(ctx, bulk, ids); err != nil {
			return persisted, err
		}
		persisted += len(ids)
	}

	return persisted, nil
}

func (i index) persist(ctx context.Context, bulk *elastic.BulkService, ids []string) error {
	zap.S().Debugf("ElasticSearch: Persisting %d actions", bulk.NumberOfActions())

	var response *elastic.BulkResponse
	err := Retry(ctx, i.retryDelay, func() error {
		var err error
		response, err = bulk.Refresh(i.refresh).Do(ctx)
		return err
	})
	if err != nil {
		zap.L().With(zap.Error(err)).Error("ElasticSearch: Failed to persist requests")
		return err
	}

	for _, failed := range response.Failed() {
		zap.L().With(
			zap.Any("error", failed.Error),
			zap.String("index", failed.Index),
			zap.String("id", failed.Id),
		).Error("ElasticSearch: Failed to persist request. Retrying...")

		req := i.GetRequest(failed.Id)
		if req == nil {
			continue
		}
		if err := i.Save(ctx, failed.Index, req.Entity); err != nil {
			return err
		}
	}

	for _, id := range ids {
		i.cache.Delete(id)
	}

	return nil
}
