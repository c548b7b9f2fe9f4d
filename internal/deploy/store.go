package deploy

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var ErrDeploymentNotFound = errors.New("deployment not found")

// Store keeps deployment records. Records are written as
// <dir>/<network>/<Name>.json; with no dir they only live in memory.
type Store interface {
	Save(d entity.Deployment) error
	Get(network, name string) (*entity.Deployment, error)
	All(network string) ([]entity.Deployment, error)
}

type store struct {
	dir   string
	cache *cache.Cache
}

func NewStore(dir string) Store {
	return &store{dir: dir, cache: cache.New(cache.NoExpiration, 0)}
}

func (s *store) Save(d entity.Deployment) error {
	s.cache.Set(d.Slug(), d, cache.NoExpiration)
	if s.dir == "" {
		return nil
	}

	path := s.path(d.Network, d.Name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create deployments dir: %w", err)
	}

	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		zap.L().With(zap.String("path", path), zap.Error(err)).Error("DeployStore: Failed to write deployment")
		return err
	}

	return nil
}

func (s *store) Get(network, name string) (*entity.Deployment, error) {
	if item, found := s.cache.Get(entity.CreateDeploymentSlug(network, name)); found {
		d := item.(entity.Deployment)
		return &d, nil
	}
	if s.dir == "" {
		return nil, fmt.Errorf("%w: %s/%s", ErrDeploymentNotFound, network, name)
	}

	d, err := s.read(s.path(network, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s/%s", ErrDeploymentNotFound, network, name)
	}
	if err != nil {
		return nil, err
	}
	s.cache.Set(d.Slug(), *d, cache.NoExpiration)

	return d, nil
}

// All returns every deployment of network ordered by name.
func (s *store) All(network string) ([]entity.Deployment, error) {
	byName := make(map[string]entity.Deployment)
	for _, item := range s.cache.Items() {
		if d := item.Object.(entity.Deployment); d.Network == network {
			byName[d.Name] = d
		}
	}

	if s.dir != "" {
		files, err := filepath.Glob(filepath.Join(s.dir, network, "*.json"))
		if err != nil {
			return nil, err
		}
		for _, file := range files {
			name := strings.TrimSuffix(filepath.Base(file), ".json")
			if _, ok := byName[name]; ok {
				continue
			}
			d, err := s.read(file)
			if err != nil {
				return nil, err
			}
			byName[name] = *d
		}
	}

	deployments := make([]entity.Deployment, 0, len(byName))
	for _, d := range byName {
		deployments = append(deployments, d)
	}
	sort.Slice(deployments, func(i, j int) bool {
		return deployments[i].Name < deployments[j].Name
	})

	return deployments, nil
}

func (s *store) path(network, name string) string {
	return filepath.Join(s.dir, network, name+".json")
}

func (s *store) read(path string) (*entity.Deployment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var d entity.Deployment
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return &d, nil
}
